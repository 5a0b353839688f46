package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/lure/internal/affinity"
	"github.com/MikeSquared-Agency/lure/internal/capture"
	"github.com/MikeSquared-Agency/lure/internal/dialogue"
	"github.com/MikeSquared-Agency/lure/internal/persona"
)

const (
	maxBodyBytes   = 1 << 20
	defaultOpening = "Hello"
	autoPersona    = "auto"
	captureLimit   = 50
)

// interactRequest accepts the shapes clients actually send: a proper
// history array, a bare string, or a single message under one of several
// keys.
type interactRequest struct {
	History        json.RawMessage `json:"history"`
	Persona        string          `json:"persona"`
	Context        *dialogue.Hint  `json:"context"`
	Message        string          `json:"message"`
	Text           string          `json:"text"`
	Input          string          `json:"input"`
	ConversationID string          `json:"conversation_id"`
}

type interactResponse struct {
	dialogue.Record
	Persona        string `json:"persona"`
	Category       string `json:"category,omitempty"`
	ConversationID string `json:"conversation_id"`
}

type wireTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (req interactRequest) turns() []dialogue.Turn {
	if len(req.History) > 0 {
		var arr []wireTurn
		if err := json.Unmarshal(req.History, &arr); err == nil && len(arr) > 0 {
			out := make([]dialogue.Turn, 0, len(arr))
			for _, t := range arr {
				out = append(out, dialogue.Turn{Role: dialogue.ParseRole(t.Role), Content: t.Content})
			}
			return out
		}
		var single string
		if err := json.Unmarshal(req.History, &single); err == nil && strings.TrimSpace(single) != "" {
			return []dialogue.Turn{{Role: dialogue.RoleScammer, Content: single}}
		}
	}

	msg := defaultOpening
	for _, candidate := range []string{req.Message, req.Text, req.Input} {
		if strings.TrimSpace(candidate) != "" {
			msg = candidate
			break
		}
	}
	return []dialogue.Turn{{Role: dialogue.RoleScammer, Content: msg}}
}

func firstScammerTurn(history []dialogue.Turn) string {
	for _, t := range history {
		if t.Role == dialogue.RoleScammer {
			return t.Content
		}
	}
	return defaultOpening
}

// decodeInteract never fails: an unreadable or non-JSON body becomes a
// one-turn history from the raw text.
func decodeInteract(r *http.Request) interactRequest {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return interactRequest{}
	}
	var req interactRequest
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&req); err != nil {
		return interactRequest{Message: strings.TrimSpace(string(body))}
	}
	return req
}

func (s *Server) interact(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("interact panic", "panic", rec)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
	}()

	req := decodeInteract(r)
	history := req.turns()

	convID := req.ConversationID
	if convID == "" {
		convID = uuid.NewString()
	}
	ctx := dialogue.WithConversationID(r.Context(), convID)

	resp := interactResponse{ConversationID: convID}
	name := strings.TrimSpace(req.Persona)
	if name == "" || strings.EqualFold(name, autoPersona) {
		sel := s.deps.Selector.Select(ctx, firstScammerTurn(history))
		name, resp.Category = sel.Persona, sel.Category
	}
	resp.Persona = string(persona.Resolve(name).Name)

	hint := dialogue.HintFromHistory(history)
	if req.Context != nil {
		hint = *req.Context
	}

	resp.Record = s.deps.Orchestrator.Respond(ctx, history, resp.Persona, hint)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) selectPersona(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Selector.Select(r.Context(), req.Message))
}

func (s *Server) reward(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
		Persona  string `json:"persona"`
		Success  bool   `json:"success"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Persona) == "" {
		writeError(w, http.StatusBadRequest, "persona is required")
		return
	}
	if err := s.deps.Rewarder.Reward(r.Context(), req.Category, req.Persona, req.Success); err != nil {
		s.logger.Error("reward failed", "category", req.Category, "persona", req.Persona, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) scores(w http.ResponseWriter, r *http.Request) {
	table, err := s.deps.Store.Load(r.Context())
	if err != nil || table == nil {
		s.logger.Warn("load scores failed, reporting defaults", "error", err)
		table = affinity.Defaults()
	}
	writeJSON(w, http.StatusOK, table)
}

func (s *Server) personas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, persona.All())
}

func (s *Server) captures(w http.ResponseWriter, r *http.Request) {
	limit := captureLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	events, err := capture.ReadRecent(s.deps.CaptureLog, limit)
	if err != nil {
		s.logger.Error("read capture log failed", "error", err)
		writeError(w, http.StatusInternalServerError, "capture log unavailable")
		return
	}
	writeJSON(w, http.StatusOK, events)
}
