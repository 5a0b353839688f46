package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmpty is returned when a backend answers with no usable text.
var ErrEmpty = errors.New("empty completion")

// Message is one chat turn sent to a text-generation backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Oracle is an opaque text-generation service. Implementations make no
// reliability promises; callers must treat every error as recoverable.
type Oracle interface {
	Complete(ctx context.Context, system string, messages []Message, maxTokens int) (string, error)
}

// Func adapts a plain function to the Oracle interface.
type Func func(ctx context.Context, system string, messages []Message, maxTokens int) (string, error)

func (f Func) Complete(ctx context.Context, system string, messages []Message, maxTokens int) (string, error) {
	return f(ctx, system, messages, maxTokens)
}

type timeoutOracle struct {
	next    Oracle
	timeout time.Duration
}

// WithTimeout bounds every call to o. A non-positive timeout returns o unchanged.
func WithTimeout(o Oracle, timeout time.Duration) Oracle {
	if timeout <= 0 {
		return o
	}
	return &timeoutOracle{next: o, timeout: timeout}
}

type completion struct {
	out string
	err error
}

// Complete returns when the wrapped call finishes or the deadline passes,
// whichever comes first. A backend that ignores ctx is abandoned on expiry.
func (t *timeoutOracle) Complete(ctx context.Context, system string, messages []Message, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan completion, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- completion{err: fmt.Errorf("oracle panic: %v", r)}
			}
		}()
		out, err := t.next.Complete(ctx, system, messages, maxTokens)
		done <- completion{out: out, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", fmt.Errorf("oracle timed out after %s: %w", t.timeout, res.err)
			}
			return "", res.err
		}
		return res.out, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("oracle timed out after %s: %w", t.timeout, ctx.Err())
		}
		return "", ctx.Err()
	}
}

// Fallback wraps a primary oracle with a secondary provider.
// If the primary fails, the secondary is tried once.
type Fallback struct {
	primary   Oracle
	secondary Oracle
	logger    *slog.Logger
}

// NewFallback creates a fallback-enabled oracle. A nil secondary means the
// primary is used alone.
func NewFallback(primary, secondary Oracle, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

func (f *Fallback) Complete(ctx context.Context, system string, messages []Message, maxTokens int) (string, error) {
	out, err := f.primary.Complete(ctx, system, messages, maxTokens)
	if err == nil {
		return out, nil
	}

	f.logger.Warn("primary oracle failed, attempting fallback",
		"error", err.Error(),
		"fallback_available", f.secondary != nil,
	)
	if f.secondary == nil {
		return "", err
	}

	out, fallbackErr := f.secondary.Complete(ctx, system, messages, maxTokens)
	if fallbackErr != nil {
		f.logger.Error("fallback oracle also failed",
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
		)
		return "", fallbackErr
	}
	return out, nil
}
