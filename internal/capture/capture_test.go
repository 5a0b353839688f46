package capture

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/MikeSquared-Agency/lure/internal/extractor"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short", "pay now", "pay now..."},
		{"exact", strings.Repeat("a", 100), strings.Repeat("a", 100) + "..."},
		{"long", strings.Repeat("b", 150), strings.Repeat("b", 100) + "..."},
		{"multibyte", strings.Repeat("₹", 120), strings.Repeat("₹", 100) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in); got != tt.want {
				t.Errorf("Truncate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	intel := extractor.Result{UPIIDs: []string{"boss@scam"}}
	ev := NewEvent("conv-1", "Aunt Mary", "send to boss@scam", intel)

	if ev.ID.String() == "" {
		t.Fatal("expected event id")
	}
	if ev.Persona != "Aunt Mary" || ev.ConversationID != "conv-1" {
		t.Errorf("unexpected event: %+v", ev)
	}
	if len(ev.ExtractedUPI) != 1 || ev.ExtractedUPI[0] != "boss@scam" {
		t.Errorf("ExtractedUPI = %v", ev.ExtractedUPI)
	}
	if ev.ExtractedBank == nil || ev.ExtractedLinks == nil {
		t.Error("empty sets should encode as [] not null")
	}
}

func TestLog_AppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "scam_log.jsonl")
	l := NewLog(path)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ev := NewEvent("", "Rohan", "acct 882233445566", extractor.Result{BankNumbers: []string{"882233445566"}})
			if err := l.Capture(ctx, ev); err != nil {
				t.Errorf("Capture: %v", err)
			}
		}()
	}
	wg.Wait()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	lines := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("line %d not json: %v", lines, err)
		}
		if ev.ExtractedBank[0] != "882233445566" {
			t.Errorf("bank = %v", ev.ExtractedBank)
		}
		lines++
	}
	if lines != 10 {
		t.Errorf("lines = %d, want 10", lines)
	}
}

func TestMulti_SwallowsSinkErrors(t *testing.T) {
	var got []string
	failing := SinkFunc(func(context.Context, Event) error { return errors.New("slack down") })
	recording := SinkFunc(func(_ context.Context, ev Event) error {
		got = append(got, ev.Persona)
		return nil
	})

	m := NewMulti(discardLogger(), failing, nil, recording)
	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (nil sink dropped)", m.Len())
	}
	if err := m.Capture(context.Background(), Event{Persona: "Mr. Gupta"}); err != nil {
		t.Fatalf("Capture returned %v", err)
	}
	if len(got) != 1 || got[0] != "Mr. Gupta" {
		t.Errorf("recording sink saw %v", got)
	}
}

func TestReadRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scam_log.jsonl")
	l := NewLog(path)
	ctx := context.Background()
	for _, p := range []string{"Uncle Ramesh", "Mrs. Sharma", "Aunt Mary"} {
		if err := l.Capture(ctx, Event{Persona: p}); err != nil {
			t.Fatalf("Capture: %v", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	f.WriteString("not json\n")
	f.Close()

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"all", 0, []string{"Uncle Ramesh", "Mrs. Sharma", "Aunt Mary"}},
		{"newest two", 2, []string{"Mrs. Sharma", "Aunt Mary"}},
		{"over", 10, []string{"Uncle Ramesh", "Mrs. Sharma", "Aunt Mary"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadRecent(path, tt.limit)
			if err != nil {
				t.Fatalf("ReadRecent: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d events, want %d", len(got), len(tt.want))
			}
			for i, ev := range got {
				if ev.Persona != tt.want[i] {
					t.Errorf("event %d persona = %q, want %q", i, ev.Persona, tt.want[i])
				}
			}
		})
	}
}

func TestReadRecent_MissingFile(t *testing.T) {
	got, err := ReadRecent(filepath.Join(t.TempDir(), "absent.jsonl"), 5)
	if err != nil {
		t.Fatalf("ReadRecent: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty slice", got)
	}
}
