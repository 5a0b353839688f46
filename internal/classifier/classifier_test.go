package classifier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/MikeSquared-Agency/lure/internal/affinity"
	"github.com/MikeSquared-Agency/lure/internal/oracle"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func reply(s string, err error) oracle.Oracle {
	return oracle.Func(func(context.Context, string, []oracle.Message, int) (string, error) {
		return s, err
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"Tech Support", affinity.TechSupport, true},
		{"tech-support", affinity.TechSupport, true},
		{"TECH_SUPPORT", affinity.TechSupport, true},
		{"financial", affinity.Financial, true},
		{"This looks like a Lottery scam", affinity.Lottery, true},
		{"general", affinity.General, true},
		{"romance", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Normalize(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Normalize(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		oracle oracle.Oracle
		want   string
	}{
		{"json", reply(`{"category": "Lottery"}`, nil), affinity.Lottery},
		{"fenced json", reply("```json\n{\"category\": \"tech-support\"}\n```", nil), affinity.TechSupport},
		{"free text", reply("Category: Financial", nil), affinity.Financial},
		{"unknown label", reply(`{"category": "Romance"}`, nil), affinity.General},
		{"empty", reply("", nil), affinity.General},
		{"error", reply("", errors.New("connection reset")), affinity.General},
		{"timeout", reply("", context.DeadlineExceeded), affinity.General},
		{"nil oracle", nil, affinity.General},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.oracle, discardLogger(), nil)
			if got := c.Classify(context.Background(), "You won a prize"); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassify_RecoversPanic(t *testing.T) {
	o := oracle.Func(func(context.Context, string, []oracle.Message, int) (string, error) {
		panic("backend exploded")
	})
	c := New(o, discardLogger(), nil)
	if got := c.Classify(context.Background(), "hi"); got != affinity.General {
		t.Errorf("Classify() = %q, want General", got)
	}
}

func TestClassify_NilLogger(t *testing.T) {
	c := New(reply("", errors.New("rate limited")), nil, nil)
	if got := c.Classify(context.Background(), "your computer has a virus"); got != affinity.General {
		t.Errorf("Classify = %q, want General", got)
	}
}
