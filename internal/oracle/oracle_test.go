package oracle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWithTimeout_Expires(t *testing.T) {
	slow := Func(func(ctx context.Context, _ string, _ []Message, _ int) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	o := WithTimeout(slow, 20*time.Millisecond)
	start := time.Now()
	_, err := o.Complete(context.Background(), "", nil, 10)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("timeout not enforced, took %s", time.Since(start))
	}
}

func TestWithTimeout_BackendIgnoringContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	stuck := Func(func(context.Context, string, []Message, int) (string, error) {
		<-release
		return "too late", nil
	})

	o := WithTimeout(stuck, 20*time.Millisecond)
	start := time.Now()
	out, err := o.Complete(context.Background(), "", nil, 10)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %q, %v", out, err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("timeout not enforced, took %s", time.Since(start))
	}
}

func TestWithTimeout_BackendPanics(t *testing.T) {
	boom := Func(func(context.Context, string, []Message, int) (string, error) {
		panic("boom")
	})
	if _, err := WithTimeout(boom, time.Second).Complete(context.Background(), "", nil, 10); err == nil {
		t.Fatal("expected error from panicking backend")
	}
}

func TestWithTimeout_ZeroIsPassthrough(t *testing.T) {
	base := Func(func(context.Context, string, []Message, int) (string, error) { return "ok", nil })
	o := WithTimeout(base, 0)
	out, err := o.Complete(context.Background(), "", nil, 10)
	if err != nil || out != "ok" {
		t.Fatalf("got %q, %v", out, err)
	}
}

func TestFallback(t *testing.T) {
	fail := Func(func(context.Context, string, []Message, int) (string, error) {
		return "", errors.New("primary down")
	})
	ok := Func(func(context.Context, string, []Message, int) (string, error) { return "answer", nil })

	tests := []struct {
		name      string
		primary   Oracle
		secondary Oracle
		want      string
		wantErr   bool
	}{
		{"primary succeeds", ok, fail, "answer", false},
		{"falls back", fail, ok, "answer", false},
		{"no secondary", fail, nil, "", true},
		{"both fail", fail, fail, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFallback(tt.primary, tt.secondary, discardLogger())
			got, err := f.Complete(context.Background(), "", nil, 10)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeObject(t *testing.T) {
	type payload struct {
		NextResponse string `json:"next_response"`
	}

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"plain object", `{"next_response":"hello"}`, "hello", false},
		{"padded object", "\n  {\"next_response\":\"hi\"}  \n", "hi", false},
		{"fenced", "```json\n{\"next_response\":\"fenced\"}\n```", "fenced", false},
		{"prose around", `Sure! Here: {"next_response":"beta"} hope that helps`, "beta", false},
		{"no braces", "just talking", "", true},
		{"broken json", `{"next_response": "oops"`, "", true},
		{"null literal", "null", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			err := DecodeObject(tt.raw, &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if p.NextResponse != tt.want {
				t.Errorf("got %q, want %q", p.NextResponse, tt.want)
			}
		})
	}
}
