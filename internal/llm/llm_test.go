package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassify(t *testing.T) {
	plain := errors.New("connection reset")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"grpc resource exhausted", status.Error(codes.ResourceExhausted, "quota"), ErrRateLimited},
		{"grpc not found", status.Error(codes.NotFound, "models/x is not found"), ErrUnavailable},
		{"grpc unavailable", status.Error(codes.Unavailable, "backend down"), ErrUnavailable},
		{"googleapi 429", &googleapi.Error{Code: http.StatusTooManyRequests}, ErrRateLimited},
		{"googleapi 404", &googleapi.Error{Code: http.StatusNotFound}, ErrUnavailable},
		{"text quota", errors.New("googleapi: Error 429: Resource has been exhausted (e.g. check quota)."), ErrRateLimited},
		{"text not found", errors.New("model gemini-x not found"), ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.in)
			if !errors.Is(got, tt.want) {
				t.Fatalf("Classify(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if !errors.Is(got, tt.in) {
				t.Fatalf("original error lost from chain: %v", got)
			}
		})
	}

	if got := Classify(plain); got != plain {
		t.Fatalf("unrecognized error should pass through, got %v", got)
	}
	if Classify(nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}

func TestDisabled(t *testing.T) {
	if _, err := (Disabled{}).Generate(context.Background(), "hi"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestNewGemini_RequiresKey(t *testing.T) {
	if _, err := NewGemini(context.Background(), "", "", 0); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable without a key, got %v", err)
	}
}

type stubGenerator struct {
	calls int
	err   error
	text  string
}

func (s *stubGenerator) Generate(context.Context, string) (string, error) {
	s.calls++
	return s.text, s.err
}

func TestBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	stub := &stubGenerator{err: errors.New("boom")}
	b := NewBreaker(stub, BreakerSettings{ConsecutiveFailures: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		if _, err := b.Generate(context.Background(), "p"); err == nil || errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d: expected the provider error, got %v", i, err)
		}
	}

	_, err := b.Generate(context.Background(), "p")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected open circuit to report ErrUnavailable, got %v", err)
	}
	if stub.calls != 2 {
		t.Fatalf("open circuit must not reach the provider, calls=%d", stub.calls)
	}
	if b.State() != "open" {
		t.Fatalf("expected open state, got %s", b.State())
	}
}

func TestBreaker_PassesThroughSuccess(t *testing.T) {
	b := NewBreaker(&stubGenerator{text: "hello"}, BreakerSettings{})
	got, err := b.Generate(context.Background(), "p")
	if err != nil || got != "hello" {
		t.Fatalf("got %q, %v", got, err)
	}
}
