// Package llm wraps the generative-language provider used to phrase replies.
package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var (
	// ErrRateLimited means the provider rejected the call for quota or rate reasons.
	ErrRateLimited = errors.New("llm rate limited")
	// ErrUnavailable means the provider cannot serve the call: unknown model,
	// outage, open circuit, or no credentials configured.
	ErrUnavailable = errors.New("llm unavailable")
	// ErrEmptyResponse means the provider answered without any text.
	ErrEmptyResponse = errors.New("llm returned no text")
)

// Classify maps a provider error onto ErrRateLimited or ErrUnavailable when
// it recognizes the failure, keeping the original error in the chain.
// Unrecognized errors are returned unchanged.
func Classify(err error) error {
	if err == nil || errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable) {
		return err
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		switch st.Code() {
		case codes.ResourceExhausted:
			return errors.Join(ErrRateLimited, err)
		case codes.NotFound, codes.Unavailable, codes.PermissionDenied, codes.Unauthenticated:
			return errors.Join(ErrUnavailable, err)
		}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return errors.Join(ErrRateLimited, err)
		case http.StatusNotFound, http.StatusServiceUnavailable, http.StatusForbidden, http.StatusUnauthorized:
			return errors.Join(ErrUnavailable, err)
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit"):
		return errors.Join(ErrRateLimited, err)
	case strings.Contains(msg, "404") || strings.Contains(msg, "not found") || strings.Contains(msg, "503"):
		return errors.Join(ErrUnavailable, err)
	}
	return err
}

// Disabled is the Generator used when no API key is configured.
type Disabled struct{}

func (Disabled) Generate(context.Context, string) (string, error) {
	return "", ErrUnavailable
}
