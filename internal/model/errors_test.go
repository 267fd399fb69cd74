package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	var syntaxErr error
	if err := json.Unmarshal([]byte(`{broken`), &struct{}{}); err != nil {
		syntaxErr = err
	}

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"401", &HTTPError{StatusCode: 401}, KindAuth},
		{"403 wrapped", fmt.Errorf("linkedin: %w", &HTTPError{StatusCode: 403}), KindAuth},
		{"429", &HTTPError{StatusCode: 429}, KindRateLimited},
		{"503", &HTTPError{StatusCode: 503}, KindServer},
		{"404", &HTTPError{StatusCode: 404}, KindRequest},
		{"net timeout", fmt.Errorf("get: %w", timeoutErr{}), KindTimeout},
		{"connection refused", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, KindConnection},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"canceled", fmt.Errorf("fetch: %w", context.Canceled), KindCanceled},
		{"malformed json", fmt.Errorf("decode: %w", syntaxErr), KindRequest},
		{"provider error keeps kind", &ProviderError{Provider: "x", Kind: KindAuth}, KindAuth},
		{"plain", errors.New("boom"), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorKind_Transient(t *testing.T) {
	transient := []ErrorKind{KindTimeout, KindConnection, KindServer, KindRateLimited}
	for _, k := range transient {
		if !k.Transient() {
			t.Errorf("%v should be transient", k)
		}
	}
	for _, k := range []ErrorKind{KindAuth, KindRequest, KindCanceled, KindUnknown} {
		if k.Transient() {
			t.Errorf("%v should not be transient", k)
		}
	}
}

func TestProviderError_Message(t *testing.T) {
	err := &ProviderError{Provider: "linkedin", Kind: KindAuth, Attempts: 1, Err: &HTTPError{StatusCode: 401}}
	if got, want := err.Error(), "linkedin: authentication failed: HTTP 401"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Error("expected ProviderError to unwrap to HTTPError")
	}
}
