package schema

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Gateway failure classes. Every *GatewayError matches exactly one of these
// through errors.Is.
var (
	ErrGatewayTimeout     = errors.New("model gateway timed out")
	ErrGatewayAuth        = errors.New("model gateway rejected the credential")
	ErrGatewayQuota       = errors.New("model gateway quota exceeded")
	ErrGatewayUnavailable = errors.New("model gateway unavailable")
)

// GatewayError is a failed round-trip to a model gateway.
type GatewayError struct {
	Provider   string
	StatusCode int // 0 when no HTTP response was received
	Kind       error
	Err        error
}

func (e *GatewayError) Error() string {
	msg := e.Provider + ": " + e.Kind.Error()
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GatewayError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindForStatus maps an HTTP status to a gateway failure class.
func KindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrGatewayAuth
	case http.StatusTooManyRequests:
		return ErrGatewayQuota
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ErrGatewayTimeout
	}
	return ErrGatewayUnavailable
}

// NewGatewayError classifies err. status is the HTTP status when known, or 0.
// A deadline exceeded anywhere in err's chain is a timeout regardless of
// status.
func NewGatewayError(provider string, status int, err error) *GatewayError {
	var existing *GatewayError
	if errors.As(err, &existing) {
		return existing
	}
	kind := KindForStatus(status)
	if status == 0 {
		kind = ErrGatewayUnavailable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		kind = ErrGatewayTimeout
	}
	return &GatewayError{Provider: provider, StatusCode: status, Kind: kind, Err: err}
}
