package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies provider failures
type ErrorKind string

const (
	KindConfig       ErrorKind = "config"
	KindTimeout      ErrorKind = "timeout"
	KindUnauthorized ErrorKind = "unauthorized"
	KindRateLimited  ErrorKind = "rate_limited"
	KindForbidden    ErrorKind = "forbidden"
	KindConnection   ErrorKind = "connection"
	KindUpstream     ErrorKind = "upstream"
	KindDecode       ErrorKind = "decode"
)

// ProviderError is returned by every Provider method on failure
type ProviderError struct {
	Provider   string
	Op         string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: %s (status %d): %v", e.Provider, e.Op, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Provider, e.Op, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewConfigError reports a missing or invalid provider setting
func NewConfigError(provider, op, msg string) *ProviderError {
	return &ProviderError{Provider: provider, Op: op, Kind: KindConfig, Err: errors.New(msg)}
}

// NewStatusError classifies a non-2xx vendor response
func NewStatusError(provider, op string, status int, body string) *ProviderError {
	kind := KindUpstream
	switch status {
	case http.StatusUnauthorized:
		kind = KindUnauthorized
	case http.StatusForbidden:
		kind = KindForbidden
	case http.StatusTooManyRequests:
		kind = KindRateLimited
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		kind = KindTimeout
	}
	return &ProviderError{
		Provider:   provider,
		Op:         op,
		Kind:       kind,
		StatusCode: status,
		Err:        fmt.Errorf("API request failed with status %d: %s", status, body),
	}
}

// NewTransportError classifies a failure to reach the vendor
func NewTransportError(provider, op string, err error) *ProviderError {
	kind := KindConnection
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &ProviderError{Provider: provider, Op: op, Kind: kind, Err: err}
}

// NewDecodeError reports an unreadable vendor payload
func NewDecodeError(provider, op string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Op: op, Kind: KindDecode, Err: err}
}

// KindOf returns the kind of a provider error, or "" for other errors
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
