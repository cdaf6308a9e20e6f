package ai

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrorKind classifies provider failures the way the client-facing error
// handler does, so retry decisions and user messages stay consistent.
type ErrorKind string

const (
	KindNetwork        ErrorKind = "NETWORK"
	KindValidation     ErrorKind = "VALIDATION"
	KindAuthentication ErrorKind = "AUTHENTICATION"
	KindAuthorization  ErrorKind = "AUTHORIZATION"
	KindNotFound       ErrorKind = "NOT_FOUND"
	KindConflict       ErrorKind = "CONFLICT"
	KindRateLimit      ErrorKind = "RATE_LIMIT"
	KindServer         ErrorKind = "SERVER"
	KindUnknown        ErrorKind = "UNKNOWN"
)

// ProviderError carries the classification of a failed provider call.
type ProviderError struct {
	Kind    ErrorKind
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Retryable reports whether a retry can reasonably succeed.
func (e *ProviderError) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindRateLimit, KindServer:
		return true
	}
	return false
}

// ClassifyStatus maps an HTTP status to an error kind.
func ClassifyStatus(status int) ErrorKind {
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusUnauthorized:
		return KindAuthentication
	case status == http.StatusForbidden:
		return KindAuthorization
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status >= 500:
		return KindServer
	case status == 0:
		return KindNetwork
	}
	return KindUnknown
}

func statusError(status int, message string) *ProviderError {
	return &ProviderError{Kind: ClassifyStatus(status), Status: status, Message: message}
}

func networkError(err error) *ProviderError {
	return &ProviderError{Kind: KindNetwork, Message: err.Error()}
}

const (
	retryAttempts    = 3
	retryBaseBackoff = time.Second
)

// WithRetry runs op up to three times, backing off 1s/2s/4s between
// attempts, but only while the failure is classified retryable.
func WithRetry(ctx context.Context, op func() error) error {
	backoff := retryBaseBackoff
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		var perr *ProviderError
		if !errors.As(lastErr, &perr) || !perr.Retryable() {
			return lastErr
		}
	}
	return lastErr
}
