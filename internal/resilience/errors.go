package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ErrorClass buckets an error by how callers should react to it.
type ErrorClass int

const (
	// ClassUnknown errors are not retried.
	ClassUnknown ErrorClass = iota
	// ClassNetwork covers timeouts, resets and DNS failures. Retryable.
	ClassNetwork
	// ClassServer covers 5xx responses. Retryable.
	ClassServer
	// ClassRateLimit covers 429 responses. Retryable.
	ClassRateLimit
	// ClassClient covers 4xx responses and validation failures. Never retried.
	ClassClient
	// ClassCancelled means the caller gave up. Never retried.
	ClassCancelled
)

func (c ErrorClass) String() string {
	switch c {
	case ClassNetwork:
		return "network"
	case ClassServer:
		return "server"
	case ClassRateLimit:
		return "rate_limit"
	case ClassClient:
		return "client"
	case ClassCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Retryable reports whether errors of this class are safe to retry.
func (c ErrorClass) Retryable() bool {
	return c == ClassNetwork || c == ClassServer || c == ClassRateLimit
}

// TransientError wraps an error that is safe to retry (e.g., 429, 5xx, network timeout).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// StatusError is a non-200 response from an upstream API.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Service, e.StatusCode, e.Body)
}

// ValidationError marks a request the upstream rejected as malformed, or a
// response that failed local validation.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Classify maps err to an ErrorClass. Cancellation wins over everything else
// so a cancelled search never turns into a retry.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassUnknown
	}
	if errors.Is(err, context.Canceled) {
		return ClassCancelled
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ClassClient
	}

	var se *StatusError
	if errors.As(err, &se) {
		return classifyStatus(se.StatusCode)
	}

	var te *TransientError
	if errors.As(err, &te) {
		if te.StatusCode > 0 {
			if c := classifyStatus(te.StatusCode); c.Retryable() {
				return c
			}
		}
		return ClassNetwork
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ClassNetwork
	}
	if IsTransient(err) {
		return ClassNetwork
	}
	return ClassUnknown
}

func classifyStatus(code int) ErrorClass {
	switch {
	case code == 429:
		return ClassRateLimit
	case code == 408:
		return ClassNetwork
	case code >= 500:
		return ClassServer
	case code >= 400:
		return ClassClient
	default:
		return ClassUnknown
	}
}

// IsRetryable is the default retry predicate: Classify(err).Retryable().
func IsRetryable(err error) bool {
	return Classify(err).Retryable()
}

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError, or if it matches common transient error patterns (network
// timeouts, connection resets, DNS failures).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	return classifyStatus(statusCode).Retryable()
}
