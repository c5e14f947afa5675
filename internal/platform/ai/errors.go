package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/carewise/hms/internal/platform/retry"
)

// QuotaError reports that the oracle rejected the call for quota reasons
// (HTTP 429 or a quota/limit message in the body). Retried with long backoff;
// once exhausted the governor is marked spent and the caller gets fallback
// text.
type QuotaError struct {
	StatusCode int
	Message    string
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("AI quota exceeded (status %d): %s. Wait for the daily "+
		"window to reset or upgrade the plan", e.StatusCode, e.Message)
}

// ConfigError reports missing or rejected credentials. Never retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return e.Reason }

// InvalidResponseError reports a response body missing expected fields.
// Never retried.
type InvalidResponseError struct {
	Reason string
}

func (e *InvalidResponseError) Error() string {
	return "invalid response format: " + e.Reason
}

// TransportError wraps network-level failures (timeouts, connection resets).
// Retryable.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "AI request failed: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// ServerError reports a non-2xx status that is not quota- or auth-related.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("AI service returned status %d: %s", e.StatusCode, e.Message)
}

func classifyHTTPError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}

	lower := strings.ToLower(msg)
	switch {
	case status == http.StatusTooManyRequests,
		strings.Contains(lower, "quota"),
		strings.Contains(lower, "limit"):
		return &QuotaError{StatusCode: status, Message: msg}
	case status == http.StatusUnauthorized:
		return &ConfigError{Reason: "AI API key was rejected (401). Check AI_API_KEY"}
	case status == http.StatusForbidden:
		return &ConfigError{Reason: "AI API key lacks permission (403). Check the key's plan and scopes"}
	default:
		return &ServerError{StatusCode: status, Message: msg}
	}
}

// IsQuota reports whether err is a quota-exhaustion signal from the oracle.
func IsQuota(err error) bool {
	var qe *QuotaError
	return errors.As(err, &qe)
}

// Classify maps oracle errors onto retry classes: quota, transport, and 5xx
// errors are retryable; config and malformed-response errors are terminal.
func Classify(err error) retry.Class {
	var ce *ConfigError
	var ire *InvalidResponseError
	if errors.As(err, &ce) || errors.As(err, &ire) {
		return retry.Terminal
	}
	var se *ServerError
	if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500 {
		return retry.Terminal
	}
	return retry.Retryable
}
