package gateway

import "fmt"

// Kind classifies a gateway failure for retry and propagation decisions.
type Kind string

const (
	// KindNetwork covers connect failures and resets at the transport level.
	KindNetwork Kind = "network"
	// KindTimeout covers per-request deadline expiry.
	KindTimeout Kind = "timeout"
	// KindAuth covers authentication failures that survived a token refresh.
	KindAuth Kind = "auth"
	// KindUnavailable covers 5xx and 429/408 responses.
	KindUnavailable Kind = "unavailable"
	// KindRejected covers non-retryable 4xx responses.
	KindRejected Kind = "rejected"
)

// Error is the classified failure surfaced by every gateway call.
type Error struct {
	Err        error
	Body       string
	Kind       Kind
	StatusCode int
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway %s (status %d): %s", e.Kind, e.StatusCode, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("gateway %s", e.Kind)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the retry/backoff protocol applies to this error.
// Network failures, timeouts, and 408/429/5xx responses are retryable; other
// 4xx responses and authentication failures are not.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindTimeout, KindUnavailable:
		return true
	default:
		return false
	}
}

// classifyStatus maps an HTTP response code to an error kind. 401 is handled
// separately by the token-refresh path before classification.
func classifyStatus(code int) Kind {
	switch {
	case code == 401 || code == 403:
		return KindAuth
	case code == 408 || code == 429 || code >= 500:
		return KindUnavailable
	default:
		return KindRejected
	}
}
