package api

import (
	"encoding/json"
	"fmt"
)

// The client sorts every failure into one of four buckets:
//
//   - ValidationError: rejected locally before any network call
//   - APIError: 4xx from the backend, recoverable, message shown to the user
//   - ConnectivityError: 5xx or transport failure, generic message, no detail
//   - cart.ErrMalformed (wrapped): response failed structural normalization
//
// None of these are fatal; the worst outcome upstream is an empty or stale
// cart view.

// ValidationError reports a local precondition failure. No request was made.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// APIError is a recoverable application error reported by the backend with a
// status in the 400 range. Message is extracted from the response body when
// the backend supplied one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request rejected with status %d", e.Status)
}

// ConnectivityError covers 5xx responses and transport-level failures. The
// backend message, if any, is deliberately not surfaced; the user sees a
// generic connectivity notice.
type ConnectivityError struct {
	Status int // 0 for transport failures
	Err    error
}

func (e *ConnectivityError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("storefront unavailable (status %d)", e.Status)
	}
	return fmt.Sprintf("storefront unreachable: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// errorBody is the union of error envelopes the backend emits.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Details string `json:"details"`
}

// extractMessage pulls a user-facing message out of an error response body.
// Field precedence: message, then error, then details - first present wins.
func extractMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	switch {
	case eb.Message != "":
		return eb.Message
	case eb.Error != "":
		return eb.Error
	default:
		return eb.Details
	}
}
