package wire

import (
	"encoding/json"
	"fmt"
)

// RateLimitError is the structured out-of-requests condition. It is
// surfaced as a distinct modal-worthy state carrying the retry delay, never
// flattened into a generic error string.
type RateLimitError struct {
	Message           string `json:"message"`
	RetryAfterSeconds int    `json:"retry_after_seconds"`
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("out of requests, retry after %ds", e.RetryAfterSeconds)
}

// ParseRateLimit inspects an error payload for the rate-limit shape
// {error_type: "OutOfRequests", retry_after_seconds}. It reports false for
// any other payload, including non-JSON bodies.
func ParseRateLimit(raw []byte) (*RateLimitError, bool) {
	var body struct {
		ErrorType         string `json:"error_type"`
		Message           string `json:"message"`
		RetryAfterSeconds int    `json:"retry_after_seconds"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, false
	}
	if body.ErrorType != "OutOfRequests" {
		return nil, false
	}
	return &RateLimitError{
		Message:           body.Message,
		RetryAfterSeconds: body.RetryAfterSeconds,
	}, true
}
