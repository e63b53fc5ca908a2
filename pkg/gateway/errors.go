package gateway

import "fmt"

// RPCError is a non-rate-limit request failure, surfaced to the user as a
// dismissible message. Rate-limit failures are returned as
// *wire.RateLimitError instead so presentation can offer the retry delay.
type RPCError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *RPCError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Endpoint, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d", e.Endpoint, e.StatusCode)
}
