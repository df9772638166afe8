package resilience

import (
	"fmt"
	"net/http"
)

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Upstream string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Upstream, e.Code)
}

// IsTransientStatus reports whether code signals an upstream problem that
// may clear on its own.
func IsTransientStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
