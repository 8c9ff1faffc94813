package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned %s", e.Status)
	}
	return fmt.Sprintf("upstream returned %s: %s", e.Status, e.Body)
}

// outcome labels an attempt for logs and metrics. The retry policy treats every
// failure the same way.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	var se *StatusError
	if !errors.As(err, &se) {
		return "transport_error"
	}
	switch {
	case se.Code == http.StatusTooManyRequests:
		return "rate_limited"
	case se.Code >= 500:
		return "server_error"
	default:
		return "client_error"
	}
}
