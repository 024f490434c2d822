package resilience

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// StatusError is a non-2xx response from the analysis backend.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s: status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.StatusCode, body)
}

// Transient reports whether the status is worth retrying.
func (e *StatusError) Transient() bool {
	return IsTransientHTTPStatus(e.StatusCode)
}

// IsTransient reports whether err is safe to retry: a transient StatusError,
// a network timeout, or a reset/refused connection.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return se.Transient()
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

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"i/o timeout",
		"server closed idle connection",
		"tls handshake timeout",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsTransientHTTPStatus reports whether a status code signals a retryable
// server-side condition.
func IsTransientHTTPStatus(code int) bool {
	switch code {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// IsUnprocessed reports whether err shows the request never reached the
// backend's handler: a refused connection, 429 or 503. It is the retry test
// for requests that must not run twice.
func IsUnprocessed(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == 429 || se.StatusCode == 503
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
