package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

// httpStatusError is implemented by the API client errors that carry a
// response status.
type httpStatusError interface {
	HTTPStatus() int
}

// IsTransient reports whether err looks like a temporary condition (timeout,
// dropped connection, DNS hiccup, throttled or failing upstream) rather than
// a permanent rejection. It only classifies; nothing in this module retries.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var hs httpStatusError
	if errors.As(err, &hs) {
		return IsTransientHTTPStatus(hs.HTTPStatus())
	}

	if errors.Is(err, context.DeadlineExceeded) {
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

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsTransientHTTPStatus reports whether an HTTP status indicates a temporary
// server-side condition.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
