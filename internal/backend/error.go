package backend

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error is a non-2xx response from the backend.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	// Detail is the backend's error message ("detail", "message" or "msg"), if any.
	Detail string
	Body   string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("HTTP %d from %s %s: %s", e.StatusCode, e.Method, e.Path, e.Detail)
	}
	return fmt.Sprintf("HTTP %d from %s %s: %s", e.StatusCode, e.Method, e.Path, e.Body)
}

// StatusCode returns the HTTP status of a backend error in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func newError(method, path string, status int, body []byte) *Error {
	return &Error{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Detail:     Detail(body),
		Body:       string(body),
	}
}

// Detail extracts the human-readable message from a backend error body.
// It understands {"detail": "..."}, {"message": "..."} and {"msg": "..."}.
func Detail(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "message", "msg"} {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
