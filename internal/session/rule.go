package session

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"slices"

	"github.com/mtlprog/wealth/internal/backend"
)

// DefaultAuthErrorStatuses and DefaultAuthErrorDetails describe how the
// backend reports an expired or invalid access token.
var (
	DefaultAuthErrorStatuses = []int{http.StatusUnprocessableEntity}
	DefaultAuthErrorDetails  = []string{"Signature has expired", "Signature verification failed"}
)

const maxInspectedBody = 1 << 20

// AuthErrorRule recognizes responses caused by a stale access token: the
// status must be one of Statuses and, when Details is non-empty, the body's
// "detail" (or "message", "msg") must be one of Details.
type AuthErrorRule struct {
	Statuses []int
	Details  []string
}

// DefaultAuthErrorRule matches 422 with a JWT signature detail.
func DefaultAuthErrorRule() AuthErrorRule {
	return AuthErrorRule{
		Statuses: slices.Clone(DefaultAuthErrorStatuses),
		Details:  slices.Clone(DefaultAuthErrorDetails),
	}
}

// Matches reports whether status and detail describe a stale access token.
func (r AuthErrorRule) Matches(status int, detail string) bool {
	if !slices.Contains(r.Statuses, status) {
		return false
	}
	return len(r.Details) == 0 || slices.Contains(r.Details, detail)
}

// MatchResponse inspects resp. The body is read and replaced with an
// equivalent reader, so resp stays usable by the caller.
func (r AuthErrorRule) MatchResponse(resp *http.Response) (bool, error) {
	if resp == nil || !slices.Contains(r.Statuses, resp.StatusCode) || resp.Body == nil {
		return false, nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxInspectedBody))
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("reading error response: %w", err)
	}
	return r.Matches(resp.StatusCode, backend.Detail(body)), nil
}
