package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
)

type retriedKey struct{}

// WithRetried marks ctx as belonging to a request that was already retried
// after a refresh. Such requests are never recovered again.
func WithRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey{}, true)
}

// Retried reports whether ctx was marked by WithRetried.
func Retried(ctx context.Context) bool {
	v, _ := ctx.Value(retriedKey{}).(bool)
	return v
}

// Transport returns a RoundTripper that attaches the access token to
// protected requests and recovers once from a stale-token rejection.
// A nil base means http.DefaultTransport.
func (s *Session) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{session: s, base: base}
}

type transport struct {
	session *Session
	base    http.RoundTripper
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.session.IsProtected(req.URL) {
		return t.base.RoundTrip(req)
	}

	out := req.Clone(req.Context())
	t.session.AttachCredential(out)
	resp, err := t.base.RoundTrip(out)
	if err != nil || Retried(req.Context()) {
		return resp, err
	}

	stale, err := t.session.rule.MatchResponse(resp)
	if err != nil {
		return nil, err
	}
	if !stale {
		return resp, nil
	}
	return t.recover(req, resp)
}

// recover refreshes the access token and replays req once. failed is
// returned untouched whenever recovery is impossible.
func (t *transport) recover(req *http.Request, failed *http.Response) (*http.Response, error) {
	ctx := req.Context()
	s := t.session

	if s.RefreshToken() == "" {
		return failed, nil
	}
	if err := s.Refresh(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrSessionExpired) {
			return failed, nil
		}
		s.forceLogout("refresh failed", err)
		return failed, nil
	}

	retry := req.Clone(WithRetried(ctx))
	if req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			slog.Warn("request body cannot be replayed after refresh", "method", req.Method, "path", req.URL.Path)
			return failed, nil
		}
		body, err := req.GetBody()
		if err != nil {
			return failed, nil
		}
		retry.Body = body
	}
	retry.Header.Del("Authorization")
	s.AttachCredential(retry)

	io.Copy(io.Discard, failed.Body)
	failed.Body.Close()

	resp, err := t.base.RoundTrip(retry)
	if err != nil {
		return nil, err
	}
	stale, err := s.rule.MatchResponse(resp)
	if err != nil {
		return nil, err
	}
	if stale {
		s.forceLogout("retried request rejected", errors.New(resp.Status))
	}
	return resp, nil
}
