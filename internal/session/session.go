// Package session owns the user's credential pair and recovers from expired
// access tokens: protected requests carry the access token, and a request
// rejected for a stale token is retried once after a token refresh. When
// recovery fails the session is logged out.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mtlprog/wealth/internal/backend"
	"github.com/mtlprog/wealth/internal/domain"
)

var (
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrNoRefresh      = errors.New("no refresh token")
	ErrEmptyToken     = errors.New("backend returned an empty token")
	ErrSessionExpired = errors.New("session expired, log in again")
)

// Session holds the credentials of one user against one backend.
type Session struct {
	base   *url.URL
	tokens TokenStore
	rule   AuthErrorRule
	// auth talks to auth/* routes without the recovering transport.
	auth *backend.Client

	mu       sync.Mutex
	onLogout []func()
}

// New creates a session for the backend at baseURL. Auth calls use
// transport directly (nil means http.DefaultTransport).
func New(baseURL string, tokens TokenStore, rule AuthErrorRule, transport http.RoundTripper, timeout time.Duration) (*Session, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parsing backend URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend URL %q must be absolute", baseURL)
	}
	return &Session{
		base:   base,
		tokens: tokens,
		rule:   rule,
		auth:   backend.NewClient(base.String(), transport, timeout, 0, 0),
	}, nil
}

func (s *Session) credentials() domain.Credentials {
	c, err := s.tokens.Load()
	if err != nil {
		slog.Warn("failed to load credentials", "error", err)
		return domain.Credentials{}
	}
	return c
}

// AccessToken returns the stored access token or "".
func (s *Session) AccessToken() string { return s.credentials().AccessToken }

// RefreshToken returns the stored refresh token or "".
func (s *Session) RefreshToken() string { return s.credentials().RefreshToken }

// IsLoggedIn reports whether an access token is stored.
func (s *Session) IsLoggedIn() bool { return s.AccessToken() != "" }

// OnLogout registers fn to run after every logout, forced or not.
func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

// IsProtected reports whether u addresses the backend outside of auth/*.
func (s *Session) IsProtected(u *url.URL) bool {
	if u == nil || !strings.EqualFold(u.Scheme, s.base.Scheme) || !strings.EqualFold(u.Host, s.base.Host) {
		return false
	}
	if !strings.HasPrefix(u.Path, s.base.Path) {
		return false
	}
	rel := strings.TrimPrefix(u.Path, s.base.Path)
	return rel != "auth" && !strings.HasPrefix(rel, "auth/")
}

// AttachCredential sets the bearer access token on req when one is stored
// and req targets a protected route. An explicit Authorization header wins.
func (s *Session) AttachCredential(req *http.Request) {
	if !s.IsProtected(req.URL) || req.Header.Get("Authorization") != "" {
		return
	}
	if token := s.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// Login exchanges email and password for a credential pair and stores it.
func (s *Session) Login(ctx context.Context, form domain.LoginUser) error {
	if err := domain.Validate(form); err != nil {
		return err
	}
	var creds domain.Credentials
	if err := s.auth.Do(ctx, backend.Request{Method: http.MethodPost, Path: "auth/login", Body: form}, &creds); err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	if creds.AccessToken == "" || creds.RefreshToken == "" {
		return fmt.Errorf("logging in: %w", ErrEmptyToken)
	}
	if err := s.tokens.Save(creds); err != nil {
		return err
	}
	slog.Info("logged in", "email", form.Email)
	return nil
}

// Register creates a user. It does not log in.
func (s *Session) Register(ctx context.Context, form domain.CreateUser) (*domain.User, error) {
	if err := domain.Validate(form); err != nil {
		return nil, err
	}
	var user domain.User
	if err := s.auth.Do(ctx, backend.Request{Method: http.MethodPost, Path: "auth/user", Body: form}, &user); err != nil {
		return nil, fmt.Errorf("registering: %w", err)
	}
	return &user, nil
}

// CurrentUser fetches the logged-in user. auth/* is outside the recovering
// transport, so an expired token surfaces as an error here.
func (s *Session) CurrentUser(ctx context.Context) (*domain.User, error) {
	token := s.AccessToken()
	if token == "" {
		return nil, ErrNotLoggedIn
	}
	var user domain.User
	req := backend.Request{
		Method: http.MethodGet,
		Path:   "auth/user",
		Header: http.Header{"Authorization": {"Bearer " + token}},
	}
	if err := s.auth.Do(ctx, req, &user); err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	return &user, nil
}

// Owner returns the email of the logged-in user. Unlike CurrentUser it
// refreshes a stale access token once before giving up.
func (s *Session) Owner(ctx context.Context) (string, error) {
	user, err := s.CurrentUser(ctx)
	var apiErr *backend.Error
	if err != nil && errors.As(err, &apiErr) && s.rule.Matches(apiErr.StatusCode, apiErr.Detail) {
		if rerr := s.Refresh(ctx); rerr != nil {
			return "", fmt.Errorf("resolving owner: %w", rerr)
		}
		user, err = s.CurrentUser(ctx)
	}
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

// Refresh obtains a new access token with the stored refresh token. The
// refresh token itself is kept.
func (s *Session) Refresh(ctx context.Context) error {
	refresh := s.RefreshToken()
	if refresh == "" {
		return ErrNoRefresh
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	req := backend.Request{
		Method: http.MethodPost,
		Path:   "auth/refresh",
		Header: http.Header{"Authorization": {"Bearer " + refresh}},
	}
	if err := s.auth.Do(ctx, req, &out); err != nil {
		return fmt.Errorf("refreshing access token: %w", err)
	}
	if out.AccessToken == "" {
		return fmt.Errorf("refreshing access token: %w", ErrEmptyToken)
	}

	ok, err := s.tokens.SetAccessToken(out.AccessToken)
	if err != nil {
		return err
	}
	if !ok {
		// Logged out while the refresh was in flight.
		return ErrSessionExpired
	}
	slog.Debug("access token refreshed")
	return nil
}

// Logout discards both tokens and notifies OnLogout listeners.
func (s *Session) Logout() error {
	err := s.tokens.Clear()

	s.mu.Lock()
	hooks := append([]func(){}, s.onLogout...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
	if err != nil {
		return fmt.Errorf("clearing credentials: %w", err)
	}
	return nil
}

// WrapError marks err with ErrSessionExpired when it is a stale-token
// rejection that ended the session. Other errors are returned unchanged.
func (s *Session) WrapError(err error) error {
	var apiErr *backend.Error
	if err == nil || !errors.As(err, &apiErr) || !s.rule.Matches(apiErr.StatusCode, apiErr.Detail) {
		return err
	}
	if s.IsLoggedIn() {
		return err
	}
	return fmt.Errorf("%w: %w", ErrSessionExpired, err)
}

func (s *Session) forceLogout(reason string, err error) {
	slog.Warn("session ended", "reason", reason, "error", err)
	if lerr := s.Logout(); lerr != nil {
		slog.Error("forced logout failed", "error", lerr)
	}
}
