// Package session owns the bearer token lifecycle of the storefront: the
// startup verification of a persisted token, login, logout and the global
// reaction to a token the API rejects.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/utafrali/laptopstore/internal/domain"
	apperrors "github.com/utafrali/laptopstore/pkg/errors"
	"github.com/utafrali/laptopstore/pkg/validator"
)

// API is the subset of the store API the session needs.
type API interface {
	Login(ctx context.Context, username, password string) (string, error)
	VerifyUser(ctx context.Context, token string) (domain.User, error)
}

// Store persists the session across restarts.
type Store interface {
	LoadUser(ctx context.Context) *domain.User
	SaveUser(ctx context.Context, u *domain.User) error
	LoadToken(ctx context.Context) string
	SaveToken(ctx context.Context, token string) error
	ClearSession(ctx context.Context) error
}

// EventKind names a session transition.
type EventKind string

const (
	EventLogin   EventKind = "login"
	EventLogout  EventKind = "logout"
	EventExpired EventKind = "expired"
)

// Event is delivered to listeners after a transition has been applied.
type Event struct {
	Kind    EventKind
	Session domain.Session
	// Redirect is the route the view should navigate to, set for EventExpired.
	Redirect string
}

// Listener reacts to session events.
type Listener func(ctx context.Context, ev Event)

// Option configures a Manager.
type Option func(*Manager)

// WithLoginRoute sets the redirect carried by EventExpired.
func WithLoginRoute(route string) Option {
	return func(m *Manager) { m.loginRoute = route }
}

// WithClock overrides time.Now for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

type credentials struct {
	Identifier string `json:"username" validate:"required,max=254"`
	Secret     string `json:"password" validate:"required,max=1024"`
}

// Manager holds the single shared session.
type Manager struct {
	api        API
	store      Store
	logger     *slog.Logger
	loginRoute string
	now        func() time.Time

	mu   sync.RWMutex
	sess domain.Session
	// gen advances on every transition so a slow Initialize cannot
	// overwrite a login or logout that happened while it was verifying.
	gen uint64

	listenersMu sync.RWMutex
	listeners   []Listener
}

// NewManager creates an unauthenticated Manager. Call Initialize to restore a
// persisted session.
func NewManager(api API, store Store, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		api:        api,
		store:      store,
		logger:     logger,
		loginRoute: "/login",
		now:        time.Now,
		sess:       domain.Session{Status: domain.StatusUnauthenticated},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe registers l for every subsequent event.
func (m *Manager) Subscribe(l Listener) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Snapshot returns a copy of the current session.
func (m *Manager) Snapshot() domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySession(m.sess)
}

// Token returns the current bearer token, or "".
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sess.Token
}

// IsAuthenticated reports whether a verified user is signed in.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sess.Authenticated()
}

// Initialize restores the persisted session. A cached user with a live token
// is trusted without a network call; a bare token is verified against the
// API. Any failure leaves the session unauthenticated with nothing persisted.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	if m.sess.Status != domain.StatusUnauthenticated || m.sess.Token != "" {
		m.mu.Unlock()
		return nil
	}
	m.sess.Status = domain.StatusVerifying
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	token := m.store.LoadToken(ctx)
	user := m.store.LoadUser(ctx)

	if token == "" {
		if user != nil {
			m.logger.WarnContext(ctx, "discarding cached user without token")
		}
		m.abortInitialize(ctx, gen, user != nil)
		return nil
	}

	if tokenExpired(token, m.now()) {
		m.logger.InfoContext(ctx, "persisted token has expired")
		m.abortInitialize(ctx, gen, true)
		sessionClears.WithLabelValues("verify_failed").Inc()
		return apperrors.Unauthorized("session expired")
	}

	if user == nil {
		verified, err := m.api.VerifyUser(ctx, token)
		if err != nil {
			m.logger.WarnContext(ctx, "persisted token failed verification",
				slog.String("error", err.Error()),
			)
			m.abortInitialize(ctx, gen, true)
			sessionClears.WithLabelValues("verify_failed").Inc()
			return fmt.Errorf("verify persisted token: %w", err)
		}
		user = &verified
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return nil
	}
	if err := m.store.SaveUser(ctx, user); err != nil {
		m.logger.WarnContext(ctx, "failed to cache user", slog.String("error", err.Error()))
	}
	m.sess = domain.Session{Token: token, User: user, Status: domain.StatusAuthenticated}
	m.gen++
	m.logger.InfoContext(ctx, "session restored", slog.String("user_id", user.ID))
	return nil
}

// abortInitialize returns a verifying session to unauthenticated, removing
// persisted credentials when purge is set.
func (m *Manager) abortInitialize(ctx context.Context, gen uint64, purge bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return
	}
	if purge {
		if err := m.store.ClearSession(ctx); err != nil {
			m.logger.WarnContext(ctx, "failed to clear persisted session", slog.String("error", err.Error()))
		}
	}
	m.sess = domain.Session{Status: domain.StatusUnauthenticated}
	m.gen++
}

// Login exchanges credentials for a token, verifies it and persists both.
// Every rejection surfaces as the same InvalidCredentials error; network
// failures are returned as such. On failure the prior session is untouched.
func (m *Manager) Login(ctx context.Context, identifier, secret string) (domain.Session, error) {
	if err := validator.Validate(credentials{Identifier: identifier, Secret: secret}); err != nil {
		loginAttempts.WithLabelValues("invalid_input").Inc()
		return domain.Session{}, apperrors.InvalidCredentials()
	}

	token, err := m.api.Login(ctx, identifier, secret)
	if err != nil {
		return domain.Session{}, m.loginFailure(ctx, "login", err)
	}
	user, err := m.api.VerifyUser(ctx, token)
	if err != nil {
		return domain.Session{}, m.loginFailure(ctx, "verify", err)
	}

	m.mu.Lock()
	if err := m.store.SaveToken(ctx, token); err != nil {
		m.logger.WarnContext(ctx, "failed to persist token", slog.String("error", err.Error()))
	}
	if err := m.store.SaveUser(ctx, &user); err != nil {
		m.logger.WarnContext(ctx, "failed to cache user", slog.String("error", err.Error()))
	}
	m.sess = domain.Session{Token: token, User: &user, Status: domain.StatusAuthenticated}
	m.gen++
	snap := copySession(m.sess)
	m.mu.Unlock()

	loginAttempts.WithLabelValues("success").Inc()
	m.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))
	m.emit(ctx, Event{Kind: EventLogin, Session: snap})
	return snap, nil
}

// loginFailure reports a 4xx from either login stage as invalid credentials.
// Transport failures and server errors keep their own error.
func (m *Manager) loginFailure(ctx context.Context, stage string, err error) error {
	if errors.Is(err, apperrors.ErrNetwork) || errors.Is(err, apperrors.ErrServiceUnavail) {
		loginAttempts.WithLabelValues("unavailable").Inc()
		m.logger.WarnContext(ctx, "login failed: store api unreachable",
			slog.String("stage", stage),
			slog.String("error", err.Error()),
		)
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		loginAttempts.WithLabelValues("canceled").Inc()
		return err
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Status < 400 || appErr.Status >= 500 {
		loginAttempts.WithLabelValues("error").Inc()
		m.logger.ErrorContext(ctx, "login failed",
			slog.String("stage", stage),
			slog.String("error", err.Error()),
		)
		return err
	}
	loginAttempts.WithLabelValues("rejected").Inc()
	m.logger.InfoContext(ctx, "login rejected",
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	)
	return apperrors.InvalidCredentials()
}

// Logout clears the session locally. The API keeps no server-side session,
// so nothing is revoked remotely.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	was := m.sess
	m.sess = domain.Session{Status: domain.StatusUnauthenticated}
	m.gen++
	err := m.store.ClearSession(ctx)
	m.mu.Unlock()

	if err != nil {
		m.logger.WarnContext(ctx, "failed to clear persisted session", slog.String("error", err.Error()))
	}
	if was.Token == "" && was.User == nil {
		return nil
	}

	sessionClears.WithLabelValues("logout").Inc()
	m.logger.InfoContext(ctx, "user logged out", slog.String("user_id", was.UserID()))
	m.emit(ctx, Event{Kind: EventLogout, Session: domain.Session{Status: domain.StatusUnauthenticated}})
	return nil
}

// HandleUnauthorized clears the session if rejectedToken is still the
// current token and reports whether it did. Concurrent 401s for the same
// token therefore clear the session exactly once.
func (m *Manager) HandleUnauthorized(ctx context.Context, rejectedToken string) bool {
	m.mu.Lock()
	if rejectedToken == "" || m.sess.Token != rejectedToken {
		m.mu.Unlock()
		return false
	}
	userID := m.sess.UserID()
	m.sess = domain.Session{Status: domain.StatusUnauthenticated}
	m.gen++
	err := m.store.ClearSession(ctx)
	m.mu.Unlock()

	if err != nil {
		m.logger.WarnContext(ctx, "failed to clear persisted session", slog.String("error", err.Error()))
	}
	sessionClears.WithLabelValues("expired").Inc()
	m.logger.InfoContext(ctx, "session expired", slog.String("user_id", userID))
	m.emit(ctx, Event{
		Kind:     EventExpired,
		Session:  domain.Session{Status: domain.StatusUnauthenticated},
		Redirect: m.loginRoute,
	})
	return true
}

// LoginRoute is where the view is sent when a request needs a session.
func (m *Manager) LoginRoute() string {
	return m.loginRoute
}

func (m *Manager) emit(ctx context.Context, ev Event) {
	m.listenersMu.RLock()
	listeners := make([]Listener, len(m.listeners))
	copy(listeners, m.listeners)
	m.listenersMu.RUnlock()

	for _, l := range listeners {
		l(ctx, ev)
	}
}

func copySession(s domain.Session) domain.Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// tokenExpired reports whether token is a JWT whose exp claim has passed.
// Opaque tokens and tokens without exp are left to the API to judge.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
