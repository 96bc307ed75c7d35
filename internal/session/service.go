// Package session owns the authenticated-user lifecycle: an explicit service
// with init, login and logout operations instead of an ambient singleton.
// State is observable through OnChange callbacks.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vetcare/portal/internal/clinic"
	"github.com/vetcare/portal/internal/vetapi"
	"github.com/vetcare/portal/pkg/logging"
)

// Service holds the current user and authentication state, derived from the
// stored token validated against the backend's who-am-I endpoint.
type Service struct {
	store  TokenStore
	api    *vetapi.Client
	logger *logging.Logger
	now    func() time.Time

	mu       sync.Mutex
	user     *clinic.User
	onChange []func(*clinic.User)
}

// NewService wires the session service. The API client must already read its
// token through the same store (see TokenSourceFromStore).
func NewService(store TokenStore, api *vetapi.Client, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:  store,
		api:    api,
		logger: logger,
		now:    time.Now,
	}
}

// Init restores the session at startup: if a token is stored and not locally
// expired, validate it against /users/me. Any failure clears the token and
// leaves the service signed out; init itself never fails on auth problems.
func (s *Service) Init(ctx context.Context) error {
	token, err := s.store.Token()
	if err != nil {
		return err
	}
	if token == "" {
		s.setUser(nil)
		return nil
	}

	if s.tokenExpired(token) {
		s.logger.Info("stored token expired, signing out")
		_ = s.store.Clear()
		s.setUser(nil)
		return nil
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		s.logger.Warn("auth check failed, clearing stored token", "error", err)
		_ = s.store.Clear()
		s.setUser(nil)
		return nil
	}
	s.setUser(user)
	return nil
}

// Login exchanges credentials for a token, persists it and loads the user.
func (s *Service) Login(ctx context.Context, email, password string) (*clinic.User, error) {
	token, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(token.AccessToken); err != nil {
		return nil, err
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		_ = s.store.Clear()
		return nil, fmt.Errorf("session: load user after login: %w", err)
	}
	s.setUser(user)
	return user, nil
}

// Logout clears the stored token and the in-memory user.
func (s *Service) Logout() error {
	err := s.store.Clear()
	s.setUser(nil)
	return err
}

// CurrentUser returns the signed-in user, or nil.
func (s *Service) CurrentUser() *clinic.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// IsAuthenticated reports whether a user is signed in.
func (s *Service) IsAuthenticated() bool {
	return s.CurrentUser() != nil
}

// OnChange registers an observer invoked after init, login and logout with
// the new user (nil when signed out).
func (s *Service) OnChange(fn func(*clinic.User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

func (s *Service) setUser(user *clinic.User) {
	s.mu.Lock()
	s.user = user
	observers := make([]func(*clinic.User), len(s.onChange))
	copy(observers, s.onChange)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(user)
	}
}

// tokenExpired peeks at the token's exp claim without verifying the
// signature. Only the backend can truly validate the token; this avoids a
// doomed round trip when it has clearly lapsed.
func (s *Service) tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(s.now())
}
