package pharmacyapi

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/sangkips/pharmadesk/internal/domain/repository"
	"github.com/sangkips/pharmadesk/pkg/apperror"
	"github.com/sangkips/pharmadesk/pkg/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// SessionStatus is what the desk reports about the current API session
type SessionStatus struct {
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Subject   string     `json:"subject,omitempty"`
}

// Session holds the bearer token used for every pharmacy API call.
// It is an oauth2.TokenSource so the client can wrap it in oauth2.Transport.
type Session struct {
	name   string
	store  repository.TokenRepository
	logger logrus.FieldLogger
	now    func() time.Time

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	subject   string
}

// NewSession creates an empty session. store may be nil, in which case the
// token lives only in memory.
func NewSession(name string, store repository.TokenRepository, logger logrus.FieldLogger) *Session {
	return &Session{
		name:   name,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Init restores a persisted token. An expired token is discarded.
func (s *Session) Init(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	stored, err := s.store.Load(ctx, s.name)
	if err != nil {
		return err
	}
	if stored == nil || stored.Token == "" {
		return nil
	}
	if utils.IsExpired(stored.Token, s.now()) {
		s.logger.WithField("session", s.name).Info("discarding expired persisted token")
		return s.store.Delete(ctx, s.name)
	}
	s.install(stored.Token)
	return nil
}

// Set installs a new token and persists it
func (s *Session) Set(ctx context.Context, token string) error {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return apperror.NewValidationError("Token is required",
			apperror.FieldError{Field: "token", Message: "required"})
	}
	if utils.IsExpired(token, s.now()) {
		return apperror.ErrSessionExpired
	}
	if s.store != nil {
		if err := s.store.Save(ctx, &entity.StoredToken{Name: s.name, Token: token}); err != nil {
			return err
		}
	}
	s.install(token)
	return nil
}

// Clear forgets the token in memory and in the store
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token, s.expiresAt, s.subject = "", time.Time{}, ""
	s.mu.Unlock()

	if s.store != nil {
		return s.store.Delete(ctx, s.name)
	}
	return nil
}

// Token implements oauth2.TokenSource
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	token, exp := s.token, s.expiresAt
	s.mu.RUnlock()

	if token == "" {
		return nil, apperror.ErrNoSession
	}
	if !exp.IsZero() && !s.now().Before(exp) {
		return nil, apperror.ErrSessionExpired
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer", Expiry: exp}, nil
}

// Status reports whether a usable token is installed
func (s *Session) Status() SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := SessionStatus{Subject: s.subject}
	if s.token == "" {
		return st
	}
	if !s.expiresAt.IsZero() {
		exp := s.expiresAt
		st.ExpiresAt = &exp
		st.Active = s.now().Before(exp)
		return st
	}
	st.Active = true
	return st
}

func (s *Session) install(token string) {
	var exp time.Time
	var subject string
	if claims, err := utils.InspectToken(token); err == nil {
		if claims.ExpiresAt != nil {
			exp = claims.ExpiresAt.Time
		}
		subject = claims.Name
		if subject == "" {
			subject = claims.Subject
		}
	}

	s.mu.Lock()
	s.token, s.expiresAt, s.subject = token, exp, subject
	s.mu.Unlock()
}
