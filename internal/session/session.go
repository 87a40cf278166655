// Package session owns the authenticated session: the bearer token, the
// signed-in user and the claims read from the token.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"second-brain-client/internal/entity"
	"second-brain-client/internal/pkg/logger"
	"second-brain-client/internal/repository/contract"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenStorageKey = "authToken"
	UserStorageKey  = "user"

	moduleName = "Session"
)

var ErrEmptyToken = errors.New("token is empty")

// Claims are read from the token payload without verifying its signature;
// the backend stays the authority on validity.
type Claims struct {
	UserId    string     `json:"user_id,omitempty"`
	Email     string     `json:"email,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (c *Claims) Expired(now time.Time) bool {
	return c != nil && c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// ParseClaims reads user_id (or sub), email and exp from a JWT. Opaque
// tokens yield empty claims and no error.
func ParseClaims(token string) (*Claims, error) {
	if strings.Count(token, ".") != 2 {
		return &Claims{}, nil
	}

	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mapClaims); err != nil {
		return nil, fmt.Errorf("parse token claims: %w", err)
	}

	claims := &Claims{}
	if id, ok := mapClaims["user_id"].(string); ok && id != "" {
		claims.UserId = id
	} else if sub, err := mapClaims.GetSubject(); err == nil {
		claims.UserId = sub
	}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		claims.ExpiresAt = &t
	}
	return claims, nil
}

type Session struct {
	Token  string
	User   *entity.User
	Claims *Claims
}

// UserKey scopes durable client state to the signed-in user.
func (s *Session) UserKey() string {
	if s == nil {
		return entity.AnonymousUserId
	}
	if s.User != nil && s.User.Id != "" {
		return s.User.Id
	}
	if s.Claims != nil && s.Claims.UserId != "" {
		return s.Claims.UserId
	}
	return entity.AnonymousUserId
}

type Manager struct {
	mu        sync.RWMutex
	storage   contract.StorageRepository
	logger    logger.ILogger
	current   *Session
	listeners []func(*Session)
}

func NewManager(storage contract.StorageRepository, log logger.ILogger) *Manager {
	return &Manager{
		storage: storage,
		logger:  log,
	}
}

// OnChange registers fn to run after every Start, End or Restore. fn
// receives nil when the session ended.
func (m *Manager) OnChange(fn func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Restore loads a previously persisted session. It returns nil when none
// is stored.
func (m *Manager) Restore(ctx context.Context) (*Session, error) {
	raw, err := m.storage.Load(ctx, TokenStorageKey)
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return nil, nil
	}

	var user entity.User
	found, err := contract.LoadJSON(ctx, m.storage, UserStorageKey, &user)
	if err != nil {
		m.logger.Warn(moduleName, "Stored user is unreadable, ignoring it", map[string]interface{}{"error": err.Error()})
		found = false
	}

	claims, err := ParseClaims(token)
	if err != nil {
		m.logger.Warn(moduleName, "Stored token has unreadable claims", map[string]interface{}{"error": err.Error()})
		claims = &Claims{}
	}

	s := &Session{Token: token, Claims: claims}
	if found {
		s.User = &user
	}

	m.mu.Lock()
	m.current = s
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	notify(listeners, s)
	return s, nil
}

// Start persists and activates a session for token.
func (m *Manager) Start(ctx context.Context, token string, user *entity.User) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrEmptyToken
	}
	claims, err := ParseClaims(token)
	if err != nil {
		return nil, err
	}
	if user == nil && claims.UserId != "" {
		user = &entity.User{Id: claims.UserId, Email: claims.Email}
	}

	s := &Session{Token: token, User: user, Claims: claims}

	m.mu.Lock()
	if err := m.storage.Save(ctx, TokenStorageKey, []byte(token)); err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("save token: %w", err)
	}
	if user != nil {
		if err := contract.SaveJSON(ctx, m.storage, UserStorageKey, user); err != nil {
			m.mu.Unlock()
			return nil, fmt.Errorf("save user: %w", err)
		}
	} else if err := m.storage.Remove(ctx, UserStorageKey); err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("remove user: %w", err)
	}
	m.current = s
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	m.logger.Info(moduleName, "Session started", map[string]interface{}{"user": s.UserKey()})
	notify(listeners, s)
	return s, nil
}

// UpdateUser replaces the stored user of the active session.
func (m *Manager) UpdateUser(ctx context.Context, user *entity.User) error {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return nil
	}
	if err := contract.SaveJSON(ctx, m.storage, UserStorageKey, user); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("save user: %w", err)
	}
	s := &Session{Token: m.current.Token, User: user, Claims: m.current.Claims}
	m.current = s
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	notify(listeners, s)
	return nil
}

// End drops the session from memory and storage.
func (m *Manager) End(ctx context.Context) error {
	m.mu.Lock()
	errToken := m.storage.Remove(ctx, TokenStorageKey)
	errUser := m.storage.Remove(ctx, UserStorageKey)
	hadSession := m.current != nil
	m.current = nil
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	if hadSession {
		m.logger.Info(moduleName, "Session ended", nil)
	}
	notify(listeners, nil)
	return errors.Join(errToken, errUser)
}

func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Manager) IsAuthenticated() bool {
	return m.Current() != nil
}

func (m *Manager) UserKey() string {
	return m.Current().UserKey()
}

func (m *Manager) Token() string {
	if s := m.Current(); s != nil {
		return s.Token
	}
	return ""
}

// Invalidate is called when the backend rejects the token.
func (m *Manager) Invalidate(ctx context.Context) {
	if err := m.End(ctx); err != nil {
		m.logger.Error(moduleName, "Failed to clear credentials", map[string]interface{}{"error": err})
	}
}

func (m *Manager) snapshotListeners() []func(*Session) {
	out := make([]func(*Session), len(m.listeners))
	copy(out, m.listeners)
	return out
}

func notify(listeners []func(*Session), s *Session) {
	for _, fn := range listeners {
		fn(s)
	}
}
