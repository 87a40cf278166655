package service

import (
	"context"
	"errors"
	"fmt"

	"second-brain-client/internal/dto"
	"second-brain-client/internal/mapper"
	"second-brain-client/internal/pkg/logger"
	"second-brain-client/internal/session"
)

var ErrInvalidToken = errors.New("token was rejected by the backend")

type AuthBackend interface {
	ValidateToken(ctx context.Context) (*dto.ValidateTokenResponse, error)
	GoogleLogin(ctx context.Context, idToken, clientId string) (*dto.LoginResponse, error)
	DevLogin(ctx context.Context, email, name string) (*dto.LoginResponse, error)
	GetProfile(ctx context.Context) (*dto.ProfileResponse, error)
	Logout(ctx context.Context) error
}

type IAuthService interface {
	// Restore brings back the stored session and checks it with the
	// backend. A rejected token ends the session; an unreachable backend
	// keeps it.
	Restore(ctx context.Context) (*session.Session, error)
	LoginWithToken(ctx context.Context, token string) (*session.Session, error)
	LoginWithGoogle(ctx context.Context, idToken string) (*session.Session, error)
	DevLogin(ctx context.Context, email, name string) (*session.Session, error)
	Profile(ctx context.Context) (*dto.UserDTO, error)
	Logout(ctx context.Context) error
}

type authService struct {
	backend        AuthBackend
	sessions       *session.Manager
	googleClientId string
	logger         logger.ILogger
	mapper         *mapper.UserMapper
}

func NewAuthService(backend AuthBackend, sessions *session.Manager, googleClientId string, log logger.ILogger) IAuthService {
	return &authService{
		backend:        backend,
		sessions:       sessions,
		googleClientId: googleClientId,
		logger:         log,
		mapper:         mapper.NewUserMapper(),
	}
}

func (s *authService) Restore(ctx context.Context) (*session.Session, error) {
	current, err := s.sessions.Restore(ctx)
	if err != nil || current == nil {
		return current, err
	}
	return s.validate(ctx)
}

func (s *authService) validate(ctx context.Context) (*session.Session, error) {
	resp, err := s.backend.ValidateToken(ctx)
	if err != nil {
		s.logger.Warn("AuthService", "Token validation unavailable, keeping stored session", map[string]interface{}{"error": err.Error()})
		return s.sessions.Current(), nil
	}
	if !resp.Valid {
		s.logger.Info("AuthService", "Stored token rejected", map[string]interface{}{"message": resp.Message})
		s.sessions.Invalidate(ctx)
		return nil, nil
	}
	if resp.User != nil {
		if err := s.sessions.UpdateUser(ctx, s.mapper.ToEntity(resp.User)); err != nil {
			return nil, err
		}
	}
	return s.sessions.Current(), nil
}

func (s *authService) LoginWithToken(ctx context.Context, token string) (*session.Session, error) {
	if _, err := s.sessions.Start(ctx, token, nil); err != nil {
		return nil, err
	}
	current, err := s.validate(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrInvalidToken
	}
	return current, nil
}

func (s *authService) startFromLogin(ctx context.Context, resp *dto.LoginResponse) (*session.Session, error) {
	if resp.Token == "" {
		return nil, fmt.Errorf("login response carried no token")
	}
	user := s.mapper.ToEntity(&resp.User)
	if user.Id == "" {
		user = nil
	}
	return s.sessions.Start(ctx, resp.Token, user)
}

func (s *authService) LoginWithGoogle(ctx context.Context, idToken string) (*session.Session, error) {
	resp, err := s.backend.GoogleLogin(ctx, idToken, s.googleClientId)
	if err != nil {
		s.logger.Error("AuthService", "Google login failed", map[string]interface{}{"error": err})
		return nil, err
	}
	return s.startFromLogin(ctx, resp)
}

func (s *authService) DevLogin(ctx context.Context, email, name string) (*session.Session, error) {
	resp, err := s.backend.DevLogin(ctx, email, name)
	if err != nil {
		return nil, err
	}
	return s.startFromLogin(ctx, resp)
}

func (s *authService) Profile(ctx context.Context) (*dto.UserDTO, error) {
	resp, err := s.backend.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.UpdateUser(ctx, s.mapper.ToEntity(&resp.User)); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Logout always clears local credentials, even when the backend call
// fails.
func (s *authService) Logout(ctx context.Context) error {
	err := s.backend.Logout(ctx)
	if endErr := s.sessions.End(ctx); endErr != nil {
		return endErr
	}
	if err != nil {
		s.logger.Warn("AuthService", "Backend logout failed", map[string]interface{}{"error": err.Error()})
	}
	return nil
}
