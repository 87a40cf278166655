package service

import (
	"context"
	"errors"
	"testing"

	"second-brain-client/internal/dto"
	"second-brain-client/internal/pkg/logger"
	"second-brain-client/internal/repository/memory"
	"second-brain-client/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestAuth(backend AuthBackend) (IAuthService, *session.Manager, *memory.StorageRepository) {
	storage := memory.NewStorageRepository()
	sessions := session.NewManager(storage, logger.NewNopLogger())
	return NewAuthService(backend, sessions, "client-123", logger.NewNopLogger()), sessions, storage
}

func TestLoginWithGoogleStartsSession(t *testing.T) {
	backend := new(mockAuthBackend)
	backend.On("GoogleLogin", mock.Anything, "id-token", "client-123").Return(&dto.LoginResponse{
		Token: "session-token",
		User:  dto.UserDTO{Id: "u-1", Email: "a@b.c", Name: "Ada"},
	}, nil).Once()

	auth, sessions, _ := newTestAuth(backend)

	s, err := auth.LoginWithGoogle(context.Background(), "id-token")
	require.NoError(t, err)
	assert.Equal(t, "session-token", sessions.Token())
	assert.Equal(t, "u-1", s.UserKey())
	assert.Equal(t, "Ada", s.User.FullName)
}

func TestLoginWithTokenRejected(t *testing.T) {
	backend := new(mockAuthBackend)
	backend.On("ValidateToken", mock.Anything).Return(&dto.ValidateTokenResponse{Valid: false, Message: "expired"}, nil).Once()

	auth, sessions, _ := newTestAuth(backend)

	_, err := auth.LoginWithToken(context.Background(), "opaque")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.False(t, sessions.IsAuthenticated())
}

func TestLoginWithTokenAdoptsBackendUser(t *testing.T) {
	backend := new(mockAuthBackend)
	backend.On("ValidateToken", mock.Anything).Return(&dto.ValidateTokenResponse{
		Valid: true,
		User:  &dto.UserDTO{Id: "u-7", Email: "x@y.z"},
	}, nil).Once()

	auth, _, _ := newTestAuth(backend)

	s, err := auth.LoginWithToken(context.Background(), "opaque")
	require.NoError(t, err)
	assert.Equal(t, "u-7", s.UserKey())
}

func TestRestoreKeepsSessionWhenBackendUnreachable(t *testing.T) {
	backend := new(mockAuthBackend)
	backend.On("ValidateToken", mock.Anything).Return(nil, errors.New("dial tcp: refused")).Once()

	auth, sessions, _ := newTestAuth(backend)
	_, err := sessions.Start(context.Background(), "opaque", nil)
	require.NoError(t, err)

	s, err := auth.Restore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "opaque", s.Token)
}

func TestRestoreWithoutStoredSession(t *testing.T) {
	backend := new(mockAuthBackend)
	auth, _, _ := newTestAuth(backend)

	s, err := auth.Restore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
	backend.AssertNotCalled(t, "ValidateToken", mock.Anything)
}

func TestLogoutClearsEvenWhenBackendFails(t *testing.T) {
	backend := new(mockAuthBackend)
	backend.On("Logout", mock.Anything).Return(errors.New("500")).Once()

	auth, sessions, storage := newTestAuth(backend)
	_, err := sessions.Start(context.Background(), "opaque", nil)
	require.NoError(t, err)

	require.NoError(t, auth.Logout(context.Background()))
	assert.False(t, sessions.IsAuthenticated())
	raw, err := storage.Load(context.Background(), session.TokenStorageKey)
	require.NoError(t, err)
	assert.Nil(t, raw)
}
