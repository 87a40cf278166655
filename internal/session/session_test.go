package session

import (
	"context"
	"testing"
	"time"

	"second-brain-client/internal/entity"
	"second-brain-client/internal/pkg/logger"
	"second-brain-client/internal/repository/memory"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	claims, err := ParseClaims(signedToken(t, jwt.MapClaims{
		"user_id": "u-1",
		"email":   "a@b.c",
		"exp":     exp.Unix(),
	}))
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserId)
	assert.Equal(t, "a@b.c", claims.Email)
	require.NotNil(t, claims.ExpiresAt)
	assert.True(t, exp.Equal(*claims.ExpiresAt))
	assert.False(t, claims.Expired(time.Now()))
	assert.True(t, claims.Expired(exp))

	claims, err = ParseClaims(signedToken(t, jwt.MapClaims{"sub": "u-2"}))
	require.NoError(t, err)
	assert.Equal(t, "u-2", claims.UserId)
	assert.Nil(t, claims.ExpiresAt)

	claims, err = ParseClaims("opaque-token")
	require.NoError(t, err)
	assert.Empty(t, claims.UserId)

	_, err = ParseClaims("a.b.c")
	assert.Error(t, err)
}

func TestManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStorageRepository()
	m := NewManager(store, logger.NewNopLogger())

	var changes []*Session
	m.OnChange(func(s *Session) { changes = append(changes, s) })

	assert.Equal(t, "", m.Token())
	assert.Equal(t, entity.AnonymousUserId, m.UserKey())

	token := signedToken(t, jwt.MapClaims{"user_id": "u-1"})
	s, err := m.Start(ctx, token, &entity.User{Id: "u-1", Email: "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", s.UserKey())
	assert.Equal(t, token, m.Token())

	raw, err := store.Load(ctx, TokenStorageKey)
	require.NoError(t, err)
	assert.Equal(t, token, string(raw))

	// A fresh manager over the same storage picks the session up again
	restored, err := NewManager(store, logger.NewNopLogger()).Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, "a@b.c", restored.User.Email)
	assert.Equal(t, "u-1", restored.UserKey())

	m.Invalidate(ctx)
	assert.False(t, m.IsAuthenticated())
	raw, err = store.Load(ctx, TokenStorageKey)
	require.NoError(t, err)
	assert.Nil(t, raw)
	raw, err = store.Load(ctx, UserStorageKey)
	require.NoError(t, err)
	assert.Nil(t, raw)

	require.Len(t, changes, 2)
	assert.NotNil(t, changes[0])
	assert.Nil(t, changes[1])
}

func TestStartDerivesUserFromClaims(t *testing.T) {
	m := NewManager(memory.NewStorageRepository(), logger.NewNopLogger())

	s, err := m.Start(context.Background(), signedToken(t, jwt.MapClaims{"sub": "u-9", "email": "x@y.z"}), nil)
	require.NoError(t, err)
	require.NotNil(t, s.User)
	assert.Equal(t, "u-9", s.User.Id)
	assert.Equal(t, "x@y.z", s.User.Email)
}

func TestStartRejectsEmptyToken(t *testing.T) {
	m := NewManager(memory.NewStorageRepository(), logger.NewNopLogger())
	_, err := m.Start(context.Background(), "  ", nil)
	assert.ErrorIs(t, err, ErrEmptyToken)
}

func TestRestoreWithoutStoredToken(t *testing.T) {
	m := NewManager(memory.NewStorageRepository(), logger.NewNopLogger())
	s, err := m.Restore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
}
