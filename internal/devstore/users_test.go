package devstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertUser(t *testing.T) {
	s := newTestStore()
	first := s.UpsertUser("Ada@Example.com", "Ada", "")
	again := s.UpsertUser("ada@example.com", "", "https://example.com/ada.png")

	assert.Equal(t, first.Id, again.Id)
	assert.Equal(t, "ada", again.Username)
	assert.Equal(t, "Ada", again.FullName)
	assert.Equal(t, "https://example.com/ada.png", again.AvatarURL)

	got, err := s.User(first.Id)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)

	_, err = s.User("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
