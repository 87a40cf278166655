package devstore

import (
	"strings"

	"github.com/google/uuid"

	"second-brain-client/internal/entity"
)

// UpsertUser returns the user registered under email, creating it on first
// sight. Ids are derived from the email so restarts hand out the same id.
func (s *Store) UpsertUser(email, name, picture string) entity.User {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String()
	u, ok := s.accounts[id]
	if !ok {
		u = &entity.User{
			Id:        id,
			Email:     email,
			Username:  strings.SplitN(email, "@", 2)[0],
			CreatedAt: s.now().UTC(),
		}
		s.accounts[id] = u
	}
	if name != "" {
		u.FullName = name
	}
	if picture != "" {
		u.AvatarURL = picture
	}
	return *u
}

func (s *Store) User(id string) (entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.accounts[id]
	if !ok {
		return entity.User{}, ErrNotFound
	}
	return *u, nil
}
