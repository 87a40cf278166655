package entity

import "time"

const AnonymousUserId = "anonymous"

type User struct {
	Id        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	FullName  string    `json:"name,omitempty"`
	AvatarURL string    `json:"picture,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// StorageKey returns the identifier used to scope durable client state.
func (u *User) StorageKey() string {
	if u == nil || u.Id == "" {
		return AnonymousUserId
	}
	return u.Id
}
