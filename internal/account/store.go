package account

import (
	"errors"
	"time"
)

const (
	UsersKey   = "miraj-xheat-users"
	SessionKey = "miraj-xheat-user-session"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSession          = errors.New("session not found")
)

// User is the stored record. Hash never leaves the registry.
type User struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Hash     []byte    `json:"pass_hash"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Profile is the public view of a user, as kept in sessions and returned to
// clients.
type Profile struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

func (u User) Profile() Profile {
	return Profile{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		JoinedAt: u.JoinedAt,
	}
}
