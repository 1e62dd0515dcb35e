package account

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"Storefront/internal/kv"
	"Storefront/pkg/kit"
)

type RegistryOptions struct {
	Now func() time.Time

	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Registry keeps the user list as one blob under UsersKey and each session
// under SessionKey:<session id>.
type Registry struct {
	kv   kv.Store
	now  func() time.Time
	cost int

	mu sync.Mutex
}

func NewRegistry(store kv.Store, opts RegistryOptions) *Registry {
	r := &Registry{kv: store, now: opts.Now, cost: opts.BcryptCost}
	if r.now == nil {
		r.now = time.Now
	}
	if r.cost == 0 {
		r.cost = bcrypt.DefaultCost
	}
	return r
}

func (r *Registry) Ping(ctx context.Context) error { return r.kv.Ping(ctx) }

func (r *Registry) Signup(ctx context.Context, name, email, password string) (Profile, error) {
	email = normalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return Profile{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.loadUsers(ctx)
	if err != nil {
		return Profile{}, err
	}
	for _, u := range users {
		if u.Email == email {
			return Profile{}, ErrEmailExists
		}
	}

	u := User{
		ID:       "u_" + uuid.NewString(),
		Name:     strings.TrimSpace(name),
		Email:    email,
		Hash:     hash,
		Role:     kit.RoleUser,
		JoinedAt: r.now().UTC().Truncate(time.Second),
	}
	if err := r.saveUsers(ctx, append(users, u)); err != nil {
		return Profile{}, err
	}
	return u.Profile(), nil
}

func (r *Registry) Verify(ctx context.Context, email, password string) (Profile, error) {
	email = normalizeEmail(email)

	r.mu.Lock()
	users, err := r.loadUsers(ctx)
	r.mu.Unlock()
	if err != nil {
		return Profile{}, err
	}

	for _, u := range users {
		if u.Email != email {
			continue
		}
		if err := bcrypt.CompareHashAndPassword(u.Hash, []byte(password)); err != nil {
			return Profile{}, ErrInvalidCredentials
		}
		return u.Profile(), nil
	}
	return Profile{}, ErrInvalidCredentials
}

// StartSession records p under a fresh session id and returns the id.
func (r *Registry) StartSession(ctx context.Context, p Profile) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	sid := uuid.NewString()
	if err := r.kv.Set(ctx, sessionKey(sid), string(raw)); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return sid, nil
}

func (r *Registry) Session(ctx context.Context, sid string) (Profile, error) {
	raw, ok, err := r.kv.Get(ctx, sessionKey(sid))
	if err != nil {
		return Profile{}, err
	}
	if !ok {
		return Profile{}, ErrNoSession
	}

	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Profile{}, fmt.Errorf("decode session: %w", err)
	}
	return p, nil
}

func (r *Registry) EndSession(ctx context.Context, sid string) error {
	return r.kv.Remove(ctx, sessionKey(sid))
}

func (r *Registry) loadUsers(ctx context.Context) ([]User, error) {
	raw, ok, err := r.kv.Get(ctx, UsersKey)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var users []User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (r *Registry) saveUsers(ctx context.Context, users []User) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return err
	}
	if err := r.kv.Set(ctx, UsersKey, string(raw)); err != nil {
		return fmt.Errorf("store users: %w", err)
	}
	return nil
}

func sessionKey(sid string) string { return SessionKey + ":" + sid }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
