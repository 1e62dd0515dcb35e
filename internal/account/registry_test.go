package account_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"Storefront/internal/account"
	"Storefront/internal/kv"
)

func newRegistry(t *testing.T) (*account.Registry, *kv.MemStore) {
	t.Helper()

	store := kv.NewMemStore()
	joined := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	r := account.NewRegistry(store, account.RegistryOptions{
		Now:        func() time.Time { return joined },
		BcryptCost: bcrypt.MinCost,
	})
	return r, store
}

func TestRegistry_SignupStoresUserList(t *testing.T) {
	ctx := context.Background()
	r, store := newRegistry(t)

	p, err := r.Signup(ctx, " Rafi ", "Rafi@Example.com ", "hunter22!")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if !strings.HasPrefix(p.ID, "u_") {
		t.Fatalf("id = %q, want u_ prefix", p.ID)
	}
	if p.Email != "rafi@example.com" || p.Name != "Rafi" || p.Role != "user" {
		t.Fatalf("unexpected profile: %+v", p)
	}

	raw, ok, err := store.Get(ctx, account.UsersKey)
	if err != nil || !ok {
		t.Fatalf("users blob missing: ok=%v err=%v", ok, err)
	}
	if strings.Contains(raw, "hunter22!") {
		t.Fatalf("plaintext password persisted")
	}

	var users []map[string]any
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	if len(users) != 1 || users[0]["joinedAt"] != "2024-03-01T10:00:00Z" {
		t.Fatalf("unexpected users blob: %s", raw)
	}
}

func TestRegistry_SignupDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	r, _ := newRegistry(t)

	if _, err := r.Signup(ctx, "A", "a@example.com", "password1"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	_, err := r.Signup(ctx, "B", "A@EXAMPLE.COM", "password2")
	if !errors.Is(err, account.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestRegistry_Verify(t *testing.T) {
	ctx := context.Background()
	r, _ := newRegistry(t)

	want, err := r.Signup(ctx, "A", "a@example.com", "password1")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	got, err := r.Verify(ctx, "A@example.com", "password1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != want {
		t.Fatalf("verify = %+v, want %+v", got, want)
	}

	cases := []struct{ email, pass string }{
		{"a@example.com", "wrong-pass"},
		{"nobody@example.com", "password1"},
	}
	for _, c := range cases {
		if _, err := r.Verify(ctx, c.email, c.pass); !errors.Is(err, account.ErrInvalidCredentials) {
			t.Fatalf("verify(%q): expected ErrInvalidCredentials, got %v", c.email, err)
		}
	}
}

func TestRegistry_Sessions(t *testing.T) {
	ctx := context.Background()
	r, store := newRegistry(t)

	p, err := r.Signup(ctx, "A", "a@example.com", "password1")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	sid, err := r.StartSession(ctx, p)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if _, ok, _ := store.Get(ctx, account.SessionKey+":"+sid); !ok {
		t.Fatalf("session key not written")
	}

	got, err := r.Session(ctx, sid)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if got != p {
		t.Fatalf("session = %+v, want %+v", got, p)
	}

	if err := r.EndSession(ctx, sid); err != nil {
		t.Fatalf("end session: %v", err)
	}
	if _, err := r.Session(ctx, sid); !errors.Is(err, account.ErrNoSession) {
		t.Fatalf("expected ErrNoSession after logout, got %v", err)
	}
}

func TestRegistry_CorruptUsersBlob(t *testing.T) {
	ctx := context.Background()
	r, store := newRegistry(t)

	if err := store.Set(ctx, account.UsersKey, "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := r.Signup(ctx, "A", "a@example.com", "password1"); err == nil {
		t.Fatalf("expected decode error")
	}
}
