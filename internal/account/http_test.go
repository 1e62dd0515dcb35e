package account_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"Storefront/internal/account"
	"Storefront/internal/kv"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type tokenResp struct {
	AccessToken string          `json:"access_token"`
	User        account.Profile `json:"user"`
}

func newAccountTS(t *testing.T, adminPassword string) *httptest.Server {
	t.Helper()

	s := &account.Server{
		Log:           zap.NewNop(),
		Registry:      account.NewRegistry(kv.NewMemStore(), account.RegistryOptions{BcryptCost: bcrypt.MinCost}),
		JWT:           account.NewTokenMaker(testSecret),
		AdminPassword: adminPassword,
		TokenTTL:      time.Minute,
	}

	ts := httptest.NewServer(account.NewHandler(s, account.HTTPDeps{Log: zap.NewNop(), Service: "account"}))
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	return resp, b
}

func TestAccountFlow_SignupWhoamiLogout(t *testing.T) {
	ts := newAccountTS(t, "")

	resp, body := do(t, http.MethodPost, ts.URL+"/auth/signup", "", map[string]string{
		"name": "Nadia", "email": "nadia@example.com", "password": "longenough",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d body=%s", resp.StatusCode, string(body))
	}

	var signed tokenResp
	if err := json.Unmarshal(body, &signed); err != nil {
		t.Fatalf("decode signup: %v", err)
	}
	if signed.AccessToken == "" || signed.User.Email != "nadia@example.com" {
		t.Fatalf("unexpected signup response: %s", string(body))
	}

	resp, body = do(t, http.MethodGet, ts.URL+"/auth/whoami", signed.AccessToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("whoami: expected 200, got %d body=%s", resp.StatusCode, string(body))
	}

	resp, _ = do(t, http.MethodPost, ts.URL+"/auth/logout", signed.AccessToken, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", resp.StatusCode)
	}

	resp, _ = do(t, http.MethodGet, ts.URL+"/auth/whoami", signed.AccessToken, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("whoami after logout: expected 401, got %d", resp.StatusCode)
	}

	resp, body = do(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]string{
		"email": "NADIA@example.com", "password": "longenough",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d body=%s", resp.StatusCode, string(body))
	}
}

func TestSignup_Validation(t *testing.T) {
	ts := newAccountTS(t, "")

	cases := []struct {
		name string
		body any
		want int
	}{
		{"missing fields", map[string]string{"email": "x@example.com"}, http.StatusBadRequest},
		{"short password", map[string]string{"name": "X", "email": "x@example.com", "password": "short"}, http.StatusBadRequest},
		{"unknown field", map[string]string{"name": "X", "email": "x@example.com", "password": "longenough", "role": "admin"}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, ts.URL+"/auth/signup", "", tc.body)
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d body=%s", tc.want, resp.StatusCode, string(body))
			}
		})
	}
}

func TestSignup_DuplicateEmailConflict(t *testing.T) {
	ts := newAccountTS(t, "")
	body := map[string]string{"name": "X", "email": "dup@example.com", "password": "longenough"}

	if resp, _ := do(t, http.MethodPost, ts.URL+"/auth/signup", "", body); resp.StatusCode != http.StatusCreated {
		t.Fatalf("first signup: expected 201, got %d", resp.StatusCode)
	}
	if resp, _ := do(t, http.MethodPost, ts.URL+"/auth/signup", "", body); resp.StatusCode != http.StatusConflict {
		t.Fatalf("second signup: expected 409, got %d", resp.StatusCode)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	ts := newAccountTS(t, "")

	resp, _ := do(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]string{
		"email": "ghost@example.com", "password": "whatever1",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAdminUnlock(t *testing.T) {
	ts := newAccountTS(t, "open-sesame")

	resp, _ := do(t, http.MethodPost, ts.URL+"/auth/admin", "", map[string]string{"password": "nope"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", resp.StatusCode)
	}

	resp, body := do(t, http.MethodPost, ts.URL+"/auth/admin", "", map[string]string{"password": "open-sesame"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin unlock: expected 200, got %d body=%s", resp.StatusCode, string(body))
	}

	var tr tokenResp
	if err := json.Unmarshal(body, &tr); err != nil {
		t.Fatalf("decode: %v", err)
	}

	claims, err := account.NewTokenMaker(testSecret).Parse(tr.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Role != "admin" || claims.SessionID() == "" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAdminUnlock_DisabledWithoutPassword(t *testing.T) {
	ts := newAccountTS(t, "")

	resp, _ := do(t, http.MethodPost, ts.URL+"/auth/admin", "", map[string]string{"password": ""})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestTokenMaker_RejectsForeignSecret(t *testing.T) {
	p := account.Profile{ID: "u_1", Role: "user"}

	tok, err := account.NewTokenMaker(testSecret).New(p, "sid-1", time.Minute)
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	if _, err := account.NewTokenMaker("another-secret-another-secret-xx").Parse(tok); err == nil {
		t.Fatalf("expected parse failure with a different secret")
	}

	expired, err := account.NewTokenMaker(testSecret).New(p, "sid-1", -time.Minute)
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	if _, err := account.NewTokenMaker(testSecret).Parse(expired); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}
