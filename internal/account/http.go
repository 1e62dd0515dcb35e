package account

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"Storefront/pkg/kit"
)

const minPasswordLen = 8

type Server struct {
	Log      *zap.Logger
	Registry *Registry
	JWT      *TokenMaker

	// AdminPassword unlocks the admin panel. Empty disables admin login.
	AdminPassword string
	TokenTTL      time.Duration
}

type signupReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type adminReq struct {
	Password string `json:"password"`
}

type sessionResp struct {
	AccessToken string  `json:"access_token"`
	User        Profile `json:"user"`
}

var adminProfile = Profile{ID: "admin", Name: "Administrator", Role: kit.RoleAdmin}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	req.Password = strings.TrimSpace(req.Password)

	if req.Name == "" || req.Email == "" || req.Password == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "name/email/password required", nil)
		return
	}
	if !strings.Contains(req.Email, "@") {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid email", nil)
		return
	}
	if len(req.Password) < minPasswordLen {
		kit.WriteError(w, r, http.StatusBadRequest, "password too short", map[string]any{"min_len": minPasswordLen})
		return
	}

	p, err := s.Registry.Signup(r.Context(), req.Name, req.Email, req.Password)
	if errors.Is(err, ErrEmailExists) {
		kit.WriteError(w, r, http.StatusConflict, err.Error(), nil)
		return
	}
	if err != nil {
		s.serverError(w, r, "signup failed", err)
		return
	}

	s.issue(w, r, http.StatusCreated, p)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	req.Password = strings.TrimSpace(req.Password)
	if normalizeEmail(req.Email) == "" || req.Password == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "email/password required", nil)
		return
	}

	p, err := s.Registry.Verify(r.Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	if err != nil {
		s.serverError(w, r, "login failed", err)
		return
	}

	s.issue(w, r, http.StatusOK, p)
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	var req adminReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	if s.AdminPassword == "" {
		kit.WriteError(w, r, http.StatusForbidden, "admin login disabled", nil)
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.AdminPassword)) != 1 {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid admin password", nil)
		return
	}

	s.issue(w, r, http.StatusOK, adminProfile)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.bearerClaims(w, r)
	if !ok {
		return
	}

	if err := s.Registry.EndSession(r.Context(), claims.SessionID()); err != nil {
		s.serverError(w, r, "logout failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.bearerClaims(w, r)
	if !ok {
		return
	}

	p, err := s.Registry.Session(r.Context(), claims.SessionID())
	if errors.Is(err, ErrNoSession) {
		kit.WriteError(w, r, http.StatusUnauthorized, "session ended", nil)
		return
	}
	if err != nil {
		s.serverError(w, r, "session lookup failed", err)
		return
	}

	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.Registry.Ping(ctx); err != nil {
		s.logger().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) issue(w http.ResponseWriter, r *http.Request, status int, p Profile) {
	sid, err := s.Registry.StartSession(r.Context(), p)
	if err != nil {
		s.serverError(w, r, "session start failed", err)
		return
	}

	tok, err := s.JWT.New(p, sid, s.ttl())
	if err != nil {
		s.serverError(w, r, "token issue failed", err)
		return
	}

	kit.WriteJSON(w, status, sessionResp{AccessToken: tok, User: p})
}

func (s *Server) bearerClaims(w http.ResponseWriter, r *http.Request) (Claims, bool) {
	tok, ok := kit.BearerToken(r)
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
		return Claims{}, false
	}

	claims, err := s.JWT.Parse(tok)
	if err != nil {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
		return Claims{}, false
	}
	return claims, true
}

func (s *Server) ttl() time.Duration {
	if s.TokenTTL <= 0 {
		return 15 * time.Minute
	}
	return s.TokenTTL
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger().Error(msg, zap.Error(err))
	kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
