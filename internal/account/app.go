package account

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Storefront/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

const (
	loginLimitPerMin  = 5
	signupLimitPerMin = 3
	adminLimitPerMin  = 5
	limitWindow       = 60 * time.Second
)

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	r := chi.NewRouter()

	if deps.MetricsEnabled && deps.Registry == nil && deps.Log != nil {
		deps.Log.Warn("metrics enabled but Registry is nil")
	}

	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
	kit.MountMetrics(r, deps.Service, deps.Registry, deps.MetricsEnabled, deps.MetricsToken)

	setupRoutes(r, s)
	return r
}

func setupRoutes(r chi.Router, s *Server) {
	loginLimiter := kit.NewIPRateLimiter(loginLimitPerMin, limitWindow)
	signupLimiter := kit.NewIPRateLimiter(signupLimitPerMin, limitWindow)
	adminLimiter := kit.NewIPRateLimiter(adminLimitPerMin, limitWindow)

	r.Route("/auth", func(rr chi.Router) {
		rr.With(signupLimiter.Middleware).Post("/signup", s.handleSignup)
		rr.With(loginLimiter.Middleware).Post("/login", s.handleLogin)
		rr.With(adminLimiter.Middleware).Post("/admin", s.handleAdmin)
		rr.Post("/logout", s.handleLogout)
		rr.Get("/whoami", s.handleWhoAmI)
	})

	r.Get("/healthz", healthz)
	r.Get("/readyz", s.handleReady)
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
