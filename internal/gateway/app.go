package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Storefront/internal/account"
	"Storefront/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

type Deps struct {
	AccountURL  string
	CatalogURL  string
	CheckoutURL string
	JWTSecret   string
}

const (
	readyTimeout      = 2 * time.Second
	readyProbeTimeout = 700 * time.Millisecond
)

var readyClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	},
}

func NewHandler(deps Deps, httpDeps HTTPDeps) (http.Handler, error) {
	accountProxy, err := NewReverseProxy(deps.AccountURL, httpDeps.Log)
	if err != nil {
		return nil, fmt.Errorf("account upstream: %w", err)
	}
	catalogProxy, err := NewReverseProxy(deps.CatalogURL, httpDeps.Log)
	if err != nil {
		return nil, fmt.Errorf("catalog upstream: %w", err)
	}
	checkoutProxy, err := NewReverseProxy(deps.CheckoutURL, httpDeps.Log)
	if err != nil {
		return nil, fmt.Errorf("checkout upstream: %w", err)
	}

	jwt := account.NewTokenMaker(deps.JWTSecret)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(httpDeps.Log))
	kit.MountMetrics(r, httpDeps.Service, httpDeps.Registry, httpDeps.MetricsEnabled, httpDeps.MetricsToken)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps, httpDeps.Log))

	r.Group(func(pub chi.Router) {
		pub.Use(StripIdentity)

		pub.Handle("/auth/*", accountProxy)
		pub.Handle("/products", catalogProxy)
		pub.Handle("/products/*", catalogProxy)
		pub.Handle("/rates", catalogProxy)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(AuthJWT(jwt))
		pr.Use(InjectHeaders)

		pr.Handle("/checkout", checkoutProxy)

		pr.With(RequireRole(kit.RoleAdmin)).Handle("/admin/*", catalogProxy)
	})

	return r, nil
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(deps Deps, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	upstreams := []struct{ name, url string }{
		{"account", deps.AccountURL},
		{"catalog", deps.CatalogURL},
		{"checkout", deps.CheckoutURL},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		for _, u := range upstreams {
			if err := checkReady(ctx, u.url+"/readyz"); err != nil {
				log.Warn("readyz failed", zap.String("upstream", u.name), zap.Error(err))
				kit.WriteError(w, r, http.StatusServiceUnavailable, u.name+" not ready", nil)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}

func checkReady(ctx context.Context, url string) error {
	cctx, cancel := context.WithTimeout(ctx, readyProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := readyClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status=%d", resp.StatusCode)
	}
	return nil
}
