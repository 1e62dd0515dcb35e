package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Storefront/internal/account"
	"Storefront/internal/kv"
	"Storefront/pkg/kit"
)

func main() {
	service := "account"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	port := kit.Getenv("PORT", "8081")

	jwtSecret := kit.Getenv("JWT_SECRET", "")
	if len(jwtSecret) < 32 {
		log.Fatal("JWT_SECRET is required and must be at least 32 chars")
	}

	adminPassword := kit.Getenv("ADMIN_PASSWORD", "")
	if adminPassword == "" {
		log.Warn("ADMIN_PASSWORD not set, admin login disabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := kv.ConfigFromEnv()
	store, closeKV, err := kv.Open(ctx, cfg)
	if err != nil {
		log.Fatal("open kv failed", zap.String("backend", cfg.Backend), zap.Error(err))
	}
	defer func() { _ = closeKV() }()

	s := &account.Server{
		Log:           log,
		Registry:      account.NewRegistry(store, account.RegistryOptions{}),
		JWT:           account.NewTokenMaker(jwtSecret),
		AdminPassword: adminPassword,
		TokenTTL:      kit.GetenvDuration("TOKEN_TTL", 15*time.Minute),
	}

	h := account.NewHandler(s, account.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: kit.GetenvBool("METRICS_ENABLED", true),
		MetricsToken:   kit.Getenv("METRICS_TOKEN", ""),
	})

	if err := kit.RunHTTPServer(":"+port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
