package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Storefront/internal/catalog"
	"Storefront/internal/kv"
	"Storefront/pkg/kit"
)

func main() {
	service := "catalog"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	port := kit.Getenv("PORT", "8082")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := kv.ConfigFromEnv()
	store, closeKV, err := kv.Open(ctx, cfg)
	if err != nil {
		log.Fatal("open kv failed", zap.String("backend", cfg.Backend), zap.Error(err))
	}
	defer func() { _ = closeKV() }()

	reg := prometheus.NewRegistry()
	cs, err := catalog.Open(ctx, store, catalog.Options{
		Log:              log,
		Observer:         catalog.NewStoreMetrics(reg),
		NewID:            catalog.IDSourceFor(kit.Getenv("PRODUCT_ID_STYLE", "time")),
		StrictBulkUpdate: kit.GetenvBool("STRICT_BULK_UPDATE", false),
	})
	if err != nil {
		log.Fatal("open catalog failed", zap.Error(err))
	}

	h := catalog.NewHandler(&catalog.Server{Store: cs, Log: log}, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: kit.GetenvBool("METRICS_ENABLED", true),
		MetricsToken:   kit.Getenv("METRICS_TOKEN", ""),
	})

	log.Info("catalog ready", zap.String("kv_backend", cfg.Backend))
	if err := kit.RunHTTPServer(":"+port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
