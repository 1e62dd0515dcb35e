package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Storefront/internal/checkout"
	"Storefront/pkg/kit"
)

func main() {
	service := "checkout"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	port := kit.Getenv("PORT", "8083")

	reg := prometheus.NewRegistry()
	s := &checkout.Server{
		Catalog:        checkout.NewCatalogClient(kit.Getenv("CATALOG_URL", "http://catalog:8082")),
		WhatsAppNumber: kit.Getenv("WHATSAPP_NUMBER", checkout.DefaultWhatsAppNumber),
		Log:            log,
		Orders:         checkout.NewOrdersCounter(reg),
	}

	h := checkout.NewHandler(s, checkout.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: kit.GetenvBool("METRICS_ENABLED", true),
		MetricsToken:   kit.Getenv("METRICS_TOKEN", ""),
	})

	if err := kit.RunHTTPServer(":"+port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
