package checkout

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Storefront/internal/catalog"
	"Storefront/pkg/kit"
)

type ProductSource interface {
	Product(ctx context.Context, id string) (catalog.Product, error)
	Ping(ctx context.Context) error
}

type Server struct {
	Catalog        ProductSource
	WhatsAppNumber string
	Log            *zap.Logger

	// Orders counts hand-offs per product. Optional.
	Orders *prometheus.CounterVec
}

type checkoutReq struct {
	ProductID string `json:"product_id"`
	Duration  string `json:"duration"`
}

type checkoutResp struct {
	ProductID string              `json:"product_id"`
	Price     catalog.PriceOption `json:"price"`
	Message   string              `json:"message"`
	Link      string              `json:"link"`
}

func NewOrdersCounter(reg prometheus.Registerer) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_handoffs_total",
		Help: "WhatsApp hand-off links issued, by product.",
	}, []string{"product"})
	if reg != nil {
		reg.MustRegister(c)
	}
	return c
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	id, _ := kit.IdentityFromContext(r.Context())

	var req checkoutReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "product_id required", nil)
		return
	}

	p, err := s.Catalog.Product(r.Context(), req.ProductID)
	switch {
	case errors.Is(err, ErrCatalogNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "product not found", map[string]any{"id": req.ProductID})
		return
	case errors.Is(err, ErrCatalogUnavailable):
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
		return
	case err != nil:
		s.logger().Warn("catalog error", zap.Error(err), zap.String("product_id", req.ProductID))
		kit.WriteError(w, r, http.StatusBadGateway, "catalog error", nil)
		return
	}

	price, err := SelectPrice(p, req.Duration)
	if err != nil {
		kit.WriteError(w, r, http.StatusConflict, "product has no prices", map[string]any{"id": p.ID})
		return
	}

	msg := FormatOrderMessage(p, price)
	if s.Orders != nil {
		s.Orders.WithLabelValues(p.ID).Inc()
	}
	s.logger().Info("checkout",
		zap.String("user_id", id.UserID),
		zap.String("product_id", p.ID),
		zap.String("duration", price.Duration),
	)

	kit.WriteJSON(w, http.StatusOK, checkoutResp{
		ProductID: p.ID,
		Price:     price,
		Message:   msg,
		Link:      WhatsAppLink(s.WhatsAppNumber, msg),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.Catalog.Ping(ctx); err != nil {
		s.logger().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
