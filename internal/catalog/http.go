package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Storefront/pkg/kit"
)

type Server struct {
	Store *Store
	Log   *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.ready)

	r.Get("/products", s.list)
	r.Get("/products/{id}", s.get)
	r.Get("/rates", s.rates)

	r.Route("/admin", func(ar chi.Router) {
		ar.Use(kit.RequireIdentity(kit.RoleAdmin))

		ar.Post("/products", s.createProduct)
		ar.Patch("/products/{id}", s.updateProduct)
		ar.Delete("/products/{id}", s.deleteProduct)

		ar.Post("/products/{id}/prices", s.addPrice)
		ar.Put("/products/{id}/prices/{index}", s.updatePrice)
		ar.Delete("/products/{id}/prices/{index}", s.deletePrice)

		ar.Post("/rates/{currency}", s.bulkUpdate)
		ar.Post("/reset", s.reset)
	})

	return r
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		s.logger().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	products, err := s.Store.ListProducts(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, FilterByCategory(products, r.URL.Query().Get("category")))
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	s.writeProduct(w, r, http.StatusOK, chi.URLParam(r, "id"))
}

func (s *Server) rates(w http.ResponseWriter, r *http.Request) {
	rates, err := s.Store.CurrentRates(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, rates)
}

type createProductReq struct {
	ID string `json:"id,omitempty"`
	NewProduct
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	if req.ID == "" {
		p, err := s.Store.CreateProduct(r.Context(), req.NewProduct)
		if err != nil {
			s.writeStoreError(w, r, err)
			return
		}
		kit.WriteJSON(w, http.StatusCreated, p)
		return
	}

	p := Product{
		ID:          req.ID,
		Name:        req.Name,
		Subtitle:    req.Subtitle,
		Description: req.Description,
		Image:       req.Image,
		VideoURL:    req.VideoURL,
		Categories:  req.Categories,
		Prices:      req.Prices,
	}
	if err := s.Store.AddProduct(r.Context(), p); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeProduct(w, r, http.StatusCreated, p.ID)
}

type updateProductReq struct {
	ID *string `json:"id,omitempty"`
	ProductPatch
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateProductReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if req.ID != nil && *req.ID != id {
		kit.WriteError(w, r, http.StatusBadRequest, "id is immutable", map[string]any{"id": id})
		return
	}

	if err := s.Store.UpdateProduct(r.Context(), id, req.ProductPatch); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeProduct(w, r, http.StatusOK, id)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addPrice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var opt PriceOption
	if err := kit.DecodeJSON(w, r, &opt); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	if err := s.Store.AddPriceOption(r.Context(), id, opt); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeProduct(w, r, http.StatusCreated, id)
}

type updatePriceReq struct {
	Field string   `json:"field"`
	Value *float64 `json:"value"`
}

func (s *Server) updatePrice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	idx, ok := priceIndex(w, r)
	if !ok {
		return
	}

	var req updatePriceReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if req.Value == nil {
		kit.WriteError(w, r, http.StatusBadRequest, "value required", nil)
		return
	}

	if err := s.Store.UpdatePrice(r.Context(), id, idx, Currency(req.Field), *req.Value); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeProduct(w, r, http.StatusOK, id)
}

func (s *Server) deletePrice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	idx, ok := priceIndex(w, r)
	if !ok {
		return
	}

	if err := s.Store.DeletePriceOption(r.Context(), id, idx); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeProduct(w, r, http.StatusOK, id)
}

type bulkUpdateReq struct {
	Multiplier *float64 `json:"multiplier"`
}

func (s *Server) bulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req bulkUpdateReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if req.Multiplier == nil {
		kit.WriteError(w, r, http.StatusBadRequest, "multiplier required", nil)
		return
	}

	currency := Currency(chi.URLParam(r, "currency"))
	if err := s.Store.BulkUpdateCurrency(r.Context(), currency, *req.Multiplier); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.rates(w, r)
}

type catalogState struct {
	Products []Product    `json:"products"`
	Rates    ExchangeRates `json:"rates"`
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.ResetCatalog(r.Context()); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	products, _ := s.Store.ListProducts(r.Context())
	rates, _ := s.Store.CurrentRates(r.Context())
	kit.WriteJSON(w, http.StatusOK, catalogState{Products: products, Rates: rates})
}

func (s *Server) writeProduct(w http.ResponseWriter, r *http.Request, status int, id string) {
	p, ok, err := s.Store.Product(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, status, p)
}

func priceIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "index")
	idx, err := strconv.Atoi(raw)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad price index", map[string]any{"index": raw})
		return 0, false
	}
	return idx, true
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	details := map[string]any{"cause": err.Error()}

	switch {
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", details)
	case errors.Is(err, ErrOutOfRange):
		kit.WriteError(w, r, http.StatusBadRequest, "price index out of range", details)
	case errors.Is(err, ErrInvalidArgument):
		kit.WriteError(w, r, http.StatusBadRequest, "invalid argument", details)
	case errors.Is(err, ErrConflict):
		kit.WriteError(w, r, http.StatusConflict, "conflict", details)
	default:
		s.logger().Error("catalog store failed", zap.Error(err), zap.String("path", r.URL.Path))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
