package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"Storefront/internal/kv"
)

// Observer is notified after every mutation attempt.
type Observer interface {
	Mutation(op string, err error, products int)
}

type Options struct {
	Log      *zap.Logger
	Observer Observer
	NewID    IDSource

	// StrictBulkUpdate rejects BulkUpdateCurrency(USDT, m). Without it the
	// usdt column is recomputed from itself, as the admin panel always did.
	StrictBulkUpdate bool

	ProductsKey string
	RatesKey    string
}

// Store owns the product catalog and the exchange rates. Mutations are
// serialized; each one builds a new collection, writes it to the key-value
// store and only then makes it visible.
type Store struct {
	kv          kv.Store
	log         *zap.Logger
	obs         Observer
	newID       IDSource
	strictBulk  bool
	productsKey string
	ratesKey    string

	mu       sync.RWMutex
	products []Product
	rates    ExchangeRates
}

// Open loads the catalog and rates from kv, falling back to the built-in
// defaults when a key is missing or cannot be decoded.
func Open(ctx context.Context, store kv.Store, opts Options) (*Store, error) {
	s := &Store{
		kv:          store,
		log:         opts.Log,
		obs:         opts.Observer,
		newID:       opts.NewID,
		strictBulk:  opts.StrictBulkUpdate,
		productsKey: opts.ProductsKey,
		ratesKey:    opts.RatesKey,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.newID == nil {
		s.newID = TimeIDs(time.Now)
	}
	if s.productsKey == "" {
		s.productsKey = ProductsKey
	}
	if s.ratesKey == "" {
		s.ratesKey = RatesKey
	}

	products, err := s.loadProducts(ctx)
	if err != nil {
		return nil, err
	}
	rates, err := s.loadRates(ctx)
	if err != nil {
		return nil, err
	}

	s.products = products
	s.rates = rates
	if s.obs != nil {
		s.obs.Mutation("open", nil, len(products))
	}
	return s, nil
}

func (s *Store) loadProducts(ctx context.Context) ([]Product, error) {
	raw, ok, err := s.kv.Get(ctx, s.productsKey)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	if !ok {
		return DefaultProducts(), nil
	}

	var products []Product
	if err := json.Unmarshal([]byte(raw), &products); err != nil {
		s.log.Warn("stored catalog unreadable, using defaults", zap.Error(err))
		return DefaultProducts(), nil
	}
	return products, nil
}

func (s *Store) loadRates(ctx context.Context) (ExchangeRates, error) {
	raw, ok, err := s.kv.Get(ctx, s.ratesKey)
	if err != nil {
		return ExchangeRates{}, fmt.Errorf("load rates: %w", err)
	}
	if !ok {
		return DefaultRates, nil
	}

	var rates ExchangeRates
	if err := json.Unmarshal([]byte(raw), &rates); err != nil {
		s.log.Warn("stored rates unreadable, using defaults", zap.Error(err))
		return DefaultRates, nil
	}
	return rates, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.kv.Ping(ctx) }

func (s *Store) ListProducts(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneProducts(s.products), nil
}

// Product returns the first product with the given id.
func (s *Store) Product(ctx context.Context, id string) (Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := indexOf(s.products, id)
	if i < 0 {
		return Product{}, false, nil
	}
	return cloneProduct(s.products[i]), true, nil
}

func (s *Store) CurrentRates(ctx context.Context) (ExchangeRates, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.rates, nil
}

func (s *Store) UpdatePrice(ctx context.Context, productID string, priceIndex int, field Currency, value float64) error {
	field, err := ParseCurrency(string(field))
	if err != nil {
		return err
	}
	if err := validateAmount(field, value); err != nil {
		return err
	}

	return s.mutate(ctx, "update_price", productID, func(ps []Product) ([]Product, error) {
		i := indexOf(ps, productID)
		if i < 0 {
			return nil, notFound(productID)
		}
		if priceIndex < 0 || priceIndex >= len(ps[i].Prices) {
			return nil, outOfRange(priceIndex, len(ps[i].Prices))
		}

		ps[i].Prices[priceIndex].setAmount(field, value)
		return ps, nil
	})
}

func (s *Store) UpdateProduct(ctx context.Context, productID string, patch ProductPatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidArgument)
	}
	if patch.Prices != nil {
		if err := validatePrices(*patch.Prices); err != nil {
			return err
		}
	}

	return s.mutate(ctx, "update_product", productID, func(ps []Product) ([]Product, error) {
		i := indexOf(ps, productID)
		if i < 0 {
			return nil, notFound(productID)
		}

		ps[i] = patch.apply(ps[i])
		return ps, nil
	})
}

// BulkUpdateCurrency sets price[currency] = round(usdt * multiplier) on every
// price option. For BDT and INR the multiplier becomes the stored rate.
func (s *Store) BulkUpdateCurrency(ctx context.Context, currency Currency, multiplier float64) error {
	currency, err := ParseCurrency(string(currency))
	if err != nil {
		return err
	}
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) || multiplier < 0 {
		return fmt.Errorf("%w: multiplier must be a finite non-negative number", ErrInvalidArgument)
	}
	if currency == USDT && s.strictBulk {
		return fmt.Errorf("%w: usdt is the reference currency and cannot be derived", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneProducts(s.products)
	m := decimal.NewFromFloat(multiplier)
	for i := range next {
		for j := range next[i].Prices {
			p := &next[i].Prices[j]
			p.setAmount(currency, roundHalfUp(decimal.NewFromFloat(p.USDT).Mul(m)))
		}
	}

	if err := s.saveProducts(ctx, next); err != nil {
		s.report("bulk_update", err)
		return err
	}
	s.products = next

	if currency != USDT {
		rates := s.rates
		if currency == BDT {
			rates.BDT = multiplier
		} else {
			rates.INR = multiplier
		}
		if err := s.saveRates(ctx, rates); err != nil {
			s.report("bulk_update", err)
			return err
		}
		s.rates = rates
	}

	s.log.Debug("catalog bulk update",
		zap.String("currency", string(currency)),
		zap.Float64("multiplier", multiplier),
	)
	s.report("bulk_update", nil)
	return nil
}

func (s *Store) AddProduct(ctx context.Context, p Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	p = cloneProduct(p)

	return s.mutate(ctx, "add_product", p.ID, func(ps []Product) ([]Product, error) {
		if indexOf(ps, p.ID) >= 0 {
			return nil, fmt.Errorf("%w: product %q already exists", ErrConflict, p.ID)
		}
		return append(ps, p), nil
	})
}

// CreateProduct assigns an id to np and adds it. Without prices the product
// starts with a zero-priced "1 Day" option; without categories it is tagged
// "mobile".
func (s *Store) CreateProduct(ctx context.Context, np NewProduct) (Product, error) {
	p := Product{
		ID:          s.newID(),
		Name:        strings.TrimSpace(np.Name),
		Subtitle:    np.Subtitle,
		Description: np.Description,
		Image:       np.Image,
		VideoURL:    np.VideoURL,
		Categories:  np.Categories,
		Prices:      np.Prices,
	}
	if len(p.Categories) == 0 {
		p.Categories = []string{"mobile"}
	}
	if len(p.Prices) == 0 {
		p.Prices = []PriceOption{{Duration: "1 Day"}}
	}

	if err := s.AddProduct(ctx, p); err != nil {
		return Product{}, err
	}
	return cloneProduct(p), nil
}

func (s *Store) DeleteProduct(ctx context.Context, productID string) error {
	return s.mutate(ctx, "delete_product", productID, func(ps []Product) ([]Product, error) {
		out := ps[:0]
		for _, p := range ps {
			if p.ID != productID {
				out = append(out, p)
			}
		}
		if len(out) == len(ps) {
			return nil, notFound(productID)
		}
		return out, nil
	})
}

func (s *Store) AddPriceOption(ctx context.Context, productID string, option PriceOption) error {
	if err := validatePriceOption(option); err != nil {
		return err
	}

	return s.mutate(ctx, "add_price", productID, func(ps []Product) ([]Product, error) {
		i := indexOf(ps, productID)
		if i < 0 {
			return nil, notFound(productID)
		}
		for _, existing := range ps[i].Prices {
			if strings.EqualFold(strings.TrimSpace(existing.Duration), strings.TrimSpace(option.Duration)) {
				return nil, fmt.Errorf("%w: duration %q already priced", ErrConflict, option.Duration)
			}
		}

		ps[i].Prices = append(ps[i].Prices, option)
		return ps, nil
	})
}

// DeletePriceOption removes the option at priceIndex. An index outside the
// list is accepted and changes nothing.
func (s *Store) DeletePriceOption(ctx context.Context, productID string, priceIndex int) error {
	return s.mutate(ctx, "delete_price", productID, func(ps []Product) ([]Product, error) {
		i := indexOf(ps, productID)
		if i < 0 {
			return nil, notFound(productID)
		}
		prices := ps[i].Prices
		if priceIndex < 0 || priceIndex >= len(prices) {
			return nil, errUnchanged
		}

		ps[i].Prices = append(prices[:priceIndex:priceIndex], prices[priceIndex+1:]...)
		return ps, nil
	})
}

// ResetCatalog drops the stored rates, rewrites the default catalog and
// restores the default rates.
func (s *Store) ResetCatalog(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Remove(ctx, s.ratesKey); err != nil {
		err = fmt.Errorf("remove rates: %w", err)
		s.report("reset", err)
		return err
	}

	defaults := DefaultProducts()
	if err := s.saveProducts(ctx, defaults); err != nil {
		s.report("reset", err)
		return err
	}

	s.products = defaults
	s.rates = DefaultRates
	s.log.Info("catalog reset to defaults")
	s.report("reset", nil)
	return nil
}

func (s *Store) mutate(ctx context.Context, op, productID string, fn func([]Product) ([]Product, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(cloneProducts(s.products))
	if errors.Is(err, errUnchanged) {
		s.report(op, nil)
		return nil
	}
	if err == nil {
		err = s.saveProducts(ctx, next)
	}
	if err != nil {
		s.report(op, err)
		return err
	}

	s.products = next
	s.log.Debug("catalog mutation", zap.String("op", op), zap.String("product_id", productID))
	s.report(op, nil)
	return nil
}

func (s *Store) saveProducts(ctx context.Context, ps []Product) error {
	raw, err := json.Marshal(ps)
	if err != nil {
		return fmt.Errorf("encode products: %w", err)
	}
	if err := s.kv.Set(ctx, s.productsKey, string(raw)); err != nil {
		s.log.Error("persist products failed", zap.Error(err))
		return fmt.Errorf("persist products: %w", err)
	}
	return nil
}

func (s *Store) saveRates(ctx context.Context, r ExchangeRates) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode rates: %w", err)
	}
	if err := s.kv.Set(ctx, s.ratesKey, string(raw)); err != nil {
		s.log.Error("persist rates failed", zap.Error(err))
		return fmt.Errorf("persist rates: %w", err)
	}
	return nil
}

// report must be called with s.mu held.
func (s *Store) report(op string, err error) {
	if s.obs != nil {
		s.obs.Mutation(op, err, len(s.products))
	}
}

// roundHalfUp rounds to the nearest integer with halves going up. Amounts
// are never negative, so away-from-zero and half-up agree.
func roundHalfUp(d decimal.Decimal) float64 {
	return d.Round(0).InexactFloat64()
}

func notFound(id string) error {
	return fmt.Errorf("%w: %q", ErrNotFound, id)
}

func outOfRange(i, n int) error {
	return fmt.Errorf("%w: index %d, %d prices", ErrOutOfRange, i, n)
}
