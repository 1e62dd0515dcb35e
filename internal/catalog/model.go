package catalog

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// PriceOption is one purchasable duration tier. USDT is the reference amount
// that bulk updates derive BDT and INR from.
type PriceOption struct {
	Duration string  `json:"duration"`
	BDT      float64 `json:"bdt"`
	INR      float64 `json:"inr"`
	USDT     float64 `json:"usdt"`
	Note     string  `json:"note,omitempty"`
}

// Product is a sellable item. Prices are in display order; the first entry is
// the default selection.
type Product struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Subtitle    string        `json:"subtitle"`
	Description string        `json:"description,omitempty"`
	Image       string        `json:"image"`
	VideoURL    string        `json:"videoUrl,omitempty"`
	Categories  []string      `json:"categories"`
	Prices      []PriceOption `json:"prices"`
}

// ExchangeRates remembers the last multipliers used for bulk updates. It does
// not constrain stored prices.
type ExchangeRates struct {
	BDT float64 `json:"bdt"`
	INR float64 `json:"inr"`
}

type Currency string

const (
	BDT  Currency = "bdt"
	INR  Currency = "inr"
	USDT Currency = "usdt"
)

func ParseCurrency(s string) (Currency, error) {
	switch c := Currency(strings.ToLower(strings.TrimSpace(s))); c {
	case BDT, INR, USDT:
		return c, nil
	default:
		return "", fmt.Errorf("%w: unknown currency %q", ErrInvalidArgument, s)
	}
}

func (p PriceOption) Amount(c Currency) float64 {
	switch c {
	case BDT:
		return p.BDT
	case INR:
		return p.INR
	default:
		return p.USDT
	}
}

func (p *PriceOption) setAmount(c Currency, v float64) {
	switch c {
	case BDT:
		p.BDT = v
	case INR:
		p.INR = v
	case USDT:
		p.USDT = v
	}
}

// ProductPatch carries the fields UpdateProduct merges into a product. Nil
// fields are left alone. There is no ID field: ids are immutable.
type ProductPatch struct {
	Name        *string        `json:"name,omitempty"`
	Subtitle    *string        `json:"subtitle,omitempty"`
	Description *string        `json:"description,omitempty"`
	Image       *string        `json:"image,omitempty"`
	VideoURL    *string        `json:"videoUrl,omitempty"`
	Categories  *[]string      `json:"categories,omitempty"`
	Prices      *[]PriceOption `json:"prices,omitempty"`
}

func (pp ProductPatch) apply(p Product) Product {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Subtitle != nil {
		p.Subtitle = *pp.Subtitle
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Image != nil {
		p.Image = *pp.Image
	}
	if pp.VideoURL != nil {
		p.VideoURL = *pp.VideoURL
	}
	if pp.Categories != nil {
		p.Categories = slices.Clone(*pp.Categories)
	}
	if pp.Prices != nil {
		p.Prices = slices.Clone(*pp.Prices)
	}
	return p
}

// NewProduct is the admin form for CreateProduct; the store assigns the id.
type NewProduct struct {
	Name        string        `json:"name"`
	Subtitle    string        `json:"subtitle"`
	Description string        `json:"description,omitempty"`
	Image       string        `json:"image"`
	VideoURL    string        `json:"videoUrl,omitempty"`
	Categories  []string      `json:"categories,omitempty"`
	Prices      []PriceOption `json:"prices,omitempty"`
}

func validateAmount(field Currency, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be a finite number", ErrInvalidArgument, field)
	}
	if v < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidArgument, field)
	}
	return nil
}

func validatePriceOption(p PriceOption) error {
	if strings.TrimSpace(p.Duration) == "" {
		return fmt.Errorf("%w: duration is required", ErrInvalidArgument)
	}
	for _, c := range []Currency{BDT, INR, USDT} {
		if err := validateAmount(c, p.Amount(c)); err != nil {
			return err
		}
	}
	return nil
}

func validatePrices(prices []PriceOption) error {
	for i, p := range prices {
		if err := validatePriceOption(p); err != nil {
			return fmt.Errorf("prices[%d]: %w", i, err)
		}
	}
	return nil
}

func validateProduct(p Product) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	return validatePrices(p.Prices)
}

func cloneProduct(p Product) Product {
	p.Categories = slices.Clone(p.Categories)
	p.Prices = slices.Clone(p.Prices)
	return p
}

func cloneProducts(ps []Product) []Product {
	if ps == nil {
		return nil
	}
	out := make([]Product, len(ps))
	for i, p := range ps {
		out[i] = cloneProduct(p)
	}
	return out
}

func indexOf(ps []Product, id string) int {
	return slices.IndexFunc(ps, func(p Product) bool { return p.ID == id })
}

// FilterByCategory returns the products tagged with category, compared
// case-insensitively. An empty category matches everything.
func FilterByCategory(ps []Product, category string) []Product {
	category = strings.TrimSpace(category)
	if category == "" {
		return ps
	}

	out := make([]Product, 0, len(ps))
	for _, p := range ps {
		if slices.ContainsFunc(p.Categories, func(c string) bool { return strings.EqualFold(c, category) }) {
			out = append(out, p)
		}
	}
	return out
}
