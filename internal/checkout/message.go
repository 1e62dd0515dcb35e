// Package checkout turns a product choice into the order message and the
// WhatsApp link the storefront hands the buyer off to.
package checkout

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"Storefront/internal/catalog"
)

var ErrNoPrices = errors.New("product has no price options")

// SelectPrice returns the option whose duration equals duration, falling back
// to the first option.
func SelectPrice(p catalog.Product, duration string) (catalog.PriceOption, error) {
	if len(p.Prices) == 0 {
		return catalog.PriceOption{}, ErrNoPrices
	}
	for _, o := range p.Prices {
		if o.Duration == duration {
			return o, nil
		}
	}
	return p.Prices[0], nil
}

// FormatOrderMessage renders "<name> <duration> <bdt> BDT | ₹<inr> | <usdt> USDT"
// with the USDT part dropped when it is zero and the note appended.
func FormatOrderMessage(p catalog.Product, o catalog.PriceOption) string {
	var b strings.Builder

	b.WriteString(p.Name)
	b.WriteByte(' ')
	b.WriteString(o.Duration)
	b.WriteByte(' ')
	b.WriteString(formatAmount(o.BDT))
	b.WriteString(" BDT | ₹")
	b.WriteString(formatAmount(o.INR))
	if o.USDT != 0 {
		b.WriteString(" | ")
		b.WriteString(formatAmount(o.USDT))
		b.WriteString(" USDT")
	}
	if o.Note != "" {
		b.WriteByte(' ')
		b.WriteString(o.Note)
	}

	return b.String()
}

func WhatsAppLink(number, message string) string {
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + url.PathEscape(number) + "?text=" + text
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
