package checkout_test

import (
	"errors"
	"net/url"
	"testing"

	"Storefront/internal/catalog"
	"Storefront/internal/checkout"
)

func TestFormatOrderMessage(t *testing.T) {
	p := catalog.Product{Name: "Stream Kit"}

	cases := []struct {
		name  string
		price catalog.PriceOption
		want  string
	}{
		{
			name:  "with usdt",
			price: catalog.PriceOption{Duration: "1 Month", BDT: 1320, INR: 1080, USDT: 12},
			want:  "Stream Kit 1 Month 1320 BDT | ₹1080 | 12 USDT",
		},
		{
			name:  "zero usdt with note",
			price: catalog.PriceOption{Duration: "Lifetime", BDT: 5500, INR: 4500, Note: "(BDT/INR only)"},
			want:  "Stream Kit Lifetime 5500 BDT | ₹4500 (BDT/INR only)",
		},
		{
			name:  "fractional usdt",
			price: catalog.PriceOption{Duration: "1 Day", BDT: 55, INR: 45, USDT: 0.5},
			want:  "Stream Kit 1 Day 55 BDT | ₹45 | 0.5 USDT",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := checkout.FormatOrderMessage(p, tc.price); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSelectPrice(t *testing.T) {
	p := catalog.Product{Prices: []catalog.PriceOption{
		{Duration: "1 Day", USDT: 1},
		{Duration: "7 Days", USDT: 5},
	}}

	got, err := checkout.SelectPrice(p, "7 Days")
	if err != nil || got.USDT != 5 {
		t.Fatalf("exact match: got %+v err=%v", got, err)
	}

	got, err = checkout.SelectPrice(p, "1 Year")
	if err != nil || got.Duration != "1 Day" {
		t.Fatalf("fallback: got %+v err=%v", got, err)
	}

	if _, err := checkout.SelectPrice(catalog.Product{}, ""); !errors.Is(err, checkout.ErrNoPrices) {
		t.Fatalf("expected ErrNoPrices, got %v", err)
	}
}

func TestWhatsAppLink(t *testing.T) {
	msg := "Nova VPN 1 Day 110 BDT | ₹90 | 1 USDT & more"
	link := checkout.WhatsAppLink("8801793686958", msg)

	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Host != "wa.me" || u.Path != "/8801793686958" {
		t.Fatalf("unexpected link target: %s", link)
	}
	if got := u.Query().Get("text"); got != msg {
		t.Fatalf("text = %q, want %q", got, msg)
	}
	if u.RawQuery[:len("text=Nova%20VPN")] != "text=Nova%20VPN" {
		t.Fatalf("spaces should be percent-encoded: %s", u.RawQuery)
	}
}
