package checkout_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"Storefront/internal/catalog"
	"Storefront/internal/checkout"
	"Storefront/internal/kv"
	"Storefront/pkg/kit"
)

func newCheckoutTS(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := catalog.Open(context.Background(), kv.NewMemStore(), catalog.Options{Log: zap.NewNop()})
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	if err := store.AddProduct(context.Background(), catalog.Product{ID: "empty", Name: "Empty"}); err != nil {
		t.Fatalf("add product: %v", err)
	}

	catalogTS := httptest.NewServer(catalog.NewHandler(&catalog.Server{Store: store, Log: zap.NewNop()}, catalog.HTTPDeps{}))
	t.Cleanup(catalogTS.Close)

	s := &checkout.Server{
		Catalog:        checkout.NewCatalogClient(catalogTS.URL + "/"),
		WhatsAppNumber: checkout.DefaultWhatsAppNumber,
		Log:            zap.NewNop(),
	}
	ts := httptest.NewServer(checkout.NewHandler(s, checkout.HTTPDeps{Log: zap.NewNop(), Service: "checkout"}))
	t.Cleanup(ts.Close)
	return ts
}

func postCheckout(t *testing.T, url string, body string, identified bool) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, url+"/checkout", strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if identified {
		req.Header.Set(kit.HeaderUserID, "u_1")
		req.Header.Set(kit.HeaderUserRole, kit.RoleUser)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	return resp, b
}

func TestCheckout_HandOff(t *testing.T) {
	ts := newCheckoutTS(t)

	resp, body := postCheckout(t, ts.URL, `{"product_id":"stream-kit","duration":"Lifetime"}`, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", resp.StatusCode, string(body))
	}

	var out struct {
		Message string `json:"message"`
		Link    string `json:"link"`
	}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Message != "Stream Kit Lifetime 5500 BDT | ₹4500 (BDT/INR only)" {
		t.Fatalf("unexpected message: %q", out.Message)
	}
	if !strings.HasPrefix(out.Link, "https://wa.me/"+checkout.DefaultWhatsAppNumber+"?text=Stream%20Kit") {
		t.Fatalf("unexpected link: %q", out.Link)
	}
}

func TestCheckout_Errors(t *testing.T) {
	ts := newCheckoutTS(t)

	cases := []struct {
		name       string
		body       string
		identified bool
		want       int
	}{
		{"anonymous", `{"product_id":"nova-vpn"}`, false, http.StatusUnauthorized},
		{"missing product id", `{"duration":"1 Day"}`, true, http.StatusBadRequest},
		{"unknown field", `{"product_id":"nova-vpn","qty":2}`, true, http.StatusBadRequest},
		{"unknown product", `{"product_id":"nope"}`, true, http.StatusNotFound},
		{"no prices", `{"product_id":"empty"}`, true, http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := postCheckout(t, ts.URL, tc.body, tc.identified)
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d body=%s", tc.want, resp.StatusCode, string(body))
			}
		})
	}
}

func TestCheckout_CatalogDown(t *testing.T) {
	s := &checkout.Server{Catalog: checkout.NewCatalogClient("http://127.0.0.1:1"), Log: zap.NewNop()}
	ts := httptest.NewServer(checkout.NewHandler(s, checkout.HTTPDeps{}))
	defer ts.Close()

	resp, _ := postCheckout(t, ts.URL, `{"product_id":"nova-vpn"}`, true)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}

	r, err := http.Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatalf("readyz: %v", err)
	}
	r.Body.Close()
	if r.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("readyz: expected 503, got %d", r.StatusCode)
	}
}
