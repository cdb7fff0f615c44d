package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	cartdomain "kalakriti-client/internal/domain/cart"
	"kalakriti-client/internal/domain/product"
	"kalakriti-client/internal/gateway"
	xerrors "kalakriti-client/internal/pkg/errors"
)

type fakeCart struct {
	lines   []cartdomain.Line
	cleared bool
}

func (f *fakeCart) Items() []cartdomain.Line { return f.lines }
func (f *fakeCart) Clear() error             { f.cleared = true; return nil }

type fakeLookup struct {
	products map[int64]product.Product
}

func (f *fakeLookup) Product(ctx context.Context, id int64) (*product.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, errors.New("product not found")
	}
	return &p, nil
}

func line(id int64, price float64, stock, qty int) cartdomain.Line {
	return cartdomain.Line{
		Product:  product.Product{ID: id, Title: "Sunset", Price: price, Stock: stock},
		Quantity: qty,
	}
}

func newCheckoutService(t *testing.T, handler http.Handler) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewService(gateway.New(srv.URL, 5*time.Second, nil), nil)
}

// backend that accepts the order and reports the payment status it is told to.
func checkoutBackend(t *testing.T, paymentStatus string, submitted *map[string]interface{}) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/orders", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		json.NewDecoder(r.Body).Decode(&req)
		if submitted != nil {
			*submitted = req
		}
		if r.Header.Get("Idempotency-Key") == "" {
			t.Error("order submitted without an Idempotency-Key")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": 501, "totalAmount": req["totalAmount"], "status": "PENDING",
		})
	})
	mux.HandleFunc("/api/payments/process", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": 601, "orderId": 501, "status": paymentStatus,
		})
	})
	return mux
}

// Requirement: checkout re-validates every line against live product state,
// prices the order from live prices, and clears the cart only after payment
// succeeds.
func TestService_Checkout(t *testing.T) {
	var submitted map[string]interface{}
	s := newCheckoutService(t, checkoutBackend(t, "SUCCESS", &submitted))

	// The cart snapshot is stale: the live price went up since add-to-cart.
	cart := &fakeCart{lines: []cartdomain.Line{line(1, 100, 10, 2)}}
	lookup := &fakeLookup{products: map[int64]product.Product{
		1: {ID: 1, Title: "Sunset", Price: 120, Stock: 10},
	}}

	result, err := s.Checkout(context.Background(), cart, lookup, 42, "12 Gallery Lane")

	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}
	if result.Order == nil || result.Order.ID != 501 {
		t.Fatalf("result.Order = %+v, want order 501", result.Order)
	}
	if got := submitted["totalAmount"]; got != float64(240) {
		t.Errorf("submitted totalAmount = %v, want 240 (live price, not snapshot)", got)
	}
	if !cart.cleared {
		t.Error("cart was not cleared after successful payment")
	}
}

// Requirement: when live stock cannot cover a line, nothing is submitted.
func TestService_Checkout_StockShortfall(t *testing.T) {
	var submitted map[string]interface{}
	s := newCheckoutService(t, checkoutBackend(t, "SUCCESS", &submitted))

	cart := &fakeCart{lines: []cartdomain.Line{line(1, 100, 10, 5)}}
	lookup := &fakeLookup{products: map[int64]product.Product{
		1: {ID: 1, Title: "Sunset", Price: 100, Stock: 2}, // another buyer got there first
	}}

	_, err := s.Checkout(context.Background(), cart, lookup, 42, "12 Gallery Lane")

	if !errors.Is(err, xerrors.ErrOutOfStock) {
		t.Fatalf("Checkout() error = %v, want out of stock", err)
	}
	if submitted != nil {
		t.Error("an order was submitted despite the stock shortfall")
	}
	if cart.cleared {
		t.Error("cart was cleared despite the failed checkout")
	}
}

// Requirement: a declined payment keeps the order and cart so the user can
// retry, and surfaces as a conflict.
func TestService_Checkout_PaymentDeclined(t *testing.T) {
	s := newCheckoutService(t, checkoutBackend(t, "FAILED", nil))

	cart := &fakeCart{lines: []cartdomain.Line{line(1, 100, 10, 1)}}
	lookup := &fakeLookup{products: map[int64]product.Product{
		1: {ID: 1, Title: "Sunset", Price: 100, Stock: 10},
	}}

	result, err := s.Checkout(context.Background(), cart, lookup, 42, "12 Gallery Lane")

	if !errors.Is(err, xerrors.ErrConflict) {
		t.Fatalf("Checkout() error = %v, want conflict", err)
	}
	if result == nil || result.Order == nil || result.Payment == nil {
		t.Fatal("declined checkout must still report the order and payment records")
	}
	if cart.cleared {
		t.Error("cart was cleared despite the declined payment")
	}
}

// Requirement: empty carts and missing addresses are rejected before any
// network traffic.
func TestService_Checkout_InputValidation(t *testing.T) {
	tests := []struct {
		name    string
		lines   []cartdomain.Line
		address string
	}{
		{name: "empty cart", lines: nil, address: "12 Gallery Lane"},
		{name: "missing address", lines: []cartdomain.Line{line(1, 100, 10, 1)}, address: ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := newCheckoutService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Errorf("unexpected request to %s", r.URL.Path)
			}))

			_, err := s.Checkout(context.Background(), &fakeCart{lines: test.lines}, &fakeLookup{}, 42, test.address)

			if !errors.Is(err, xerrors.ErrInvalidInput) {
				t.Errorf("Checkout() error = %v, want invalid input", err)
			}
		})
	}
}
