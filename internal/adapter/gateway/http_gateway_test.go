package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pratik-1-11/posfrontend-sub000/domain"
)

func testSubmission() domain.OrderSubmission {
	return domain.OrderSubmission{
		IdempotencyKey: "11111111-2222-3333-4444-555555555555",
		Lines:          []domain.CartLine{{ProductID: "p1", UnitPriceCents: 600, Quantity: 2}},
		Allocation: domain.PaymentAllocation{
			Method:        domain.MethodCash,
			TenderedCents: map[domain.Method]int64{domain.MethodCash: 1200},
		},
		CustomerID: "c1",
	}
}

func TestSubmitOrderSuccess(t *testing.T) {
	var got orderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(orderResponse{InvoiceID: "INV-7", Total: 1200})
	}))
	defer srv.Close()

	g := New(srv.URL, time.Second, nil)
	inv, err := g.SubmitOrder(context.Background(), testSubmission())
	require.NoError(t, err)

	assert.Equal(t, "INV-7", inv.InvoiceID)
	assert.Equal(t, int64(1200), inv.TotalCents)
	assert.False(t, inv.AlreadyProcessed)

	assert.Equal(t, "11111111-2222-3333-4444-555555555555", got.IdempotencyKey)
	assert.Equal(t, "CASH", got.PaymentMethod)
	assert.Equal(t, "c1", got.CustomerID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(1200), got.PaymentDetails.TenderedByMethod["CASH"])
}

func TestSubmitOrderDuplicateKeyIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(orderResponse{InvoiceID: "INV-7", Total: 1200})
	}))
	defer srv.Close()

	g := New(srv.URL, time.Second, nil)
	inv, err := g.SubmitOrder(context.Background(), testSubmission())
	require.NoError(t, err, "a reused idempotency key must not surface as an error")
	assert.True(t, inv.AlreadyProcessed)
	assert.Equal(t, "INV-7", inv.InvoiceID)
}

func TestSubmitOrderBusinessRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(errorResponse{Error: "stock unavailable"})
	}))
	defer srv.Close()

	g := New(srv.URL, time.Second, nil)
	_, err := g.SubmitOrder(context.Background(), testSubmission())

	var rej *domain.RejectionError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, http.StatusUnprocessableEntity, rej.Status)
	assert.Equal(t, "stock unavailable", rej.Reason)
	assert.False(t, domain.IsNetwork(err))
}

func TestSubmitOrderServerErrorIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := New(srv.URL, time.Second, nil)
	_, err := g.SubmitOrder(context.Background(), testSubmission())
	assert.True(t, domain.IsNetwork(err))
}

func TestSubmitOrderConnectionFailureIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	g := New(srv.URL, 200*time.Millisecond, nil)
	_, err := g.SubmitOrder(context.Background(), testSubmission())
	assert.True(t, domain.IsNetwork(err))
}

func TestBreakerFailsFastAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	g := New(srv.URL, 100*time.Millisecond, nil)
	for i := 0; i < 6; i++ {
		_, err := g.SubmitOrder(context.Background(), testSubmission())
		assert.True(t, domain.IsNetwork(err), "breaker-open failures classify as network failures")
	}
}

func TestFetchProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/products", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]domain.Product{
			{ID: "p1", Name: "Tea", PriceCents: 250, Stock: 10},
			{ID: "p2", Name: "Coffee", PriceCents: 400, Stock: 2},
		})
	}))
	defer srv.Close()

	g := New(srv.URL, time.Second, nil)
	products, err := g.FetchProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Coffee", products[1].Name)
}

func TestFetchCustomer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/customers/c1":
			_ = json.NewEncoder(w).Encode(domain.Customer{ID: "c1", Name: "Asha", BalanceCents: 900, CreditLimitCents: 1000})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	g := New(srv.URL, time.Second, nil)

	customer, err := g.FetchCustomer(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(900), customer.Ledger().BalanceCents)

	_, err = g.FetchCustomer(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSignalProbe(t *testing.T) {
	p := NewSignalProbe(true)
	assert.True(t, p.Online())

	restored := 0
	p.OnRestored(func() { restored++ })

	p.SetOnline(false)
	assert.False(t, p.Online())
	assert.Zero(t, restored)

	p.SetOnline(true)
	assert.Equal(t, 1, restored)

	// already online: no spurious restored events
	p.SetOnline(true)
	assert.Equal(t, 1, restored)
}
