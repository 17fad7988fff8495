// Package gateway is the HTTP adapter to the POS server and the host
// connectivity signal. It normalizes transport outcomes into the domain error
// taxonomy: 4xx business rejections become RejectionError, everything
// transport-level (timeouts, resets, 5xx, open breaker) becomes NetworkError,
// and a 409 on a reused idempotency key becomes a successful
// already-processed invoice.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Pratik-1-11/posfrontend-sub000/catalog"
	"github.com/Pratik-1-11/posfrontend-sub000/domain"
	"github.com/Pratik-1-11/posfrontend-sub000/internal/logging"
	"github.com/Pratik-1-11/posfrontend-sub000/offline"
	"github.com/Pratik-1-11/posfrontend-sub000/pipeline"
)

// HTTPGateway talks to the POS server REST API.
type HTTPGateway struct {
	base string
	hc   *http.Client
	cb   *gobreaker.CircuitBreaker
	log  *slog.Logger
}

// New builds the gateway. The circuit breaker fails calls fast after five
// consecutive transport failures, so a flapping link lands sales in the
// offline queue instead of burning the full attempt timeout each time.
func New(baseURL string, timeout time.Duration, log *slog.Logger) *HTTPGateway {
	if log == nil {
		log = logging.New("gateway")
	}
	settings := gobreaker.Settings{
		Name:    "pos-server",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &HTTPGateway{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: timeout},
		cb:   gobreaker.NewCircuitBreaker(settings),
		log:  log,
	}
}

type orderItem struct {
	ProductID string `json:"productId"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int64  `json:"quantity"`
}

type paymentDetails struct {
	TenderedByMethod map[string]int64 `json:"tenderedByMethod"`
	ChangeAmount     int64            `json:"changeAmount"`
	DebtDelta        int64            `json:"debtDelta"`
}

type orderRequest struct {
	Items          []orderItem    `json:"items"`
	PaymentMethod  string         `json:"paymentMethod"`
	PaymentDetails paymentDetails `json:"paymentDetails"`
	CustomerID     string         `json:"customerId,omitempty"`
	IdempotencyKey string         `json:"idempotencyKey"`
}

type orderResponse struct {
	InvoiceID        string `json:"invoiceId"`
	Total            int64  `json:"total"`
	AlreadyProcessed bool   `json:"alreadyProcessed"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// SubmitOrder posts one sale. The idempotency key travels in the body; the
// server is the sole source of truth for invoice numbering and stock.
func (g *HTTPGateway) SubmitOrder(ctx context.Context, sub domain.OrderSubmission) (domain.Invoice, error) {
	req := orderRequest{
		Items:          make([]orderItem, 0, len(sub.Lines)),
		PaymentMethod:  string(sub.Allocation.Method),
		CustomerID:     sub.CustomerID,
		IdempotencyKey: sub.IdempotencyKey,
		PaymentDetails: paymentDetails{
			TenderedByMethod: make(map[string]int64, len(sub.Allocation.TenderedCents)),
			ChangeAmount:     sub.Allocation.ChangeCents,
			DebtDelta:        sub.Allocation.DebtDeltaCents,
		},
	}
	for _, l := range sub.Lines {
		req.Items = append(req.Items, orderItem{ProductID: l.ProductID, UnitPrice: l.UnitPriceCents, Quantity: l.Quantity})
	}
	for m, v := range sub.Allocation.TenderedCents {
		req.PaymentDetails.TenderedByMethod[string(m)] = v
	}

	body, err := json.Marshal(req)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("marshal order: %w", err)
	}

	res, err := g.do(ctx, http.MethodPost, "/api/orders", body)
	if err != nil {
		return domain.Invoice{}, &domain.NetworkError{Op: "submit order", Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		var out orderResponse
		if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
			return domain.Invoice{}, &domain.NetworkError{Op: "submit order", Err: fmt.Errorf("decode response: %w", err)}
		}
		return domain.Invoice{InvoiceID: out.InvoiceID, TotalCents: out.Total, AlreadyProcessed: out.AlreadyProcessed}, nil

	case res.StatusCode == http.StatusConflict:
		// Reused idempotency key: the sale was recorded by an earlier
		// attempt whose acknowledgment never reached us. Success.
		var out orderResponse
		if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
			return domain.Invoice{}, &domain.NetworkError{Op: "submit order", Err: fmt.Errorf("decode duplicate response: %w", err)}
		}
		return domain.Invoice{InvoiceID: out.InvoiceID, TotalCents: out.Total, AlreadyProcessed: true}, nil

	case res.StatusCode >= 400 && res.StatusCode < 500:
		return domain.Invoice{}, &domain.RejectionError{Status: res.StatusCode, Reason: readErrorReason(res.Body)}

	default:
		return domain.Invoice{}, &domain.NetworkError{Op: "submit order", Err: fmt.Errorf("server status %d", res.StatusCode)}
	}
}

// FetchProducts reads the full product list.
func (g *HTTPGateway) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	res, err := g.do(ctx, http.MethodGet, "/api/products", nil)
	if err != nil {
		return nil, &domain.NetworkError{Op: "fetch products", Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &domain.NetworkError{Op: "fetch products", Err: fmt.Errorf("server status %d", res.StatusCode)}
	}
	var products []domain.Product
	if err := json.NewDecoder(res.Body).Decode(&products); err != nil {
		return nil, &domain.NetworkError{Op: "fetch products", Err: fmt.Errorf("decode response: %w", err)}
	}
	return products, nil
}

// FetchCustomer reads one customer's record including the ledger fields.
// A 404 is authoritative and returns domain.ErrNotFound.
func (g *HTTPGateway) FetchCustomer(ctx context.Context, id string) (domain.Customer, error) {
	res, err := g.do(ctx, http.MethodGet, "/api/customers/"+id, nil)
	if err != nil {
		return domain.Customer{}, &domain.NetworkError{Op: "fetch customer", Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return domain.Customer{}, domain.ErrNotFound
	case res.StatusCode < 200 || res.StatusCode >= 300:
		return domain.Customer{}, &domain.NetworkError{Op: "fetch customer", Err: fmt.Errorf("server status %d", res.StatusCode)}
	}
	var customer domain.Customer
	if err := json.NewDecoder(res.Body).Decode(&customer); err != nil {
		return domain.Customer{}, &domain.NetworkError{Op: "fetch customer", Err: fmt.Errorf("decode response: %w", err)}
	}
	return customer, nil
}

// do executes one HTTP call through the breaker. Responses with a status code
// come back as (resp, nil) here; only transport failures count against the
// breaker. 5xx is classified by the callers, not here, so a misbehaving
// endpoint does not starve the catalog reads through a shared open breaker.
func (g *HTTPGateway) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	out, err := g.cb.Execute(func() (interface{}, error) {
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, g.base+path, rd)
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return g.hc.Do(req)
	})
	if err != nil {
		return nil, err
	}
	return out.(*http.Response), nil
}

func readErrorReason(r io.Reader) string {
	var er errorResponse
	if err := json.NewDecoder(r).Decode(&er); err == nil && er.Error != "" {
		return er.Error
	}
	return "rejected"
}

var (
	_ pipeline.Gateway = (*HTTPGateway)(nil)
	_ offline.Gateway  = (*HTTPGateway)(nil)
	_ catalog.Gateway  = (*HTTPGateway)(nil)
)
