// Package pipeline turns a validated payment allocation into a recorded sale:
// one network submission tagged with a stable idempotency key, or a durable
// queue entry when the network cannot confirm it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Pratik-1-11/posfrontend-sub000/domain"
	"github.com/Pratik-1-11/posfrontend-sub000/internal/logging"
	"github.com/Pratik-1-11/posfrontend-sub000/internal/observ"
)

// Status is the outcome of one commit attempt.
type Status string

const (
	// StatusCommitted: the server recorded the sale and issued an invoice.
	StatusCommitted Status = "COMMITTED"
	// StatusQueued: the sale is durably queued for replay; the result carries
	// a local placeholder ref, never a server invoice number.
	StatusQueued Status = "QUEUED"
	// StatusRejected: the server refused the sale for business reasons.
	// Retrying would fail identically, so nothing is queued.
	StatusRejected Status = "REJECTED"
)

// Result is the typed outcome callers must handle explicitly. The caller
// clears the cart only on COMMITTED or QUEUED, never on REJECTED, so the
// operator can correct and resubmit.
type Result struct {
	Status  Status
	Invoice *domain.Invoice // COMMITTED only
	// LocalRef identifies a QUEUED sale until the sync manager reconciles it
	// with the server invoice.
	LocalRef string
	Reason   string // REJECTED only
	// ProductIDs lists products whose cached stock is stale after a commit.
	// The pipeline does not refresh the cache itself; cache policy belongs to
	// the caller.
	ProductIDs []string
}

type noGate struct{}

func (noGate) Lock()   {}
func (noGate) Unlock() {}

// Pipeline orchestrates one sale at a time. The gate serializes queue-head
// access with the sync manager.
type Pipeline struct {
	gw             Gateway
	queue          QueueStore
	probe          ConnectivityProbe
	clock          Clock
	gate           sync.Locker
	log            *slog.Logger
	metrics        *observ.Metrics
	attemptTimeout time.Duration
}

type Option func(*Pipeline)

func WithClock(c Clock) Option                  { return func(p *Pipeline) { p.clock = c } }
func WithGate(g sync.Locker) Option             { return func(p *Pipeline) { p.gate = g } }
func WithLogger(l *slog.Logger) Option          { return func(p *Pipeline) { p.log = l } }
func WithMetrics(m *observ.Metrics) Option      { return func(p *Pipeline) { p.metrics = m } }
func WithAttemptTimeout(d time.Duration) Option { return func(p *Pipeline) { p.attemptTimeout = d } }

// New constructs a Pipeline. Defaults: system clock, no gate, 10s per attempt.
func New(gw Gateway, queue QueueStore, probe ConnectivityProbe, opts ...Option) *Pipeline {
	p := &Pipeline{
		gw:             gw,
		queue:          queue,
		probe:          probe,
		clock:          SystemClock{},
		gate:           noGate{},
		log:            logging.New("pipeline"),
		metrics:        observ.NewMetrics(nil),
		attemptTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Commit freezes the cart into an OrderSubmission and records it: directly on
// the server when reachable, otherwise in the durable queue. The idempotency
// key is generated here, once, and reused verbatim by every later retry.
//
// Returns a *domain.ValidationError when the allocation does not match the
// cart; storage failures while queueing are returned as plain errors.
func (p *Pipeline) Commit(ctx context.Context, lines []domain.CartLine, alloc domain.PaymentAllocation, customerID string) (Result, error) {
	if len(lines) == 0 {
		return Result{}, &domain.ValidationError{Field: "lines", Reason: "empty cart"}
	}
	total := domain.CartTotalCents(lines)
	if err := alloc.Validate(total); err != nil {
		return Result{}, err
	}

	sub := domain.OrderSubmission{
		IdempotencyKey: uuid.NewString(),
		Lines:          lines,
		Allocation:     alloc,
		CustomerID:     customerID,
		CreatedAtLocal: p.clock.Now(),
	}

	p.gate.Lock()
	defer p.gate.Unlock()

	if !p.probe.Online() {
		p.log.Info("device offline, queueing sale", "key", sub.IdempotencyKey)
		return p.enqueue(ctx, sub)
	}

	// The operator may abandon the screen mid-flight; the request still runs
	// to completion under its own timeout and the outcome is honored, so a
	// sale the operator believes was submitted is never silently lost.
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.attemptTimeout)
	defer cancel()

	inv, err := p.gw.SubmitOrder(actx, sub)
	switch {
	case err == nil:
		p.metrics.CommitOutcomes.WithLabelValues("committed").Inc()
		p.log.Info("sale committed", "key", sub.IdempotencyKey, "invoice", inv.InvoiceID)
		return Result{
			Status:     StatusCommitted,
			Invoice:    &inv,
			ProductIDs: sub.ProductIDs(),
		}, nil

	case domain.IsRejection(err):
		var rej *domain.RejectionError
		errors.As(err, &rej)
		p.metrics.CommitOutcomes.WithLabelValues("rejected").Inc()
		p.log.Warn("sale rejected by server", "key", sub.IdempotencyKey, "status", rej.Status, "reason", rej.Reason)
		return Result{Status: StatusRejected, Reason: rej.Reason}, nil

	default:
		// Timeout, DNS, connection reset, 5xx: the only path that queues
		// after an attempted send.
		p.log.Warn("network failure, queueing sale", "key", sub.IdempotencyKey, "err", err)
		return p.enqueue(ctx, sub)
	}
}

func (p *Pipeline) enqueue(ctx context.Context, sub domain.OrderSubmission) (Result, error) {
	entry, err := p.queue.Append(ctx, sub)
	if err != nil {
		return Result{}, fmt.Errorf("append to offline queue: %w", err)
	}
	p.metrics.CommitOutcomes.WithLabelValues("queued").Inc()
	p.metrics.QueueDepth.Inc()
	return Result{Status: StatusQueued, LocalRef: entry.LocalRef()}, nil
}
