// Package offline owns the durable FIFO of not-yet-confirmed sales and the
// sync manager that replays them against the server when connectivity
// returns. Replay is strictly in enqueue order, one logical worker, with the
// submission's original idempotency key on every attempt.
package offline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Pratik-1-11/posfrontend-sub000/domain"
	"github.com/Pratik-1-11/posfrontend-sub000/internal/logging"
	"github.com/Pratik-1-11/posfrontend-sub000/internal/observ"
)

// Store is the durable queue storage contract. It must survive process
// restart and preserve insertion order.
type Store interface {
	Append(ctx context.Context, sub domain.OrderSubmission) (domain.QueueEntry, error)
	ListInOrder(ctx context.Context) ([]domain.QueueEntry, error)
	UpdateState(ctx context.Context, entry domain.QueueEntry) error
	Remove(ctx context.Context, seq int64) error
}

// Gateway submits one order; same error contract as the pipeline's gateway.
type Gateway interface {
	SubmitOrder(ctx context.Context, sub domain.OrderSubmission) (domain.Invoice, error)
}

// Clock is injected so tests control backoff eligibility.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SyncEvent is emitted when a queued sale reaches the server, so UI still
// showing the local placeholder can reconcile to the real invoice.
type SyncEvent struct {
	Seq              int64
	LocalRef         string
	InvoiceID        string
	AlreadyProcessed bool
}

// Manager drains the durable queue. A single mutex guards the queue head;
// the commit pipeline shares it via Gate so a drain and a fresh commit never
// interleave on the store.
type Manager struct {
	store   Store
	gw      Gateway
	clock   Clock
	log     *slog.Logger
	metrics *observ.Metrics

	maxAttempts int
	backoffBase time.Duration
	backoffMax  time.Duration

	gate   sync.Mutex
	notify chan struct{}

	onSynced func(SyncEvent)
	onFailed func(domain.QueueEntry)
}

type Option func(*Manager)

func WithMaxAttempts(n int) Option { return func(m *Manager) { m.maxAttempts = n } }

func WithBackoff(base, max time.Duration) Option {
	return func(m *Manager) { m.backoffBase, m.backoffMax = base, max }
}

func WithClock(c Clock) Option             { return func(m *Manager) { m.clock = c } }
func WithLogger(l *slog.Logger) Option     { return func(m *Manager) { m.log = l } }
func WithMetrics(x *observ.Metrics) Option { return func(m *Manager) { m.metrics = x } }

// OnSynced registers the sync-event callback. Called from the drain goroutine.
func OnSynced(fn func(SyncEvent)) Option { return func(m *Manager) { m.onSynced = fn } }

// OnFailed registers the callback for entries parked as FAILED (business
// rejection or retry ceiling). These need operator review; they are never
// silently dropped.
func OnFailed(fn func(domain.QueueEntry)) Option { return func(m *Manager) { m.onFailed = fn } }

// New constructs a Manager. Defaults: 8 attempts, 2s..5m exponential backoff.
func New(store Store, gw Gateway, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		gw:          gw,
		clock:       systemClock{},
		log:         logging.New("sync"),
		metrics:     observ.NewMetrics(nil),
		maxAttempts: 8,
		backoffBase: 2 * time.Second,
		backoffMax:  5 * time.Minute,
		notify:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Gate exposes the queue-head mutex for the commit pipeline.
func (m *Manager) Gate() sync.Locker { return &m.gate }

// Notify wakes the Run loop, typically on a connectivity-restored signal.
// Non-blocking; repeated signals coalesce.
func (m *Manager) Notify() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Recover demotes SENDING entries back to PENDING. Must run once after
// process start, before the first drain: the outcome of an attempt that was
// in flight when the process died is unknown, and re-sending is safe because
// the server de-duplicates on the idempotency key.
func (m *Manager) Recover(ctx context.Context) (int, error) {
	m.gate.Lock()
	defer m.gate.Unlock()

	entries, err := m.store.ListInOrder(ctx)
	if err != nil {
		return 0, err
	}
	demoted := 0
	for _, e := range entries {
		if e.State != domain.StateSending {
			continue
		}
		e.State = domain.StatePending
		if err := m.store.UpdateState(ctx, e); err != nil {
			return demoted, err
		}
		demoted++
		m.log.Info("demoted in-flight entry after restart", "seq", e.Seq, "key", e.Submission.IdempotencyKey)
	}
	return demoted, nil
}

// Drain replays pending entries strictly in enqueue order. It stops at the
// first entry whose outcome cannot be confirmed (transient failure or a
// backoff window that has not elapsed); later entries wait so the server
// observes real submission order. FAILED entries are terminal and skipped.
func (m *Manager) Drain(ctx context.Context) error {
	m.gate.Lock()
	defer m.gate.Unlock()

	entries, err := m.store.ListInOrder(ctx)
	if err != nil {
		return err
	}
	defer m.reportDepth(ctx)

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.State == domain.StateFailed {
			continue
		}
		now := m.clock.Now()
		if e.NextAttemptAt.After(now) {
			// head not yet eligible; ordering forbids skipping ahead
			return nil
		}

		e.State = domain.StateSending
		e.LastAttemptAt = now
		if err := m.store.UpdateState(ctx, e); err != nil {
			return err
		}

		inv, serr := m.gw.SubmitOrder(ctx, e.Submission)
		switch {
		case serr == nil:
			if err := m.store.Remove(ctx, e.Seq); err != nil {
				return err
			}
			m.metrics.SyncAttempts.WithLabelValues("synced").Inc()
			m.log.Info("queued sale synced", "seq", e.Seq, "invoice", inv.InvoiceID, "duplicate", inv.AlreadyProcessed)
			if m.onSynced != nil {
				m.onSynced(SyncEvent{
					Seq:              e.Seq,
					LocalRef:         e.LocalRef(),
					InvoiceID:        inv.InvoiceID,
					AlreadyProcessed: inv.AlreadyProcessed,
				})
			}

		case domain.IsRejection(serr):
			e.State = domain.StateFailed
			e.LastError = serr.Error()
			if err := m.store.UpdateState(ctx, e); err != nil {
				return err
			}
			m.metrics.SyncAttempts.WithLabelValues("failed").Inc()
			m.log.Warn("queued sale rejected by server, parked for review", "seq", e.Seq, "err", serr)
			if m.onFailed != nil {
				m.onFailed(e)
			}

		default:
			// Transient or ambiguous: the attempt's outcome is unconfirmed,
			// so this pass stops here and later entries wait.
			e.Attempts++
			e.LastError = serr.Error()
			if e.Attempts >= m.maxAttempts {
				e.State = domain.StateFailed
				e.LastError = (&domain.ExhaustedError{Seq: e.Seq, Attempts: e.Attempts}).Error() + ": " + serr.Error()
				if err := m.store.UpdateState(ctx, e); err != nil {
					return err
				}
				m.metrics.SyncAttempts.WithLabelValues("failed").Inc()
				m.log.Error("queued sale hit retry ceiling", "seq", e.Seq, "attempts", e.Attempts)
				if m.onFailed != nil {
					m.onFailed(e)
				}
				return nil
			}
			e.State = domain.StatePending
			e.NextAttemptAt = now.Add(m.backoff(e.Attempts))
			if err := m.store.UpdateState(ctx, e); err != nil {
				return err
			}
			m.metrics.SyncAttempts.WithLabelValues("retry").Inc()
			m.log.Warn("queued sale attempt failed, will retry", "seq", e.Seq, "attempts", e.Attempts, "next", e.NextAttemptAt)
			return nil
		}
	}
	return nil
}

// Failed lists entries parked for manual operator review.
func (m *Manager) Failed(ctx context.Context) ([]domain.QueueEntry, error) {
	entries, err := m.store.ListInOrder(ctx)
	if err != nil {
		return nil, err
	}
	var failed []domain.QueueEntry
	for _, e := range entries {
		if e.State == domain.StateFailed {
			failed = append(failed, e)
		}
	}
	return failed, nil
}

// Requeue resets a FAILED entry to PENDING with a clean attempt counter, for
// operator-driven retry after the underlying problem is fixed.
func (m *Manager) Requeue(ctx context.Context, seq int64) error {
	m.gate.Lock()
	defer m.gate.Unlock()

	entries, err := m.store.ListInOrder(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Seq != seq {
			continue
		}
		if e.State != domain.StateFailed {
			return &domain.ValidationError{Field: "seq", Reason: "entry is not in FAILED state"}
		}
		e.State = domain.StatePending
		e.Attempts = 0
		e.LastError = ""
		e.NextAttemptAt = time.Time{}
		return m.store.UpdateState(ctx, e)
	}
	return domain.ErrNotFound
}

// Run drains on connectivity-restored notifications and, when interval > 0,
// on a periodic ticker. Blocks until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	if _, err := m.Recover(ctx); err != nil {
		return err
	}

	var tick <-chan time.Time
	if interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.notify:
		case <-tick:
		}
		if err := m.Drain(ctx); err != nil && ctx.Err() == nil {
			m.log.Error("drain pass failed", "err", err)
		}
	}
}

// backoff is exponential: base * 2^(attempts-1), capped at max.
func (m *Manager) backoff(attempts int) time.Duration {
	d := m.backoffBase
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= m.backoffMax {
			return m.backoffMax
		}
	}
	if d > m.backoffMax {
		return m.backoffMax
	}
	return d
}

func (m *Manager) reportDepth(ctx context.Context) {
	entries, err := m.store.ListInOrder(ctx)
	if err != nil {
		return
	}
	m.metrics.QueueDepth.Set(float64(len(entries)))
}
