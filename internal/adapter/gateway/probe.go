package gateway

import (
	"sync"
	"sync/atomic"
)

// SignalProbe carries the host environment's online/offline indicator into
// the pipeline and the sync manager. Advisory: a definitive network failure
// on attempt always overrides an "online" reading.
type SignalProbe struct {
	online atomic.Bool

	mu         sync.Mutex
	onRestored []func()
}

func NewSignalProbe(initiallyOnline bool) *SignalProbe {
	p := &SignalProbe{}
	p.online.Store(initiallyOnline)
	return p
}

// Online reports the last signal from the host environment.
func (p *SignalProbe) Online() bool { return p.online.Load() }

// SetOnline records the host signal. An offline-to-online transition fires
// the restored callbacks (typically the sync manager's Notify).
func (p *SignalProbe) SetOnline(v bool) {
	was := p.online.Swap(v)
	if v && !was {
		p.mu.Lock()
		fns := append([]func(){}, p.onRestored...)
		p.mu.Unlock()
		for _, fn := range fns {
			fn()
		}
	}
}

// OnRestored registers a callback for connectivity-restored transitions.
func (p *SignalProbe) OnRestored(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onRestored = append(p.onRestored, fn)
}
