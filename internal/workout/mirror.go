package workout

import (
	"context"
	"log"
	"sync"
)

// Mirror owns the published Snapshot. Publish may be called from any
// goroutine and never blocks; updates are applied and subscribers notified on
// the goroutine running Run, which plays the role of the UI context.
type Mirror struct {
	queueMu sync.Mutex
	queue   []Update
	wake    chan struct{}

	// Owned by the Run goroutine
	projection Projection

	latestMu sync.RWMutex
	latest   Snapshot

	subsMu sync.Mutex
	subs   []func(Snapshot)
}

// NewMirror creates a Mirror starting in NeedsAuthorization.
func NewMirror() *Mirror {
	p := NewProjection()
	return &Mirror{
		wake:       make(chan struct{}, 1),
		projection: p,
		latest:     p.Snapshot(),
	}
}

// Publish queues an update for the owner goroutine.
func (m *Mirror) Publish(u Update) {
	m.queueMu.Lock()
	m.queue = append(m.queue, u)
	m.queueMu.Unlock()

	// Non-blocking send - a pending wake-up already covers this update
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Subscribe registers fn to be called on the owner goroutine after each
// batch of updates that changed the snapshot.
func (m *Mirror) Subscribe(fn func(Snapshot)) {
	m.subsMu.Lock()
	m.subs = append(m.subs, fn)
	m.subsMu.Unlock()
}

// Snapshot returns the latest applied snapshot. Safe from any goroutine.
func (m *Mirror) Snapshot() Snapshot {
	m.latestMu.RLock()
	defer m.latestMu.RUnlock()
	return m.latest
}

// Run applies queued updates until ctx is done. It returns nil on cancellation.
func (m *Mirror) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			m.drain()
			return nil
		case <-m.wake:
			m.drain()
		}
	}
}

func (m *Mirror) drain() {
	m.queueMu.Lock()
	pending := m.queue
	m.queue = nil
	m.queueMu.Unlock()

	changed := false
	for _, u := range pending {
		if m.projection.Apply(u) {
			changed = true
		}
	}
	if !changed {
		return
	}

	snap := m.projection.Snapshot()
	m.latestMu.Lock()
	m.latest = snap
	m.latestMu.Unlock()

	m.subsMu.Lock()
	subs := make([]func(Snapshot), len(m.subs))
	copy(subs, m.subs)
	m.subsMu.Unlock()

	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[MIRROR] subscriber panic (recovered): %v", r)
				}
			}()
			fn(snap)
		}()
	}
}
