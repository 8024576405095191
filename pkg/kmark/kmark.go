package kmark

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Manager tracks pending transactions and routes their completion markers to
// destination brokers. T is the caller's opaque transaction state type,
// recorded in the pending ledger at TryAddPending and returned by Pending.
//
// A manager is owned by one coordinator instance: constructed at coordinator
// startup and torn down with Close (or ClearAll on role demotion). All
// methods are safe for concurrent use.
type Manager[T any] struct {
	cfg  cfg
	meta Metadata

	dests   *dests
	pending *shardMap[pendingKey, T]

	drainCh chan struct{}
	dieCh   chan struct{}
	closed  atomic.Bool
	dieOnce sync.Once
}

// NewManager returns a manager that resolves leaders and endpoints through
// meta.
func NewManager[T any](meta Metadata, opts ...Opt) (*Manager[T], error) {
	if meta == nil {
		return nil, errors.New("nil metadata")
	}

	cfg := defaultCfg()
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.logger = &wrappedLogger{cfg.logger}

	return &Manager[T]{
		cfg:  cfg,
		meta: meta,

		dests:   newDests(),
		pending: newShardMap[pendingKey, T](cfg.ledgerShards, hashPendingKey),

		drainCh: make(chan struct{}, 1),
		dieCh:   make(chan struct{}),
	}, nil
}

// BrokerBatches returns a copy of a destination's currently queued batches
// without draining them, or nil if the broker is not a known destination.
// This exists for introspection and tests.
func (m *Manager[T]) BrokerBatches(node int32) []Batch {
	return m.dests.queued(node)
}

// ClearAll drops every pending ledger entry and every destination along with
// its queued batches. This is the full-reset path for coordinator shutdown
// or demotion; for losing a single coordinator partition, use
// ReleasePartition.
func (m *Manager[T]) ClearAll() {
	m.pending.clear()
	m.dests.clear()
	m.cfg.logger.Log(LogLevelInfo, "cleared all marker state")
}

// Close clears all state and marks the manager closed. Route returns
// ErrClosed after Close, and a concurrent Run returns. Close is idempotent.
//
// Callers should quiesce routing before closing: a Route that raced past its
// closed checks before Close swept state can still enqueue, and that state
// is only observed if the caller keeps draining a closed manager.
func (m *Manager[T]) Close() {
	m.dieOnce.Do(func() {
		m.closed.Store(true)
		close(m.dieCh)
		m.ClearAll()
	})
}

// TriggerDrain nudges a concurrent Run to drain now rather than at its next
// tick. Triggers coalesce: many triggers between drains cause one drain.
// Without a Run loop this is a no-op.
func (m *Manager[T]) TriggerDrain() {
	select {
	case m.drainCh <- struct{}{}:
	default:
	}
}

// Run drains queued markers into send on a fixed interval (see
// WithDrainInterval) and whenever TriggerDrain is called, blocking until ctx
// is canceled or the manager is closed. The send function transmits one
// request and arranges for its Promise to be invoked; Run itself performs no
// I/O.
//
// Run is optional sugar over calling DrainAll from the surrounding system's
// own driver; do not use both concurrently with a transport that assumes
// ordered sends.
func (m *Manager[T]) Run(ctx context.Context, send func(Send)) error {
	ticker := time.NewTicker(m.cfg.drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.dieCh:
			return ErrClosed
		case <-ticker.C:
		case <-m.drainCh:
		}
		m.DrainAll(send)
	}
}
