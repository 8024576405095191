package kmark

import (
	"sort"
	"sync"

	"github.com/twmb/franz-go/pkg/kmsg"
)

// Batch is one queued unit of marker work: the coordinator partition the
// decision originated from, the coordinator epoch fencing the decision, and
// the markers themselves. Batches are immutable once enqueued; multiple
// batches for one destination coexist in its queue until a drain regroups
// them.
type Batch struct {
	// TxnPartition is the coordinator's own log partition that owns the
	// transactions these markers finalize.
	TxnPartition int32

	// CoordinatorEpoch proves the decision was made by the current, not a
	// stale, coordinator generation.
	CoordinatorEpoch int32

	// Markers are the marker entries, one per producer.
	Markers []kmsg.WriteTxnMarkersRequestMarker
}

// dest is one destination broker: its node ID, current endpoint, and the
// queue of batches awaiting a drain. The endpoint is guarded by the owning
// registry's lock; the queue carries its own.
type dest struct {
	node int32
	addr BrokerEndpoint
	q    queue[Batch]
}

// dests maps node IDs to destinations. Destinations are created on first
// reference and live until clear; an endpoint is replaced in place when
// membership information changes, preserving the queue.
//
// The lock discipline is an optimistic read path with a write-lock
// double-check, since nearly every call after warmup finds the broker
// already registered with an unchanged endpoint.
type dests struct {
	mu sync.RWMutex
	m  map[int32]*dest
}

func newDests() *dests {
	return &dests{m: make(map[int32]*dest)}
}

// addOrUpdate registers node under addr, replacing a differing stored
// endpoint in place. It reports whether the destination was created and
// whether an existing endpoint was replaced; a repeat call with an identical
// endpoint does neither.
func (ds *dests) addOrUpdate(node int32, addr BrokerEndpoint) (added, updated bool) {
	ds.mu.RLock()
	d, ok := ds.m[node]
	same := ok && d.addr == addr
	ds.mu.RUnlock()
	if same {
		return false, false
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	if d, ok = ds.m[node]; ok {
		if d.addr == addr { // lost a race with an identical update
			return false, false
		}
		d.addr = addr
		return false, true
	}
	ds.m[node] = &dest{node: node, addr: addr}
	return true, false
}

// enqueue appends batch to node's queue. The destination must have been
// registered first; enqueueing to an unknown node is an internal invariant
// violation and returns ErrUnknownBroker.
func (ds *dests) enqueue(node int32, batch Batch) error {
	ds.mu.RLock()
	d, ok := ds.m[node]
	ds.mu.RUnlock()
	if !ok {
		return ErrUnknownBroker
	}
	d.q.push(batch)
	return nil
}

// queued returns a copy of node's current queue contents without draining,
// or nil for an unknown node.
func (ds *dests) queued(node int32) []Batch {
	ds.mu.RLock()
	d, ok := ds.m[node]
	ds.mu.RUnlock()
	if !ok {
		return nil
	}
	return d.q.snapshot()
}

// all returns a point-in-time snapshot of every destination with its current
// endpoint, ordered by node ID so drains produce requests deterministically.
func (ds *dests) all() []destAddr {
	ds.mu.RLock()
	snap := make([]destAddr, 0, len(ds.m))
	for _, d := range ds.m {
		snap = append(snap, destAddr{d, d.addr})
	}
	ds.mu.RUnlock()

	sort.Slice(snap, func(i, j int) bool { return snap[i].d.node < snap[j].d.node })
	return snap
}

type destAddr struct {
	d    *dest
	addr BrokerEndpoint
}

// clear drops every destination and its queue.
func (ds *dests) clear() {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.m = make(map[int32]*dest)
}
