package kmark

import (
	"sync"
	"sync/atomic"
	"testing"
)

type tp struct {
	topic     string
	partition int32
}

// testMeta is an in-memory Metadata whose leaders and endpoints can be
// mutated mid-test to simulate metadata propagation.
type testMeta struct {
	mu      sync.Mutex
	leaders map[tp]int32
	nodes   map[int32]BrokerEndpoint
}

func newTestMeta() *testMeta {
	return &testMeta{
		leaders: make(map[tp]int32),
		nodes:   make(map[int32]BrokerEndpoint),
	}
}

func (m *testMeta) addNode(node int32, host string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[node] = BrokerEndpoint{Host: host, Port: 9092, Listener: "PLAINTEXT"}
}

func (m *testMeta) setLeader(topic string, partition, node int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaders[tp{topic, partition}] = node
}

func (m *testMeta) dropLeader(topic string, partition int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.leaders, tp{topic, partition})
}

func (m *testMeta) LeaderFor(topic string, partition int32) (int32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	node, ok := m.leaders[tp{topic, partition}]
	return node, ok
}

func (m *testMeta) BrokerEndpoint(node int32, listener string) (BrokerEndpoint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ep, ok := m.nodes[node]
	if !ok || ep.Listener != listener {
		return BrokerEndpoint{}, false
	}
	return ep, true
}

// countingHooks implements every hook interface with atomic counters.
type countingHooks struct {
	brokerAdds     atomic.Int64
	brokerUpdates  atomic.Int64
	enqueues       atomic.Int64
	drains         atomic.Int64
	completes      atomic.Int64
	fails          atomic.Int64
	releases       atomic.Int64
	releaseBatches atomic.Int64
	releasePending atomic.Int64
}

func (c *countingHooks) OnBrokerAdd(int32, BrokerEndpoint) { c.brokerAdds.Add(1) }

func (c *countingHooks) OnBrokerUpdate(int32, BrokerEndpoint) { c.brokerUpdates.Add(1) }

func (c *countingHooks) OnMarkersEnqueued(_, _ int32, n int) { c.enqueues.Add(int64(n)) }

func (c *countingHooks) OnDrain(_ int32, _, _ int) { c.drains.Add(1) }

func (c *countingHooks) OnMarkersComplete(int32, int64) { c.completes.Add(1) }

func (c *countingHooks) OnMarkersFailed(_ int32, n int, _ error) { c.fails.Add(int64(n)) }
func (c *countingHooks) OnPartitionRelease(_ int32, batches, pending int) {
	c.releases.Add(1)
	c.releaseBatches.Add(int64(batches))
	c.releasePending.Add(int64(pending))
}

func newTestManager(t *testing.T, meta Metadata, opts ...Opt) *Manager[string] {
	t.Helper()
	m, err := NewManager[string](meta, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// collectSends drains everything currently queued into a slice.
func collectSends(m *Manager[string]) []Send {
	var sends []Send
	m.DrainAll(func(s Send) { sends = append(sends, s) })
	return sends
}
