package kmark

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/twmb/franz-go/pkg/kmsg"
)

func markerFor(pid int64, coordinatorEpoch int32) kmsg.WriteTxnMarkersRequestMarker {
	return kmsg.WriteTxnMarkersRequestMarker{
		ProducerID:       pid,
		ProducerEpoch:    1,
		Committed:        true,
		Topics:           []kmsg.WriteTxnMarkersRequestMarkerTopic{{Topic: "t", Partitions: []int32{0}}},
		CoordinatorEpoch: coordinatorEpoch,
	}
}

// Three batches for one destination with groups (1,5), (1,5), (2,5) must
// drain into exactly two requests: one concatenating the first two batches'
// markers, one carrying the third's.
func TestDrainGrouping(t *testing.T) {
	m := newTestManager(t, newTestMeta())
	m.dests.addOrUpdate(1, BrokerEndpoint{Host: "b1"})
	m.dests.enqueue(1, Batch{TxnPartition: 1, CoordinatorEpoch: 5, Markers: []kmsg.WriteTxnMarkersRequestMarker{markerFor(10, 5)}})
	m.dests.enqueue(1, Batch{TxnPartition: 1, CoordinatorEpoch: 5, Markers: []kmsg.WriteTxnMarkersRequestMarker{markerFor(11, 5)}})
	m.dests.enqueue(1, Batch{TxnPartition: 2, CoordinatorEpoch: 5, Markers: []kmsg.WriteTxnMarkersRequestMarker{markerFor(12, 5)}})

	sends := collectSends(m)
	if len(sends) != 2 {
		t.Fatalf("drained %d sends, wanted 2", len(sends))
	}

	first, second := sends[0], sends[1]
	if first.TxnPartition != 1 || first.CoordinatorEpoch != 5 {
		t.Errorf("first send group (%d,%d), wanted (1,5)", first.TxnPartition, first.CoordinatorEpoch)
	}
	if pids := producerIDs(first.Req); !cmp.Equal(pids, []int64{10, 11}) {
		t.Errorf("first send producers %v, wanted [10 11] in insertion order", pids)
	}
	if second.TxnPartition != 2 {
		t.Errorf("second send group partition %d, wanted 2", second.TxnPartition)
	}
	if pids := producerIDs(second.Req); !cmp.Equal(pids, []int64{12}) {
		t.Errorf("second send producers %v, wanted [12]", pids)
	}

	if again := collectSends(m); len(again) != 0 {
		t.Errorf("second drain produced %d sends, wanted 0", len(again))
	}
}

// Two batches for the same producer in one (partition, epoch) group must
// drain as two separate marker entries, and the promise must account for
// each reply individually.
func TestDrainDuplicateProducer(t *testing.T) {
	setup := func(t *testing.T, hooks ...Hook) (*Manager[string], Send) {
		t.Helper()
		m := newTestManager(t, newTestMeta(), WithHooks(hooks...))
		m.dests.addOrUpdate(1, BrokerEndpoint{Host: "b1"})
		m.dests.enqueue(1, Batch{TxnPartition: 1, CoordinatorEpoch: 5, Markers: []kmsg.WriteTxnMarkersRequestMarker{markerFor(42, 5)}})
		m.dests.enqueue(1, Batch{TxnPartition: 1, CoordinatorEpoch: 5, Markers: []kmsg.WriteTxnMarkersRequestMarker{markerFor(42, 5)}})

		sends := collectSends(m)
		if len(sends) != 1 {
			t.Fatalf("drained %d sends, wanted 1", len(sends))
		}
		if pids := producerIDs(sends[0].Req); !cmp.Equal(pids, []int64{42, 42}) {
			t.Fatalf("drained producers %v, wanted both entries [42 42]", pids)
		}
		return m, sends[0]
	}

	reply := func() kmsg.WriteTxnMarkersResponseMarker {
		return kmsg.WriteTxnMarkersResponseMarker{
			ProducerID: 42,
			Topics: []kmsg.WriteTxnMarkersResponseMarkerTopic{{
				Topic:      "t",
				Partitions: []kmsg.WriteTxnMarkersResponseMarkerTopicPartition{{Partition: 0}},
			}},
		}
	}

	t.Run("both replies complete", func(t *testing.T) {
		var hooks countingHooks
		_, send := setup(t, &hooks)

		send.Promise(&kmsg.WriteTxnMarkersResponse{
			Markers: []kmsg.WriteTxnMarkersResponseMarker{reply(), reply()},
		}, nil)
		if got := hooks.completes.Load(); got != 2 {
			t.Errorf("%d completions hooked, wanted one per entry (2)", got)
		}
		if got := hooks.fails.Load(); got != 0 {
			t.Errorf("%d failures hooked, wanted 0", got)
		}
	})

	t.Run("single reply leaves one entry outstanding", func(t *testing.T) {
		var hooks countingHooks
		_, send := setup(t, &hooks)

		send.Promise(&kmsg.WriteTxnMarkersResponse{
			Markers: []kmsg.WriteTxnMarkersResponseMarker{reply()},
		}, nil)
		if got := hooks.completes.Load(); got != 1 {
			t.Errorf("%d completions hooked, wanted 1", got)
		}
		if got := hooks.fails.Load(); got != 1 {
			t.Errorf("%d failures hooked, wanted the unanswered entry (1)", got)
		}
	})
}

func producerIDs(req *kmsg.WriteTxnMarkersRequest) []int64 {
	var pids []int64
	for _, mk := range req.Markers {
		pids = append(pids, mk.ProducerID)
	}
	return pids
}

func TestDrainAddressesCurrentEndpoint(t *testing.T) {
	meta := newTestMeta()
	meta.addNode(1, "b1")
	meta.setLeader("t", 0, 1)
	m := newTestManager(t, meta)

	if err := m.Route(0, 42, 1, TxnCommit, 3, []TopicPartitions{{Topic: "t", Partitions: []int32{0}}}); err != nil {
		t.Fatal(err)
	}

	sends := collectSends(m)
	if len(sends) != 1 {
		t.Fatalf("drained %d sends, wanted 1", len(sends))
	}
	if sends[0].Node != 1 || sends[0].Addr.Host != "b1" {
		t.Errorf("send addressed to node %d at %q, wanted node 1 at b1", sends[0].Node, sends[0].Addr.Host)
	}
}

func TestPromiseCompletion(t *testing.T) {
	meta := newTestMeta()
	meta.addNode(1, "b1")
	meta.setLeader("t", 0, 1)

	setup := func(t *testing.T, hooks ...Hook) (*Manager[string], Send) {
		t.Helper()
		m := newTestManager(t, meta, WithHooks(hooks...))
		if !m.TryAddPending(0, 42, "txn") {
			t.Fatal("TryAddPending failed")
		}
		if err := m.Route(0, 42, 1, TxnCommit, 3, []TopicPartitions{{Topic: "t", Partitions: []int32{0}}}); err != nil {
			t.Fatal(err)
		}
		sends := collectSends(m)
		if len(sends) != 1 {
			t.Fatalf("drained %d sends, wanted 1", len(sends))
		}
		return m, sends[0]
	}

	respond := func(code int16) *kmsg.WriteTxnMarkersResponse {
		return &kmsg.WriteTxnMarkersResponse{
			Markers: []kmsg.WriteTxnMarkersResponseMarker{{
				ProducerID: 42,
				Topics: []kmsg.WriteTxnMarkersResponseMarkerTopic{{
					Topic:      "t",
					Partitions: []kmsg.WriteTxnMarkersResponseMarkerTopicPartition{{Partition: 0, ErrorCode: code}},
				}},
			}},
		}
	}

	t.Run("success removes the pending entry", func(t *testing.T) {
		var hooks countingHooks
		m, send := setup(t, &hooks)

		send.Promise(respond(0), nil)
		if _, ok := m.Pending(0, 42); ok {
			t.Error("entry still pending after successful completion")
		}
		if hooks.completes.Load() != 1 {
			t.Errorf("%d completions hooked, wanted 1", hooks.completes.Load())
		}
	})

	t.Run("broker rejection leaves the entry pending", func(t *testing.T) {
		var hooks countingHooks
		m, send := setup(t, &hooks)

		send.Promise(respond(6), nil) // NOT_LEADER_FOR_PARTITION
		if _, ok := m.Pending(0, 42); !ok {
			t.Error("entry removed despite rejection; the retry driver needs it")
		}
		if hooks.fails.Load() != 1 {
			t.Errorf("%d failures hooked, wanted 1", hooks.fails.Load())
		}
	})

	t.Run("transport error leaves the entry pending", func(t *testing.T) {
		var hooks countingHooks
		m, send := setup(t, &hooks)

		send.Promise(nil, errors.New("connection reset"))
		if _, ok := m.Pending(0, 42); !ok {
			t.Error("entry removed despite transport failure")
		}
		if hooks.fails.Load() != 1 {
			t.Errorf("%d failures hooked, wanted 1", hooks.fails.Load())
		}
	})

	t.Run("marker missing from response is reported", func(t *testing.T) {
		var hooks countingHooks
		m, send := setup(t, &hooks)

		send.Promise(&kmsg.WriteTxnMarkersResponse{}, nil)
		if _, ok := m.Pending(0, 42); !ok {
			t.Error("entry removed despite missing reply")
		}
		if hooks.fails.Load() != 1 {
			t.Errorf("%d failures hooked, wanted 1", hooks.fails.Load())
		}
	})
}

// Markers routed concurrently with drains are delivered exactly once across
// all drains.
func TestDrainConcurrentWithRoute(t *testing.T) {
	const (
		routines = 8
		perRout  = 200
	)

	meta := newTestMeta()
	for node := int32(1); node <= 3; node++ {
		meta.addNode(node, "b")
	}
	for p := int32(0); p < 3; p++ {
		meta.setLeader("t", p, p+1)
	}
	m := newTestManager(t, meta)

	var wg sync.WaitGroup
	for r := 0; r < routines; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			for i := 0; i < perRout; i++ {
				pid := int64(r*perRout + i)
				err := m.Route(int32(r%4), pid, 1, TxnCommit, 2, []TopicPartitions{
					{Topic: "t", Partitions: []int32{int32(pid % 3)}},
				})
				if err != nil {
					t.Error(err)
					return
				}
			}
		}(r)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	seen := make(map[int64]bool)
	collect := func() {
		m.DrainAll(func(s Send) {
			for _, pid := range producerIDs(s.Req) {
				if seen[pid] {
					t.Errorf("producer %d drained twice", pid)
				}
				seen[pid] = true
			}
		})
	}
	for {
		collect()
		select {
		case <-done:
			collect()
			if len(seen) != routines*perRout {
				t.Fatalf("drained %d unique producers, wanted %d", len(seen), routines*perRout)
			}
			return
		default:
		}
	}
}
