package kmark

import (
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kmsg"
)

// TxnResult is simply a named bool for a transaction's final outcome.
type TxnResult bool

const (
	// TxnAbort routes markers instructing brokers to discard the
	// transaction's records.
	TxnAbort TxnResult = false

	// TxnCommit routes markers instructing brokers to make the
	// transaction's records visible.
	TxnCommit TxnResult = true
)

// TopicPartitions is a topic and the partitions of it a transaction touched.
type TopicPartitions struct {
	Topic      string
	Partitions []int32
}

// Route turns one finalized transaction decision into queued markers, one
// single-marker batch per destination broker currently leading any of the
// decision's partitions.
//
// Each partition's leader is resolved through the manager's Metadata. A
// partition with no resolvable leader is skipped and reported in the
// returned error, which wraps ErrNoLeader per unresolved partition; all
// resolvable partitions are still enqueued. The caller decides whether to
// re-drive the decision for the reported partitions once metadata catches
// up.
//
// Route may be called concurrently for different transactions. Concurrent
// completion attempts for the same producer must be arbitrated through
// TryAddPending before calling Route; Route itself does not deduplicate.
func (m *Manager[T]) Route(txnPartition int32, producerID int64, producerEpoch int16, result TxnResult, coordinatorEpoch int32, tps []TopicPartitions) error {
	if m.closed.Load() {
		return ErrClosed
	}

	// Group partitions by their current leader, preserving first-seen
	// order of nodes and of topics within a node.
	var (
		order  []int32
		groups = make(map[int32][]kmsg.WriteTxnMarkersRequestMarkerTopic)
		errs   []error
	)
	for _, tp := range tps {
		for _, partition := range tp.Partitions {
			node, ok := m.meta.LeaderFor(tp.Topic, partition)
			if !ok {
				errs = append(errs, fmt.Errorf("%w: %s[%d]", ErrNoLeader, tp.Topic, partition))
				continue
			}
			topics, seen := groups[node]
			if !seen {
				order = append(order, node)
			}
			groups[node] = appendPartition(topics, tp.Topic, partition)
		}
	}

	// Re-check after the resolution pass: a Close between entry and here
	// has already swept all state, and registering past it would leave
	// destinations behind on a closed manager.
	if m.closed.Load() {
		return ErrClosed
	}

	for _, node := range order {
		addr, ok := m.meta.BrokerEndpoint(node, m.cfg.listener)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: node %d has no %s endpoint", ErrUnknownBroker, node, m.cfg.listener))
			continue
		}

		added, updated := m.dests.addOrUpdate(node, addr)
		if added {
			m.cfg.logger.Log(LogLevelDebug, "registered marker destination", "node", node, "host", addr.Host, "port", addr.Port)
			m.cfg.hooks.each(func(h Hook) {
				if h, ok := h.(HookBrokerAdd); ok {
					h.OnBrokerAdd(node, addr)
				}
			})
		} else if updated {
			m.cfg.logger.Log(LogLevelInfo, "marker destination endpoint changed", "node", node, "host", addr.Host, "port", addr.Port)
			m.cfg.hooks.each(func(h Hook) {
				if h, ok := h.(HookBrokerUpdate); ok {
					h.OnBrokerUpdate(node, addr)
				}
			})
		}

		marker := kmsg.WriteTxnMarkersRequestMarker{
			ProducerID:       producerID,
			ProducerEpoch:    producerEpoch,
			Committed:        bool(result),
			Topics:           groups[node],
			CoordinatorEpoch: coordinatorEpoch,
		}
		batch := Batch{
			TxnPartition:     txnPartition,
			CoordinatorEpoch: coordinatorEpoch,
			Markers:          []kmsg.WriteTxnMarkersRequestMarker{marker},
		}
		if err := m.dests.enqueue(node, batch); err != nil {
			// Unreachable while we registered the node just above
			// and nothing but ClearAll removes destinations, but an
			// invariant violation must not be swallowed.
			errs = append(errs, fmt.Errorf("node %d: %w", node, err))
			continue
		}

		m.cfg.logger.Log(LogLevelDebug, "queued transaction markers",
			"node", node,
			"txn_partition", txnPartition,
			"producer_id", producerID,
			"committed", bool(result),
		)
		m.cfg.hooks.each(func(h Hook) {
			if h, ok := h.(HookMarkersEnqueued); ok {
				h.OnMarkersEnqueued(node, txnPartition, 1)
			}
		})
	}

	return errors.Join(errs...)
}

// appendPartition adds partition to topic's partition list, adding the topic
// at the end if this is its first partition.
func appendPartition(topics []kmsg.WriteTxnMarkersRequestMarkerTopic, topic string, partition int32) []kmsg.WriteTxnMarkersRequestMarkerTopic {
	for i := range topics {
		if topics[i].Topic == topic {
			topics[i].Partitions = append(topics[i].Partitions, partition)
			return topics
		}
	}
	return append(topics, kmsg.WriteTxnMarkersRequestMarkerTopic{
		Topic:      topic,
		Partitions: []int32{partition},
	})
}
