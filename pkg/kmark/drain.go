package kmark

import (
	"fmt"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kmsg"
)

// Send is one assembled outbound marker request, addressed to a
// destination's current endpoint and paired with its completion promise.
//
// The caller owns transmitting Req to Addr and must invoke Promise exactly
// once with the response or the transport error.
type Send struct {
	// Node is the destination broker.
	Node int32

	// Addr is the destination's endpoint at drain time.
	Addr BrokerEndpoint

	// TxnPartition and CoordinatorEpoch identify the group this request
	// was assembled from; every marker in Req shares them.
	TxnPartition     int32
	CoordinatorEpoch int32

	// Req carries the concatenated markers of the group.
	Req *kmsg.WriteTxnMarkersRequest

	// Promise is bound to this send's destination and markers. The
	// default promise removes each fully applied producer from the
	// pending ledger and reports rejected or unanswered markers through
	// hooks, leaving their entries pending for the external retry driver.
	Promise func(*kmsg.WriteTxnMarkersResponse, error)
}

// DrainAll assembles outbound requests from everything currently queued,
// calling fn once per request.
//
// Each destination's queue is consumed with a single atomic swap: batches
// enqueued after a destination's swap are left for a later drain, and
// concurrent DrainAll calls split the queued batches disjointly. Within a
// destination, drained batches are regrouped by (coordinator partition,
// coordinator epoch) in first-appearance order and each group's markers are
// concatenated into one request. Duplicate producer ids within a group are
// preserved as separate entries.
func (m *Manager[T]) DrainAll(fn func(Send)) {
	type groupKey struct {
		txnPartition     int32
		coordinatorEpoch int32
	}

	for _, da := range m.dests.all() {
		batches := da.d.q.drain()
		if len(batches) == 0 {
			continue
		}

		var (
			order  []groupKey
			groups = make(map[groupKey][]kmsg.WriteTxnMarkersRequestMarker)
		)
		for _, b := range batches {
			k := groupKey{b.TxnPartition, b.CoordinatorEpoch}
			if _, seen := groups[k]; !seen {
				order = append(order, k)
			}
			groups[k] = append(groups[k], b.Markers...)
		}

		var markers int
		for _, k := range order {
			group := groups[k]
			markers += len(group)
			fn(Send{
				Node:             da.d.node,
				Addr:             da.addr,
				TxnPartition:     k.txnPartition,
				CoordinatorEpoch: k.coordinatorEpoch,
				Req:              &kmsg.WriteTxnMarkersRequest{Markers: group},
				Promise:          m.promise(da.d.node, k.txnPartition, group),
			})
		}

		m.cfg.logger.Log(LogLevelDebug, "drained marker destination",
			"node", da.d.node,
			"requests", len(order),
			"markers", markers,
		)
		m.cfg.hooks.each(func(h Hook) {
			if h, ok := h.(HookDrain); ok {
				h.OnDrain(da.d.node, len(order), markers)
			}
		})
	}
}

// promise returns the completion promise for one drained group.
func (m *Manager[T]) promise(node, txnPartition int32, markers []kmsg.WriteTxnMarkersRequestMarker) func(*kmsg.WriteTxnMarkersResponse, error) {
	return func(resp *kmsg.WriteTxnMarkersResponse, err error) {
		if err != nil {
			m.cfg.logger.Log(LogLevelWarn, "marker request failed",
				"node", node,
				"txn_partition", txnPartition,
				"markers", len(markers),
				"err", err,
			)
			m.cfg.hooks.each(func(h Hook) {
				if h, ok := h.(HookMarkersFailed); ok {
					h.OnMarkersFailed(node, len(markers), err)
				}
			})
			return
		}

		// A group may legally carry the same producer more than once;
		// track outstanding markers per producer as a multiset.
		outstanding := make(map[int64]int, len(markers))
		for _, mk := range markers {
			outstanding[mk.ProducerID]++
		}

		for i := range resp.Markers {
			rm := &resp.Markers[i]
			if outstanding[rm.ProducerID] == 0 {
				continue
			}
			outstanding[rm.ProducerID]--

			var applyErr error
			for _, t := range rm.Topics {
				for _, p := range t.Partitions {
					if kerrErr := kerr.ErrorForCode(p.ErrorCode); kerrErr != nil && applyErr == nil {
						applyErr = fmt.Errorf("%s[%d]: %w", t.Topic, p.Partition, kerrErr)
					}
				}
			}
			if applyErr != nil {
				m.cfg.logger.Log(LogLevelWarn, "broker rejected markers",
					"node", node,
					"txn_partition", txnPartition,
					"producer_id", rm.ProducerID,
					"err", applyErr,
				)
				m.cfg.hooks.each(func(h Hook) {
					if h, ok := h.(HookMarkersFailed); ok {
						h.OnMarkersFailed(node, 1, applyErr)
					}
				})
				continue
			}

			m.RemovePending(txnPartition, rm.ProducerID)
			m.cfg.logger.Log(LogLevelDebug, "markers applied",
				"node", node,
				"txn_partition", txnPartition,
				"producer_id", rm.ProducerID,
			)
			m.cfg.hooks.each(func(h Hook) {
				if h, ok := h.(HookMarkersComplete); ok {
					h.OnMarkersComplete(node, rm.ProducerID)
				}
			})
		}

		for pid, n := range outstanding {
			if n == 0 {
				continue
			}
			m.cfg.logger.Log(LogLevelError, "marker missing from response",
				"node", node,
				"txn_partition", txnPartition,
				"producer_id", pid,
			)
			m.cfg.hooks.each(func(h Hook) {
				if h, ok := h.(HookMarkersFailed); ok {
					h.OnMarkersFailed(node, n, ErrNoResp)
				}
			})
		}
	}
}
