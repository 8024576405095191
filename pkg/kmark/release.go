package kmark

// ReleasePartition discards all state belonging to a coordinator partition
// this coordinator no longer owns: every queued-but-unsent batch whose
// decision originated from txnPartition, across all destinations, and every
// pending ledger entry scoped to it.
//
// Discarded markers are abandoned, not forwarded: ownership loss means the
// superseding coordinator owns the decisions now. Batches and ledger entries
// for other partitions are left untouched, and batch order among a queue's
// survivors is preserved. An enqueue for txnPartition racing this call may
// either be dropped or survive; either is acceptable to the superseded
// coordinator.
func (m *Manager[T]) ReleasePartition(txnPartition int32) {
	var droppedBatches int
	for _, da := range m.dests.all() {
		droppedBatches += da.d.q.filter(func(b Batch) bool {
			return b.TxnPartition != txnPartition
		})
	}

	droppedPending := m.pending.deleteFunc(func(k pendingKey, _ T) bool {
		return k.txnPartition == txnPartition
	})

	m.cfg.logger.Log(LogLevelInfo, "released coordinator partition",
		"txn_partition", txnPartition,
		"dropped_batches", droppedBatches,
		"dropped_pending", droppedPending,
	)
	m.cfg.hooks.each(func(h Hook) {
		if h, ok := h.(HookPartitionRelease); ok {
			h.OnPartitionRelease(txnPartition, droppedBatches, droppedPending)
		}
	})
}
