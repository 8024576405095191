package kmark

// pendingKey identifies one in-flight transaction awaiting marker delivery.
// The key is scoped to the coordinator partition that owns the transaction so
// that partition migration can sweep exactly that partition's entries.
type pendingKey struct {
	txnPartition int32
	producerID   int64
}

const (
	fnvOffset32 = 2166136261
	fnvPrime32  = 16777619
)

func hashPendingKey(k pendingKey) uint32 {
	h := uint32(fnvOffset32)
	for i := 0; i < 32; i += 8 {
		h = (h ^ uint32(byte(k.txnPartition>>i))) * fnvPrime32
	}
	for i := 0; i < 64; i += 8 {
		h = (h ^ uint32(byte(k.producerID>>i))) * fnvPrime32
	}
	return h
}

// TryAddPending atomically records txn as the in-flight transaction for
// (txnPartition, producerID) if none is recorded, returning whether this
// call claimed it.
//
// Exactly one of any set of concurrent claims for the same key succeeds; the
// winning caller is the one responsible for driving the transaction's
// markers to completion via Route, and all losers must skip re-dispatch.
func (m *Manager[T]) TryAddPending(txnPartition int32, producerID int64, txn T) bool {
	return m.pending.tryInsert(pendingKey{txnPartition, producerID}, txn)
}

// RemovePending removes the pending entry for (txnPartition, producerID).
// Removing an absent entry is a no-op, so duplicate completion callbacks are
// harmless.
func (m *Manager[T]) RemovePending(txnPartition int32, producerID int64) {
	m.pending.delete(pendingKey{txnPartition, producerID})
}

// Pending returns the transaction state recorded for (txnPartition,
// producerID), if any.
func (m *Manager[T]) Pending(txnPartition int32, producerID int64) (T, bool) {
	return m.pending.get(pendingKey{txnPartition, producerID})
}

// NumPending returns how many transactions are currently awaiting marker
// completion.
func (m *Manager[T]) NumPending() int {
	return m.pending.len()
}
