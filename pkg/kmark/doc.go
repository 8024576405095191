// Package kmark implements the marker dispatch core of a transaction
// coordinator: the bookkeeping that turns finalized transaction decisions
// into per-broker batched WriteTxnMarkers requests.
//
// When a transaction commits or aborts, every broker leading a partition the
// transaction touched must receive a marker sealing the transaction's records
// as visible or discarded. This package tracks which brokers still owe
// markers, batches markers per destination, and supports tearing down the
// subset of state belonging to a coordinator partition whose ownership moved
// elsewhere.
//
// The package does no I/O. Leader and endpoint resolution are consumed
// through the Metadata interface, and drained requests are handed to the
// caller paired with a completion promise; the caller owns the transport and
// any retry scheduling.
//
// The flow is:
//
//  1. The transaction state machine claims completion ownership with
//     TryAddPending; exactly one concurrent claimer wins.
//  2. The winner calls Route, which resolves each topic partition's leader,
//     registers destinations, and enqueues one single-marker batch per
//     destination.
//  3. DrainAll (or the optional Run loop) snapshots every destination's
//     queue, regroups batches by (coordinator partition, coordinator epoch),
//     and yields one Send per group.
//  4. The transport invokes the Send's Promise with the response; the
//     default promise removes fully successful producers from the pending
//     ledger and leaves failures pending for the external retry driver.
//  5. On loss of a coordinator partition, ReleasePartition discards that
//     partition's queued markers and pending entries, leaving all other
//     state untouched.
package kmark
