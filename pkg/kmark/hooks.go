package kmark

// Hook is a hook to be called when something happens in kmark.
//
// The base Hook interface is useless, but wherever a hook can occur in
// kmark, the manager checks if your hook implements an appropriate interface.
// If so, your hook is called.
//
// This allows you to only hook in to behavior you care about, and it allows
// the package to add more hooks in the future.
//
// All hook interfaces in this package have Hook in the name. Hooks must be
// safe for concurrent use.
type Hook any

type hooks []Hook

func (hs hooks) each(fn func(Hook)) {
	for _, h := range hs {
		fn(h)
	}
}

// HookBrokerAdd is called when a destination broker is first registered.
type HookBrokerAdd interface {
	// OnBrokerAdd is passed the broker's node ID and its resolved
	// endpoint.
	OnBrokerAdd(node int32, addr BrokerEndpoint)
}

// HookBrokerUpdate is called when a known destination broker's endpoint is
// replaced because cluster membership information changed.
type HookBrokerUpdate interface {
	// OnBrokerUpdate is passed the broker's node ID and its new endpoint.
	OnBrokerUpdate(node int32, addr BrokerEndpoint)
}

// HookMarkersEnqueued is called after Route enqueues a marker batch onto a
// destination's queue.
type HookMarkersEnqueued interface {
	// OnMarkersEnqueued is passed the destination node, the coordinator
	// partition the decision originated from, and how many markers were
	// enqueued.
	OnMarkersEnqueued(node int32, txnPartition int32, markers int)
}

// HookDrain is called after a destination's queue is drained and assembled
// into outbound requests.
type HookDrain interface {
	// OnDrain is passed the destination node, the number of requests
	// assembled from the drained batches, and the total markers they
	// carry.
	OnDrain(node int32, sends, markers int)
}

// HookMarkersComplete is called by the default completion promise when a
// broker applied all markers for a producer.
type HookMarkersComplete interface {
	// OnMarkersComplete is passed the destination node and the producer
	// whose markers were applied.
	OnMarkersComplete(node int32, producerID int64)
}

// HookMarkersFailed is called by the default completion promise when a send
// failed outright or a broker rejected markers for a producer. The pending
// entry is left in place for the external retry driver.
type HookMarkersFailed interface {
	// OnMarkersFailed is passed the destination node, how many markers
	// the failure covers, and the error.
	OnMarkersFailed(node int32, markers int, err error)
}

// HookPartitionRelease is called after ReleasePartition finishes sweeping a
// released coordinator partition.
type HookPartitionRelease interface {
	// OnPartitionRelease is passed the released coordinator partition,
	// how many queued batches were discarded across all destinations, and
	// how many pending ledger entries were dropped.
	OnPartitionRelease(txnPartition int32, droppedBatches, droppedPending int)
}
