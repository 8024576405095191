package kmark

import "errors"

var (
	// ErrUnknownBroker is returned when enqueueing markers for a broker
	// that was never registered, or when the cluster metadata has no
	// endpoint for a resolved leader.
	ErrUnknownBroker = errors.New("unknown broker")

	// ErrNoLeader is returned from Route for every topic partition whose
	// current leader cannot be resolved. Leadership is externally driven
	// by cluster metadata propagation; the caller decides whether to
	// re-drive the decision once metadata catches up.
	ErrNoLeader = errors.New("no known leader for topic partition")

	// ErrNoResp is the error used when a broker's response omits a marker
	// that was in the request. This error should never be seen.
	ErrNoResp = errors.New("marker was not replied to in a response")

	// ErrClosed is returned when using a manager after Close.
	ErrClosed = errors.New("manager is closed")
)
