package kmark

// Metadata resolves cluster metadata for the manager. Both lookups are
// expected to be fast in-memory reads against the surrounding system's
// metadata cache; the manager calls them on the routing path.
//
// Implementations must be safe for concurrent use.
type Metadata interface {
	// LeaderFor returns the node currently leading the given topic
	// partition, or false if no leader is known. The manager does not
	// retry a failed lookup; leadership information is driven by cluster
	// metadata propagation and the caller re-drives routing once it
	// catches up.
	LeaderFor(topic string, partition int32) (int32, bool)

	// BrokerEndpoint returns the endpoint of the given node on the given
	// listener, or false if the node is not a known cluster member.
	BrokerEndpoint(node int32, listener string) (BrokerEndpoint, bool)
}

// BrokerEndpoint is a broker's advertised address on one listener.
type BrokerEndpoint struct {
	Host     string
	Port     int32
	Listener string
}
