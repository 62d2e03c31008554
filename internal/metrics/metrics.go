// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Redirect hot path
	IncRedirectCacheHit(tier string) // tier: "memory" or "redis"
	IncRedirectCacheMiss()
	ObserveRedirectDuration(duration time.Duration)

	// Link authoring
	IncLinkCreated()
	IncShortCodeCollision()

	// Click pipeline
	IncClickTracked()
	IncClickDropped(reason string) // reason: "store", "queue", "timeout"

	// Dashboard RPC
	ObserveRPCDuration(duration time.Duration)
	IncRPCFailure()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
