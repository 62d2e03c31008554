package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	RedirectMemoryHits      uint64
	RedirectRedisHits       uint64
	RedirectCacheMisses     uint64
	RedirectDurationCount   uint64
	RedirectDurationTotalNs int64
	LinksCreated            uint64
	ShortCodeCollisions     uint64
	ClicksTracked           uint64
	ClicksDropped           uint64
	RPCDurationCount        uint64
	RPCDurationTotalNs      int64
	RPCFailures             uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	redirectMemoryHits      uint64
	redirectRedisHits       uint64
	redirectCacheMisses     uint64
	redirectDurationCount   uint64
	redirectDurationTotalNs int64
	linksCreated            uint64
	shortCodeCollisions     uint64
	clicksTracked           uint64
	clicksDropped           uint64
	rpcDurationCount        uint64
	rpcDurationTotalNs      int64
	rpcFailures             uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		RedirectMemoryHits:      atomic.LoadUint64(&m.redirectMemoryHits),
		RedirectRedisHits:       atomic.LoadUint64(&m.redirectRedisHits),
		RedirectCacheMisses:     atomic.LoadUint64(&m.redirectCacheMisses),
		RedirectDurationCount:   atomic.LoadUint64(&m.redirectDurationCount),
		RedirectDurationTotalNs: atomic.LoadInt64(&m.redirectDurationTotalNs),
		LinksCreated:            atomic.LoadUint64(&m.linksCreated),
		ShortCodeCollisions:     atomic.LoadUint64(&m.shortCodeCollisions),
		ClicksTracked:           atomic.LoadUint64(&m.clicksTracked),
		ClicksDropped:           atomic.LoadUint64(&m.clicksDropped),
		RPCDurationCount:        atomic.LoadUint64(&m.rpcDurationCount),
		RPCDurationTotalNs:      atomic.LoadInt64(&m.rpcDurationTotalNs),
		RPCFailures:             atomic.LoadUint64(&m.rpcFailures),
	}
}

// IncRedirectCacheHit increments the hit counter for a cache tier.
func (m *InMemoryRecorder) IncRedirectCacheHit(tier string) {
	if tier == "memory" {
		atomic.AddUint64(&m.redirectMemoryHits, 1)
		return
	}
	atomic.AddUint64(&m.redirectRedisHits, 1)
}

// IncRedirectCacheMiss increments the cache miss counter.
func (m *InMemoryRecorder) IncRedirectCacheMiss() {
	atomic.AddUint64(&m.redirectCacheMisses, 1)
}

// ObserveRedirectDuration records redirect duration.
func (m *InMemoryRecorder) ObserveRedirectDuration(duration time.Duration) {
	atomic.AddUint64(&m.redirectDurationCount, 1)
	atomic.AddInt64(&m.redirectDurationTotalNs, duration.Nanoseconds())
}

// IncLinkCreated increments the link created counter.
func (m *InMemoryRecorder) IncLinkCreated() {
	atomic.AddUint64(&m.linksCreated, 1)
}

// IncShortCodeCollision increments the allocation collision counter.
func (m *InMemoryRecorder) IncShortCodeCollision() {
	atomic.AddUint64(&m.shortCodeCollisions, 1)
}

// IncClickTracked increments the tracked click counter.
func (m *InMemoryRecorder) IncClickTracked() {
	atomic.AddUint64(&m.clicksTracked, 1)
}

// IncClickDropped increments the dropped click counter.
func (m *InMemoryRecorder) IncClickDropped(string) {
	atomic.AddUint64(&m.clicksDropped, 1)
}

// ObserveRPCDuration records one dashboard exchange duration.
func (m *InMemoryRecorder) ObserveRPCDuration(duration time.Duration) {
	atomic.AddUint64(&m.rpcDurationCount, 1)
	atomic.AddInt64(&m.rpcDurationTotalNs, duration.Nanoseconds())
}

// IncRPCFailure increments the failed exchange counter.
func (m *InMemoryRecorder) IncRPCFailure() {
	atomic.AddUint64(&m.rpcFailures, 1)
}
