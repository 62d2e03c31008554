package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all events.
func NewNoop() *NoopRecorder {
	return &NoopRecorder{}
}

func (NoopRecorder) IncRedirectCacheHit(string)             {}
func (NoopRecorder) IncRedirectCacheMiss()                  {}
func (NoopRecorder) ObserveRedirectDuration(time.Duration)  {}
func (NoopRecorder) IncLinkCreated()                        {}
func (NoopRecorder) IncShortCodeCollision()                 {}
func (NoopRecorder) IncClickTracked()                       {}
func (NoopRecorder) IncClickDropped(string)                 {}
func (NoopRecorder) ObserveRPCDuration(time.Duration)       {}
func (NoopRecorder) IncRPCFailure()                         {}
