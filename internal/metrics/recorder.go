package metrics

import "time"

// Outcome labels shared by the counters.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeTimeout  = "timeout"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"
)

// Recorder defines observability hooks for the onboarding agent.
type Recorder interface {
	IncBoot()
	SetMode(mode string)
	IncJoin(outcome string)
	ObserveJoinDuration(d time.Duration)
	IncHeartbeat(outcome string)
	ObserveHeartbeatDuration(d time.Duration)
	IncSubmission(outcome string)
	IncFactoryReset()
	IncPortalRequest(route string, status int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncBoot()                              {}
func (NoopRecorder) SetMode(string)                        {}
func (NoopRecorder) IncJoin(string)                        {}
func (NoopRecorder) ObserveJoinDuration(time.Duration)     {}
func (NoopRecorder) IncHeartbeat(string)                   {}
func (NoopRecorder) ObserveHeartbeatDuration(time.Duration) {}
func (NoopRecorder) IncSubmission(string)                  {}
func (NoopRecorder) IncFactoryReset()                      {}
func (NoopRecorder) IncPortalRequest(string, int)          {}
