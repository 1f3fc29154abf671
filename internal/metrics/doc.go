// Package metrics provides the agent's observability hooks.
//
// Components receive a Recorder through their constructors or struct fields
// and default to NoopRecorder when none is given, so no call site needs a nil
// check. The Prometheus implementation is activated by the metrics.enabled
// setting and served, together with a liveness probe, by Handler.
package metrics
