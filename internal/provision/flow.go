// Package provision validates submitted credentials against the real network
// before committing them to the credential store.
package provision

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"git.home.luguber.info/inful/onboard/internal/credstore"
	"git.home.luguber.info/inful/onboard/internal/foundation/errors"
	"git.home.luguber.info/inful/onboard/internal/logfields"
	"git.home.luguber.info/inful/onboard/internal/metrics"
	"git.home.luguber.info/inful/onboard/internal/wifi"
)

// MsgRequired is returned to the submitter when a mandatory field is missing.
const MsgRequired = "SSID and API URL are required"

// Candidate is an unverified credential submission.
type Candidate struct {
	SSID       string
	SSIDManual string
	Password   string
	Endpoint   string
}

// Credentials applies the manual SSID override.
func (c Candidate) Credentials() credstore.Credentials {
	ssid := c.SSID
	if c.SSIDManual != "" {
		ssid = c.SSIDManual
	}
	return credstore.Credentials{SSID: ssid, Password: c.Password, Endpoint: c.Endpoint}
}

// Outcome classifies a submission.
type Outcome int

const (
	// Rejected means required input was missing; nothing was attempted.
	Rejected Outcome = iota
	// Failed means the join or the store write did not succeed.
	Failed
	// Committed means the credentials were verified and persisted.
	Committed
)

func (o Outcome) String() string {
	switch o {
	case Rejected:
		return "rejected"
	case Failed:
		return "failed"
	case Committed:
		return "committed"
	default:
		return "unknown"
	}
}

// Result is returned for every submission.
type Result struct {
	Outcome Outcome
	IP      string // set when Committed
	Err     error  // set unless Committed
}

// Joiner performs a bounded network join.
type Joiner interface {
	Connect(ctx context.Context, ssid, password string, budget time.Duration) (wifi.LinkStatus, error)
}

// Restarter schedules a process restart after a delay.
type Restarter interface {
	RequestRestart(after time.Duration)
}

// Flow implements validate-then-commit for portal submissions.
type Flow struct {
	Joiner       Joiner
	Store        credstore.Store
	Restarter    Restarter
	Timeout      time.Duration
	RestartDelay time.Duration
	Metrics      metrics.Recorder
	Logger       *slog.Logger
}

// Submit checks the candidate, joins with it, and only on success writes it
// to the store and schedules a restart. The store is never written with
// credentials that did not produce a working link.
func (f *Flow) Submit(ctx context.Context, cand Candidate) Result {
	rec := f.Metrics
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	log := f.Logger
	if log == nil {
		log = slog.Default()
	}

	creds := cand.Credentials()
	if strings.TrimSpace(creds.SSID) == "" || strings.TrimSpace(creds.Endpoint) == "" {
		rec.IncSubmission(metrics.OutcomeRejected)
		log.Info("Rejected incomplete submission")
		return Result{Outcome: Rejected, Err: errors.ValidationError(MsgRequired).Build()}
	}

	log = log.With(logfields.SSID(creds.SSID))
	status, err := f.Joiner.Connect(ctx, creds.SSID, creds.Password, f.Timeout)
	if err != nil {
		rec.IncSubmission(metrics.OutcomeFailure)
		log.Warn("Submitted credentials failed to connect", logfields.Error(err))
		return Result{Outcome: Failed, Err: err}
	}

	if err := f.Store.Save(ctx, creds); err != nil {
		rec.IncSubmission(metrics.OutcomeFailure)
		log.Error("Failed to persist verified credentials", logfields.Error(err))
		return Result{Outcome: Failed, Err: errors.WrapError(err, errors.CategoryStorage, "failed to save credentials").Build()}
	}

	rec.IncSubmission(metrics.OutcomeSuccess)
	log.Info("Credentials committed, restarting", logfields.IP(status.IP), logfields.Endpoint(creds.Endpoint))
	if f.Restarter != nil {
		f.Restarter.RequestRestart(f.RestartDelay)
	}
	return Result{Outcome: Committed, IP: status.IP}
}
