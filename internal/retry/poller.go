// Package retry provides the bounded polling helper shared by every blocking
// wait in the agent: the reset-button hold check and the wireless join wait.
package retry

import (
	"fmt"
	"time"
)

// Clock is the subset of clockwork.Clock the poller needs.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// Result reports how a poll ended.
type Result int

const (
	// Satisfied means the condition held before the budget was spent.
	Satisfied Result = iota
	// TimedOut means the budget elapsed with the condition still false.
	TimedOut
)

func (r Result) String() string {
	switch r {
	case Satisfied:
		return "satisfied"
	case TimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// Poller checks a condition at a fixed interval until it holds or the budget
// runs out. It blocks the calling goroutine for the whole wait.
// It is immutable after construction.
type Poller struct {
	Clock    Clock
	Interval time.Duration // sleep between checks
	Budget   time.Duration // total time allowed
}

// NewPoller builds a poller; a non-positive interval falls back to 10ms.
func NewPoller(clock Clock, interval, budget time.Duration) Poller {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	return Poller{Clock: clock, Interval: interval, Budget: budget}
}

// Validate ensures invariants; returns error if the poller cannot be applied.
func (p Poller) Validate() error {
	if p.Clock == nil {
		return fmt.Errorf("clock is required")
	}
	if p.Interval <= 0 {
		return fmt.Errorf("interval must be >0")
	}
	if p.Budget < 0 {
		return fmt.Errorf("budget cannot be negative")
	}
	return nil
}

// Until evaluates cond first, then the elapsed budget, then sleeps one
// interval, repeating until one of the first two ends the wait. The elapsed
// time at the moment the wait ended is returned alongside the result.
func (p Poller) Until(cond func() bool) (Result, time.Duration) {
	start := p.Clock.Now()
	for {
		elapsed := p.Clock.Now().Sub(start)
		if cond() {
			return Satisfied, elapsed
		}
		if elapsed >= p.Budget {
			return TimedOut, elapsed
		}
		p.Clock.Sleep(p.Interval)
	}
}
