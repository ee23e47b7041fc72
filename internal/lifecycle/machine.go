// Package lifecycle implements the finite-state machine governing feed
// submission: validate, fetch, commit. The machine owns only the submission
// flow; refresh cycles run beside it and never touch the phase.
package lifecycle

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/mellyssy/feedwatch/internal/events"
	"github.com/mellyssy/feedwatch/internal/feed"
)

// Phase is the submission-flow state exposed to the presentation layer.
type Phase string

// Lifecycle phases. Exactly one is active at a time.
const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseFetching   Phase = "fetching"
	PhaseReady      Phase = "ready"
	PhaseInvalid    Phase = "invalid"
	PhaseError      Phase = "error"
)

// ErrSubmissionInFlight is returned when Submit is called while a previous
// submission is still validating or fetching.
var ErrSubmissionInFlight = errors.New("a submission is already in flight")

// ErrIllegalTransition is returned for a phase change the machine does not
// allow, e.g. Reset while fetching.
var ErrIllegalTransition = errors.New("illegal lifecycle transition")

// legal enumerates the allowed phase transitions.
var legal = map[Phase][]Phase{
	PhaseIdle:       {PhaseValidating},
	PhaseValidating: {PhaseFetching, PhaseInvalid},
	PhaseFetching:   {PhaseReady, PhaseError},
	PhaseReady:      {PhaseValidating, PhaseIdle},
	PhaseInvalid:    {PhaseValidating, PhaseIdle},
	PhaseError:      {PhaseValidating, PhaseIdle},
}

// Committer performs the fetch-and-commit step of a successful validation.
type Committer interface {
	FetchOne(ctx context.Context, url string) error
}

// URLSet reports the currently tracked source URLs for duplicate detection.
type URLSet interface {
	TrackedURLs() map[string]struct{}
}

// Machine is the submission lifecycle state machine. It never auto-recovers:
// Invalid and Error are left only by a new Submit or an explicit Reset.
type Machine struct {
	mu      sync.Mutex
	phase   Phase
	lastErr error

	committer Committer
	urls      URLSet
	hub       events.Emitter
	clock     feed.Clock
	logger    *zap.Logger
}

// New constructs a Machine in the Idle phase.
func New(committer Committer, urls URLSet, hub events.Emitter, clock feed.Clock, logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{
		phase:     PhaseIdle,
		committer: committer,
		urls:      urls,
		hub:       hub,
		clock:     clock,
		logger:    logger,
	}
}

// Phase returns the active phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// LastError returns the error recorded by the most recent failed submission,
// or nil. A new Submit discards it.
func (m *Machine) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Submit runs one submission attempt end to end: Validating, then Fetching,
// then Ready, parking in Invalid or Error when a step fails. The returned
// error is the same one recorded as LastError. Submitting while an earlier
// attempt is validating or fetching fails without changing phase.
func (m *Machine) Submit(ctx context.Context, rawURL string) error {
	if err := m.begin(); err != nil {
		return err
	}

	normalized, err := feed.ValidateSourceURL(rawURL, m.urls.TrackedURLs())
	if err != nil {
		m.fail(PhaseInvalid, err)
		return err
	}

	m.transition(PhaseFetching)
	if err := m.committer.FetchOne(ctx, normalized); err != nil {
		m.fail(PhaseError, err)
		return err
	}

	m.transition(PhaseReady)
	m.logger.Info("source submission committed", zap.String("url", normalized))
	return nil
}

// Reset acknowledges a terminal phase and returns the machine to Idle,
// clearing the last error. Resetting mid-submission is illegal; Reset from
// Idle is a no-op.
func (m *Machine) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.phase {
	case PhaseIdle:
		return nil
	case PhaseValidating, PhaseFetching:
		return ErrIllegalTransition
	}
	m.setPhase(PhaseIdle)
	m.lastErr = nil
	return nil
}

// begin moves the machine into Validating, discarding any previous error.
func (m *Machine) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == PhaseValidating || m.phase == PhaseFetching {
		return ErrSubmissionInFlight
	}
	m.lastErr = nil
	m.setPhase(PhaseValidating)
	return nil
}

func (m *Machine) transition(next Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setPhase(next)
}

func (m *Machine) fail(next Phase, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = err
	m.setPhase(next)
	m.logger.Warn("submission failed",
		zap.String("phase", string(next)),
		zap.Error(err),
	)
}

// setPhase applies a transition; callers hold m.mu. Illegal internal
// transitions indicate a programming error and are logged, not applied.
func (m *Machine) setPhase(next Phase) {
	if !allowed(m.phase, next) {
		m.logger.Error("refusing illegal transition",
			zap.String("from", string(m.phase)),
			zap.String("to", string(next)),
		)
		return
	}
	m.phase = next
	m.hub.Emit(events.Event{
		Type:  events.TypePhaseChanged,
		TS:    m.clock.Now(),
		Phase: string(next),
	})
}

func allowed(from, to Phase) bool {
	for _, next := range legal[from] {
		if next == to {
			return true
		}
	}
	return false
}
