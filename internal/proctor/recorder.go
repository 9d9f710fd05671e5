package proctor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Recorder counts rule violations for one student against the strike
// ceiling. The persisted count is authoritative: every recording re-reads
// it before writing so near-simultaneous sensors (or a second tab) cannot
// both increment from the same stale value. The read-then-write update is
// still not a compare-and-swap; the residual race is accepted and bounded
// by the in-flight guard and the debounce window.
type Recorder struct {
	store     SessionStore
	notify    Notifier
	clock     Clock
	log       zerolog.Logger
	cfg       Config
	studentID int
	onBlocked func()

	// inFlight drops re-entrant calls while a recording is being persisted.
	inFlight atomic.Bool

	mu           sync.Mutex
	local        int       // locally known count, reconciled from pushes
	lastRecorded time.Time // zero until the first successful recording
}

// NewRecorder creates a Recorder for a single student. onBlocked is invoked
// whenever the ceiling is reached, including on short-circuited calls.
func NewRecorder(store SessionStore, notify Notifier, clock Clock, log zerolog.Logger, cfg Config, studentID int, onBlocked func()) *Recorder {
	return &Recorder{
		store:     store,
		notify:    notify,
		clock:     clock,
		log:       log.With().Str("component", "recorder").Int("student_id", studentID).Logger(),
		cfg:       cfg.withDefaults(),
		studentID: studentID,
		onBlocked: onBlocked,
	}
}

// Record registers one violation. Fire-and-forget from the caller's point
// of view: all failures degrade to logging. A store error aborts without
// touching local state, so a violation that could not be durably persisted
// is simply not counted.
func (r *Recorder) Record(ctx context.Context) {
	if r.studentID == 0 {
		return
	}

	r.mu.Lock()
	if r.local >= r.cfg.MaxViolations {
		r.mu.Unlock()
		r.onBlocked()
		return
	}
	if !r.lastRecorded.IsZero() && r.clock.Now().Sub(r.lastRecorded) < r.cfg.RecordDebounce {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	if !r.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer r.inFlight.Store(false)

	current, err := r.store.GetViolations(ctx, r.studentID)
	if err != nil {
		r.log.Error().Err(err).Msg("fetch violation count failed, violation not recorded")
		return
	}

	next := current + 1
	if next > r.cfg.MaxViolations {
		next = r.cfg.MaxViolations
	}
	block := next >= r.cfg.MaxViolations

	if err := r.store.WriteViolations(ctx, r.studentID, next, block); err != nil {
		r.log.Error().Err(err).Msg("persist violation count failed, violation not recorded")
		return
	}

	r.mu.Lock()
	r.local = next
	r.lastRecorded = r.clock.Now()
	r.mu.Unlock()

	r.log.Info().Int("violations", next).Bool("blocked", block).Msg("Violation recorded")

	if block {
		r.notify.Terminal(fmt.Sprintf("Account blocked: you have reached %d violations.", r.cfg.MaxViolations))
		r.onBlocked()
		return
	}
	r.notify.Warn(fmt.Sprintf("Violation warning %d/%d: stay within the exam window!", next, r.cfg.MaxViolations))
}

// Count returns the locally known violation count.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.local
}

// SetCount reconciles the local count with an authoritative snapshot.
func (r *Recorder) SetCount(n int) {
	if n < 0 {
		n = 0
	}
	if n > r.cfg.MaxViolations {
		n = r.cfg.MaxViolations
	}
	r.mu.Lock()
	r.local = n
	r.mu.Unlock()
}
