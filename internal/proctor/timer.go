package proctor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionTimer tracks remaining exam time and drives auto-submission.
//
// Elapsed time is always recomputed from the fixed session-start timestamp,
// never accumulated tick by tick, so the display cannot drift. Time spent
// blocked is subtracted: persistence pauses while blocked and the blocked
// interval is excluded from the elapsed figure, so blocked time does not
// count against the exam.
//
// The starting budget is the persisted remaining time when the persisted
// exam assignment matches the mounted exam, otherwise the exam's full
// duration — a new exam takes precedence over stale persisted state.
type SessionTimer struct {
	store     SessionStore
	clock     Clock
	cfg       Config
	log       zerolog.Logger
	studentID int
	examID    uuid.UUID

	// onExpired fires exactly once when the budget is exhausted.
	onExpired func()

	mu           sync.Mutex
	budget       time.Duration // starting budget at mount
	start        time.Time     // fixed session-start timestamp
	blockedSince time.Time     // zero while not blocked
	blockedTotal time.Duration
	tick         Ticker
	persist      Ticker
	expired      bool // one-shot guard for onExpired
	running      bool
}

// NewSessionTimer creates a timer for one (student, exam) pair.
// persistedExamID/persistedRemaining come from the student row; resume
// applies only when the persisted assignment matches examID.
func NewSessionTimer(
	store SessionStore,
	clock Clock,
	log zerolog.Logger,
	cfg Config,
	studentID int,
	examID uuid.UUID,
	durationSeconds int,
	persistedExamID *uuid.UUID,
	persistedRemaining *int,
	onExpired func(),
) *SessionTimer {
	cfg = cfg.withDefaults()

	budget := time.Duration(durationSeconds) * time.Second
	if persistedExamID != nil && *persistedExamID == examID && persistedRemaining != nil {
		budget = time.Duration(*persistedRemaining) * time.Second
	}

	return &SessionTimer{
		store:     store,
		clock:     clock,
		cfg:       cfg,
		log:       log.With().Str("component", "session_timer").Int("student_id", studentID).Logger(),
		studentID: studentID,
		examID:    examID,
		onExpired: onExpired,
		budget:    budget,
	}
}

// Start begins ticking from now. sessionStart is the fixed login
// timestamp; it survives reloads via the durable session cache.
func (t *SessionTimer) Start(sessionStart time.Time) {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.running = true
	t.start = sessionStart
	t.tick = t.clock.TickFunc(t.cfg.TimerTick, t.onTick)
	t.persist = t.clock.TickFunc(t.cfg.ProgressSaveEvery, t.persistProgress)
	t.mu.Unlock()
}

// Stop releases both tickers.
func (t *SessionTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false
	if t.tick != nil {
		t.tick.Stop()
		t.tick = nil
	}
	if t.persist != nil {
		t.persist.Stop()
		t.persist = nil
	}
}

// Pause marks the start of a blocked interval; ticks keep running but the
// remaining figure freezes and persistence writes are skipped.
func (t *SessionTimer) Pause() {
	t.mu.Lock()
	if t.blockedSince.IsZero() {
		t.blockedSince = t.clock.Now()
	}
	t.mu.Unlock()
}

// Resume closes a blocked interval.
func (t *SessionTimer) Resume() {
	t.mu.Lock()
	if !t.blockedSince.IsZero() {
		t.blockedTotal += t.clock.Now().Sub(t.blockedSince)
		t.blockedSince = time.Time{}
	}
	t.mu.Unlock()
}

// Remaining returns the current remaining time, floored at zero.
func (t *SessionTimer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remainingLocked()
}

func (t *SessionTimer) remainingLocked() time.Duration {
	if t.start.IsZero() {
		return t.budget
	}
	now := t.clock.Now()
	elapsed := now.Sub(t.start) - t.blockedTotal
	if !t.blockedSince.IsZero() {
		elapsed -= now.Sub(t.blockedSince)
	}
	remaining := t.budget - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (t *SessionTimer) onTick() {
	t.mu.Lock()
	if !t.running || t.expired {
		t.mu.Unlock()
		return
	}
	if t.remainingLocked() > 0 {
		t.mu.Unlock()
		return
	}
	t.expired = true
	t.mu.Unlock()

	t.log.Info().Msg("Exam time exhausted, triggering auto-submit")
	if t.onExpired != nil {
		t.onExpired()
	}
}

func (t *SessionTimer) persistProgress() {
	t.mu.Lock()
	if !t.running || !t.blockedSince.IsZero() {
		t.mu.Unlock()
		return
	}
	remaining := int(t.remainingLocked().Seconds())
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.store.SaveProgress(ctx, t.studentID, t.examID, remaining); err != nil {
		t.log.Error().Err(err).Msg("Persist exam progress failed")
	}
}
