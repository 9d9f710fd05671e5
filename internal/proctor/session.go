package proctor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ExamInfo is the slice of exam data the session needs.
type ExamInfo struct {
	ID              uuid.UUID
	DurationSeconds int
}

// SessionEvents are pushed to the attached client (the WebSocket bridge in
// production, a recording fake in tests).
type SessionEvents struct {
	// StateChanged delivers every reconciled authoritative snapshot.
	StateChanged func(StudentState)
	// FullscreenWarning / NetworkWarning surface grace countdowns.
	FullscreenWarning func(deadline time.Time)
	NetworkWarning    func(deadline time.Time)
	WarningCleared    func()
	// Blocked fires on the active→blocked transition.
	Blocked func()
	// Unblocked fires on the transition back to active.
	Unblocked func()
	// Disqualified fires on the terminal countdown-expiry paths.
	Disqualified func(reason string)
	// AutoSubmit fires exactly once when exam time is exhausted.
	AutoSubmit func()
}

// SessionParams bundles the collaborators of a Session.
type SessionParams struct {
	Store    SessionStore
	Audit    AuditSink
	Notifier Notifier
	Platform Platform
	Clock    Clock
	Log      zerolog.Logger
	Config   Config

	Student      StudentState
	Exam         *ExamInfo // nil when no exam is assigned
	SessionStart time.Time
	FreshLogin   bool
	Events       SessionEvents
}

// Session supervises one student's proctored sitting: it owns the sensors,
// the violation recorder, the session timer and the access-status state
// machine (pending → active ⇄ blocked). Sensors are armed only while the
// status is active; every status snapshot pushed from the row store is
// reconciled through ApplySnapshot.
type Session struct {
	store    SessionStore
	audit    AuditSink
	notify   Notifier
	platform Platform
	clock    Clock
	log      zerolog.Logger
	cfg      Config
	events   SessionEvents

	studentID int
	recorder  *Recorder
	fullscr   *FullscreenSensor
	network   *NetworkSensor
	input     *InputSensor
	cursor    *CursorSensor
	split     *SplitScreenSensor
	timer     *SessionTimer

	mu     sync.Mutex
	status Status
	armed  bool
	closed bool
}

// NewSession wires a session from its parameters. Call Start to arm it.
func NewSession(p SessionParams) *Session {
	cfg := p.Config.withDefaults()
	audit := p.Audit
	if audit == nil {
		audit = nopAudit{}
	}
	log := p.Log.With().Str("component", "proctor_session").Int("student_id", p.Student.ID).Logger()

	s := &Session{
		store:     p.Store,
		audit:     audit,
		notify:    p.Notifier,
		platform:  p.Platform,
		clock:     p.Clock,
		log:       log,
		cfg:       cfg,
		events:    p.Events,
		studentID: p.Student.ID,
		status:    p.Student.Status,
	}

	s.recorder = NewRecorder(p.Store, p.Notifier, p.Clock, log, cfg, p.Student.ID, s.handleBlocked)
	s.recorder.SetCount(p.Student.Violations)

	s.fullscr = NewFullscreenSensor(p.Platform, p.Clock, log, cfg, FullscreenEvents{
		WarningShown: func(deadline time.Time) {
			if s.events.FullscreenWarning != nil {
				s.events.FullscreenWarning(deadline)
			}
		},
		WarningCleared: func() {
			if s.events.WarningCleared != nil {
				s.events.WarningCleared()
			}
		},
		CountdownExpired: func() {
			s.directBlock("Exited fullscreen for too long")
		},
		Violation: s.violation(ViolationFullscreenExit),
	})

	s.network = NewNetworkSensor(p.Clock, p.Notifier, log, cfg, NetworkEvents{
		WarningShown: func(deadline time.Time) {
			if s.events.NetworkWarning != nil {
				s.events.NetworkWarning(deadline)
			}
		},
		WarningCleared: func() {
			if s.events.WarningCleared != nil {
				s.events.WarningCleared()
			}
		},
		CountdownExpired: func() {
			s.directBlock("Internet disconnected for too long")
		},
	})

	s.input = NewInputSensor(p.Clock, cfg, s.violation(ViolationInput))
	s.cursor = NewCursorSensor(p.Clock, cfg, s.violation(ViolationCursorExit))
	s.split = NewSplitScreenSensor(p.Platform, p.Clock, log, cfg, s.belowCeiling, s.violation(ViolationSplitScreen))

	if p.Exam != nil {
		s.timer = NewSessionTimer(p.Store, p.Clock, log, cfg, p.Student.ID, p.Exam.ID,
			p.Exam.DurationSeconds, p.Student.CurrentExamID, p.Student.TimeRemaining,
			func() {
				if s.events.AutoSubmit != nil {
					s.events.AutoSubmit()
				}
			})
		if !p.SessionStart.IsZero() {
			// Timer starts immediately; Pause keeps blocked time out of it.
			s.timer.Start(p.SessionStart)
			if p.Student.Status != StatusActive {
				s.timer.Pause()
			}
		}
	}

	if p.FreshLogin {
		s.fullscr.StartLoginGrace()
	}

	return s
}

// Start arms the session according to its initial status. A student
// entering active with a non-zero persisted count gets the same
// reset-on-active treatment as an unblock.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	status := s.status
	s.mu.Unlock()

	if status != StatusActive {
		return
	}

	if s.recorder.Count() > 0 {
		s.recorder.SetCount(0)
		if err := s.store.ResetViolations(ctx, s.studentID); err != nil {
			s.log.Error().Err(err).Msg("Reset violations on fresh active session failed")
		}
	}
	s.arm()
}

// Close tears the session down, releasing every timer and listener.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.disarm()
	if s.timer != nil {
		s.timer.Stop()
	}
}

// Status returns the locally known access status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Violations returns the locally known violation count.
func (s *Session) Violations() int { return s.recorder.Count() }

// Remaining returns the remaining exam time, or zero without an exam.
func (s *Session) Remaining() time.Duration {
	if s.timer == nil {
		return 0
	}
	return s.timer.Remaining()
}

// RecordViolation is the external fire-and-forget entry point exposed to
// the surrounding UI layer.
func (s *Session) RecordViolation(ctx context.Context) {
	s.recorder.Record(ctx)
}

// ─── Signal inputs (forwarded by the transport bridge) ──────────────

// HandleFullscreenChange feeds a fullscreenchange report to the sensors.
func (s *Session) HandleFullscreenChange(ctx context.Context) {
	s.fullscr.HandleFullscreenChange(ctx)
	s.split.HandleFullscreenChange(ctx)
}

// HandleConnectivity feeds an online/offline report.
func (s *Session) HandleConnectivity(ctx context.Context, online bool) {
	s.network.HandleConnectivity(ctx, online)
}

// HandleKey feeds a key event; the result tells the client whether to
// suppress the default action.
func (s *Session) HandleKey(ctx context.Context, key string) bool {
	return s.input.HandleKey(ctx, key)
}

// HandleMouseButton feeds a mouse-button press.
func (s *Session) HandleMouseButton(ctx context.Context, button int) bool {
	return s.input.HandleMouseButton(ctx, button)
}

// HandleContextMenu feeds a context-menu gesture.
func (s *Session) HandleContextMenu(ctx context.Context) bool {
	return s.input.HandleContextMenu(ctx)
}

// HandlePointer feeds a pointer enter/leave report.
func (s *Session) HandlePointer(ctx context.Context, inside bool) {
	s.cursor.HandlePointer(ctx, inside)
}

// HandleResize feeds a window-resize report.
func (s *Session) HandleResize(ctx context.Context) {
	s.split.HandleResize(ctx)
}

// ─── Reconciliation ─────────────────────────────────────────────────

// ApplySnapshot reconciles an authoritative row snapshot from the change
// feed (or a direct fetch). Each snapshot replaces local state; the
// explicit reset-on-active rule corrects any counter overshoot left by a
// violation write racing an administrator's unblock.
func (s *Session) ApplySnapshot(ctx context.Context, snap StudentState) {
	s.mu.Lock()
	prev := s.status
	s.status = snap.Status
	s.mu.Unlock()

	switch snap.Status {
	case StatusBlocked:
		s.recorder.SetCount(snap.Violations)
		if prev != StatusBlocked {
			s.enterBlocked()
		}
	case StatusActive:
		if prev != StatusActive {
			s.enterActive(ctx, snap.Violations)
			snap.Violations = 0
		} else {
			s.recorder.SetCount(snap.Violations)
		}
	default:
		// pending: non-test-taking, sensors stay down.
		s.recorder.SetCount(snap.Violations)
		if prev == StatusActive {
			s.disarm()
			if s.timer != nil {
				s.timer.Pause()
			}
		}
	}

	if s.events.StateChanged != nil {
		s.events.StateChanged(snap)
	}
}

// ─── Transitions ────────────────────────────────────────────────────

// handleBlocked is the recorder's threshold callback. The status write
// already happened in the same update as the count.
func (s *Session) handleBlocked() {
	s.mu.Lock()
	already := s.status == StatusBlocked
	s.status = StatusBlocked
	s.mu.Unlock()

	if !already {
		s.enterBlocked()
	} else if s.events.Blocked != nil {
		// Idempotent over-threshold call: re-surface the blocked screen.
		s.events.Blocked()
	}
}

// directBlock is the terminal countdown-expiry path. It bypasses the
// violation counter and persists the status flip itself.
func (s *Session) directBlock(reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.SetStatus(ctx, s.studentID, StatusBlocked); err != nil {
		s.log.Error().Err(err).Str("reason", reason).Msg("Persist direct block failed")
	}

	s.mu.Lock()
	already := s.status == StatusBlocked
	s.status = StatusBlocked
	s.mu.Unlock()

	if !already {
		s.enterBlocked()
	}
	s.notify.Terminal("Test terminated! " + reason + ".")
	if s.events.Disqualified != nil {
		s.events.Disqualified(reason)
	}
}

func (s *Session) enterBlocked() {
	s.log.Warn().Msg("Session blocked")
	s.disarm()
	if s.timer != nil {
		s.timer.Pause()
	}
	if s.events.Blocked != nil {
		s.events.Blocked()
	}
}

// enterActive applies the reset-on-active rule: the local counter drops to
// zero and, if the server still carries a stale value, a corrective write
// zeroes it there too. Fullscreen re-entry is attempted best-effort after
// a short delay; failure degrades to a manual-action prompt.
func (s *Session) enterActive(ctx context.Context, serverViolations int) {
	s.log.Info().Msg("Session unblocked, resetting violations")
	s.recorder.SetCount(0)
	if serverViolations != 0 {
		if err := s.store.ResetViolations(ctx, s.studentID); err != nil {
			s.log.Error().Err(err).Msg("Corrective violation reset failed")
		}
	}

	if s.timer != nil {
		s.timer.Resume()
	}
	s.arm()

	s.clock.AfterFunc(s.cfg.UnblockFullscreenDelay, func() {
		if err := s.platform.RequestFullscreen(); err != nil {
			s.notify.Info("You have been unblocked! Please enter fullscreen mode manually.")
			return
		}
		s.notify.Info("You have been unblocked! Entered fullscreen mode.")
	})

	if s.events.Unblocked != nil {
		s.events.Unblocked()
	}
}

func (s *Session) arm() {
	s.mu.Lock()
	if s.armed || s.closed {
		s.mu.Unlock()
		return
	}
	s.armed = true
	s.mu.Unlock()

	s.fullscr.Enable()
	s.network.Enable()
	s.input.Enable()
	s.cursor.Enable()
	s.split.Enable()
}

func (s *Session) disarm() {
	s.mu.Lock()
	if !s.armed {
		s.mu.Unlock()
		return
	}
	s.armed = false
	s.mu.Unlock()

	s.fullscr.Disable()
	s.network.Disable()
	s.input.Disable()
	s.cursor.Disable()
	s.split.Disable()
}

func (s *Session) belowCeiling() bool {
	return s.recorder.Count() < s.cfg.MaxViolations
}

// violation wraps the recorder with the audit trail for one sensor kind.
func (s *Session) violation(kind ViolationKind) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.audit.RecordEvent(ctx, s.studentID, kind)
		s.recorder.Record(ctx)
	}
}
