package proctor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FullscreenEvents are the session-facing callbacks of the fullscreen
// sensor. WarningShown carries the countdown deadline for display.
type FullscreenEvents struct {
	// WarningShown fires when the grace countdown becomes visible.
	WarningShown func(deadline time.Time)
	// WarningCleared fires when fullscreen is restored within the window.
	WarningCleared func()
	// CountdownExpired fires when the window elapses without restoration.
	// The session blocks the student outright on this path.
	CountdownExpired func()
	// Violation fires when the warning becoming visible should count
	// against the strike ceiling (login grace and first-warning exemption
	// already applied).
	Violation func()
}

// FullscreenSensor enforces fullscreen presence. It is both event-driven
// (the client reports fullscreenchange) and polled every FullscreenPoll,
// because exit paths exist that produce no event on some platforms.
//
// The sensor never records on mere exit: the warning becoming visible is
// the trigger, gated by three layers of grace — the login grace window,
// the one-time first-warning exemption, and the per-episode guard that
// keeps the poll from recording more than once while continuously out of
// fullscreen.
type FullscreenSensor struct {
	platform Platform
	clock    Clock
	cfg      Config
	log      zerolog.Logger
	events   FullscreenEvents

	mu             sync.Mutex
	enabled        bool
	poll           Ticker
	countdown      Timer
	deadline       time.Time
	warningVisible bool
	graceUntil     time.Time
	firstWarnUsed  bool
	episodeDone    bool // one violation per continuous out-of-fullscreen episode
}

// NewFullscreenSensor creates the sensor in the disarmed state.
func NewFullscreenSensor(platform Platform, clock Clock, log zerolog.Logger, cfg Config, events FullscreenEvents) *FullscreenSensor {
	return &FullscreenSensor{
		platform: platform,
		clock:    clock,
		cfg:      cfg.withDefaults(),
		log:      log.With().Str("component", "fullscreen_sensor").Logger(),
		events:   events,
	}
}

// Enable arms the sensor and starts the enforcement poll.
func (s *FullscreenSensor) Enable() {
	s.mu.Lock()
	if s.enabled {
		s.mu.Unlock()
		return
	}
	s.enabled = true
	s.poll = s.clock.TickFunc(s.cfg.FullscreenPoll, s.evaluate)
	s.mu.Unlock()
	s.evaluate()
}

// Disable disarms the sensor and releases the poll and any countdown.
func (s *FullscreenSensor) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return
	}
	s.enabled = false
	if s.poll != nil {
		s.poll.Stop()
		s.poll = nil
	}
	s.cancelCountdownLocked()
	s.warningVisible = false
}

// StartLoginGrace suppresses the warning for the configured window after a
// fresh login, tolerating the gap between the login click and the browser
// honouring the fullscreen request.
func (s *FullscreenSensor) StartLoginGrace() {
	s.mu.Lock()
	s.graceUntil = s.clock.Now().Add(s.cfg.LoginGrace)
	s.mu.Unlock()
}

// HandleFullscreenChange is the event-driven input; the poll covers the rest.
func (s *FullscreenSensor) HandleFullscreenChange(context.Context) {
	s.evaluate()
}

// evaluate decides under the lock and fires callbacks after releasing it,
// so a violation can flow into the recorder (and back into Disable on a
// block) without re-entering the sensor.
func (s *FullscreenSensor) evaluate() {
	inFullscreen := s.platform.IsFullscreen()

	var fire []func()

	s.mu.Lock()
	if !s.enabled {
		s.mu.Unlock()
		return
	}

	if inFullscreen {
		s.episodeDone = false
		if s.warningVisible {
			s.warningVisible = false
			s.cancelCountdownLocked()
			if s.events.WarningCleared != nil {
				fire = append(fire, s.events.WarningCleared)
			}
		}
	} else if !s.clock.Now().Before(s.graceUntil) && !s.warningVisible {
		s.warningVisible = true
		s.deadline = s.clock.Now().Add(s.cfg.WarningCountdown)
		s.countdown = s.clock.AfterFunc(s.cfg.WarningCountdown, s.expire)
		if s.events.WarningShown != nil {
			deadline := s.deadline
			shown := s.events.WarningShown
			fire = append(fire, func() { shown(deadline) })
		}

		// The warning becoming visible is the violation trigger.
		switch {
		case !s.firstWarnUsed:
			s.firstWarnUsed = true
			s.log.Debug().Msg("First warning of the session, countdown only")
		case s.episodeDone:
			// Already counted for this episode.
		default:
			s.episodeDone = true
			if s.events.Violation != nil {
				fire = append(fire, s.events.Violation)
			}
		}
	}
	s.mu.Unlock()

	for _, f := range fire {
		f()
	}
}

func (s *FullscreenSensor) expire() {
	s.mu.Lock()
	if !s.enabled || !s.warningVisible {
		s.mu.Unlock()
		return
	}
	s.warningVisible = false
	s.countdown = nil
	s.mu.Unlock()

	s.log.Warn().Msg("Fullscreen countdown expired")
	if s.events.CountdownExpired != nil {
		s.events.CountdownExpired()
	}
}

func (s *FullscreenSensor) cancelCountdownLocked() {
	if s.countdown != nil {
		s.countdown.Stop()
		s.countdown = nil
	}
}

// WarningDeadline reports the active countdown deadline, if any.
func (s *FullscreenSensor) WarningDeadline() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.warningVisible {
		return time.Time{}, false
	}
	return s.deadline, true
}
