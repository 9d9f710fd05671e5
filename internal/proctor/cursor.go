package proctor

import (
	"context"
	"sync"
	"time"
)

// CursorSensor tracks whether the pointer is inside the exam window. A
// leave starts a dwell timer; if the pointer has not returned when it
// fires, one violation is recorded — but only if CursorSpacing has passed
// since the previous cursor violation, a window layered on top of the
// recorder's generic debounce. Re-entry before the dwell elapses cancels
// the timer with no violation.
type CursorSensor struct {
	clock       Clock
	cfg         Config
	onViolation func()

	mu      sync.Mutex
	enabled bool
	inside  bool
	dwell   Timer
	last    time.Time // previous cursor-triggered violation
}

// NewCursorSensor creates the sensor in the disarmed state. The pointer
// is assumed inside until the first leave report.
func NewCursorSensor(clock Clock, cfg Config, onViolation func()) *CursorSensor {
	return &CursorSensor{
		clock:       clock,
		cfg:         cfg.withDefaults(),
		onViolation: onViolation,
		inside:      true,
	}
}

// Enable arms the sensor.
func (s *CursorSensor) Enable() {
	s.mu.Lock()
	s.enabled = true
	s.mu.Unlock()
}

// Disable disarms the sensor and cancels any pending dwell timer.
func (s *CursorSensor) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = false
	if s.dwell != nil {
		s.dwell.Stop()
		s.dwell = nil
	}
}

// HandlePointer processes a pointer enter/leave report.
func (s *CursorSensor) HandlePointer(_ context.Context, inside bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inside = inside
	if !s.enabled {
		return
	}

	if inside {
		if s.dwell != nil {
			s.dwell.Stop()
			s.dwell = nil
		}
		return
	}

	if s.dwell == nil {
		s.dwell = s.clock.AfterFunc(s.cfg.CursorDwell, s.dwellExpired)
	}
}

func (s *CursorSensor) dwellExpired() {
	s.mu.Lock()
	s.dwell = nil
	if !s.enabled || s.inside {
		s.mu.Unlock()
		return
	}
	now := s.clock.Now()
	if !s.last.IsZero() && now.Sub(s.last) < s.cfg.CursorSpacing {
		s.mu.Unlock()
		return
	}
	s.last = now
	s.mu.Unlock()

	s.onViolation()
}
