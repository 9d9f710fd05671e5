package proctor

import (
	"context"
	"sync"
	"time"
)

// Mouse buttons the sensor intercepts, matching the DOM button numbering.
const (
	MouseButtonMiddle  = 1
	MouseButtonBack    = 3
	MouseButtonForward = 4
)

// InputSensor intercepts keyboard and mouse gestures during an armed
// session. Every intercepted event is suppressed client-side; the sensor
// additionally records a violation, throttled to at most one per
// InputThrottle regardless of how many keys or gestures land in that
// window. F11 stays allowed so the student can re-enter fullscreen.
type InputSensor struct {
	clock       Clock
	cfg         Config
	onViolation func()

	mu      sync.Mutex
	enabled bool
	last    time.Time
}

// NewInputSensor creates the sensor in the disarmed state.
func NewInputSensor(clock Clock, cfg Config, onViolation func()) *InputSensor {
	return &InputSensor{
		clock:       clock,
		cfg:         cfg.withDefaults(),
		onViolation: onViolation,
	}
}

// Enable arms the sensor.
func (s *InputSensor) Enable() {
	s.mu.Lock()
	s.enabled = true
	s.mu.Unlock()
}

// Disable disarms the sensor.
func (s *InputSensor) Disable() {
	s.mu.Lock()
	s.enabled = false
	s.mu.Unlock()
}

// HandleKey processes a key-down or key-up report. The returned bool tells
// the client whether to suppress the default action.
func (s *InputSensor) HandleKey(_ context.Context, key string) (suppress bool) {
	if key == "F11" {
		return false
	}
	s.trigger()
	return true
}

// HandleMouseButton processes a mouse-button press. Middle, back and
// forward buttons are tab/navigation gestures and are suppressed.
func (s *InputSensor) HandleMouseButton(_ context.Context, button int) (suppress bool) {
	switch button {
	case MouseButtonMiddle, MouseButtonBack, MouseButtonForward:
		s.trigger()
		return true
	}
	return false
}

// HandleContextMenu processes a context-menu gesture; always suppressed.
func (s *InputSensor) HandleContextMenu(context.Context) (suppress bool) {
	s.trigger()
	return true
}

func (s *InputSensor) trigger() {
	s.mu.Lock()
	if !s.enabled {
		s.mu.Unlock()
		return
	}
	now := s.clock.Now()
	if !s.last.IsZero() && now.Sub(s.last) < s.cfg.InputThrottle {
		s.mu.Unlock()
		return
	}
	s.last = now
	s.mu.Unlock()

	s.onViolation()
}
