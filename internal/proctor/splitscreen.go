package proctor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SplitScreenSensor compares window dimensions with the physical screen
// after geometry-changing events settle. A nominally-fullscreen window
// whose width or height ratio falls below SplitScreenRatio counts as a
// split-screen attempt. The ratio is a heuristic with no stated
// false-positive tolerance; it is configurable and intentionally left at
// the historical 0.9.
//
// belowCeiling keeps the sensor quiet once the strike ceiling is reached;
// the recorder would short-circuit anyway but there is no point scheduling
// settle timers for a blocked student.
type SplitScreenSensor struct {
	platform     Platform
	clock        Clock
	cfg          Config
	log          zerolog.Logger
	onViolation  func()
	belowCeiling func() bool

	mu      sync.Mutex
	enabled bool
	settle  Timer
}

// NewSplitScreenSensor creates the sensor in the disarmed state.
func NewSplitScreenSensor(platform Platform, clock Clock, log zerolog.Logger, cfg Config, belowCeiling func() bool, onViolation func()) *SplitScreenSensor {
	return &SplitScreenSensor{
		platform:     platform,
		clock:        clock,
		cfg:          cfg.withDefaults(),
		log:          log.With().Str("component", "splitscreen_sensor").Logger(),
		onViolation:  onViolation,
		belowCeiling: belowCeiling,
	}
}

// Enable arms the sensor.
func (s *SplitScreenSensor) Enable() {
	s.mu.Lock()
	s.enabled = true
	s.mu.Unlock()
}

// Disable disarms the sensor and cancels any pending settle timer.
func (s *SplitScreenSensor) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = false
	if s.settle != nil {
		s.settle.Stop()
		s.settle = nil
	}
}

// HandleResize defers the check until the window stops resizing.
func (s *SplitScreenSensor) HandleResize(context.Context) {
	s.schedule(s.cfg.ResizeSettle)
}

// HandleFullscreenChange re-checks shortly after a fullscreen transition,
// once the new geometry has been applied.
func (s *SplitScreenSensor) HandleFullscreenChange(context.Context) {
	s.schedule(s.cfg.FullscreenSettle)
}

// schedule resets the settle timer; rapid event bursts collapse into one
// check after the last event.
func (s *SplitScreenSensor) schedule(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled || !s.belowCeiling() {
		return
	}
	if s.settle != nil {
		s.settle.Stop()
	}
	s.settle = s.clock.AfterFunc(d, s.check)
}

func (s *SplitScreenSensor) check() {
	s.mu.Lock()
	s.settle = nil
	if !s.enabled || !s.belowCeiling() {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if !s.platform.IsFullscreen() {
		return
	}
	w, h := s.platform.ViewportRatio()
	if w < s.cfg.SplitScreenRatio || h < s.cfg.SplitScreenRatio {
		s.log.Info().Float64("width_ratio", w).Float64("height_ratio", h).Msg("Split screen detected while in fullscreen")
		s.onViolation()
	}
}
