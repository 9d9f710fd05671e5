package proctor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fullscreenRecorder struct {
	mu         sync.Mutex
	warnings   int
	cleared    int
	expired    int
	violations int
}

func (r *fullscreenRecorder) events() FullscreenEvents {
	return FullscreenEvents{
		WarningShown: func(time.Time) {
			r.mu.Lock()
			r.warnings++
			r.mu.Unlock()
		},
		WarningCleared: func() {
			r.mu.Lock()
			r.cleared++
			r.mu.Unlock()
		},
		CountdownExpired: func() {
			r.mu.Lock()
			r.expired++
			r.mu.Unlock()
		},
		Violation: func() {
			r.mu.Lock()
			r.violations++
			r.mu.Unlock()
		},
	}
}

func (r *fullscreenRecorder) snapshot() (warnings, cleared, expired, violations int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warnings, r.cleared, r.expired, r.violations
}

func newTestFullscreenSensor(platform *fakePlatform, clock *fakeClock, rec *fullscreenRecorder) *FullscreenSensor {
	return NewFullscreenSensor(platform, clock, zerolog.Nop(), DefaultConfig(), rec.events())
}

func TestFullscreenLoginGraceSuppressesWarning(t *testing.T) {
	platform := newFakePlatform()
	platform.setFullscreen(false)
	clock := newFakeClock()
	rec := &fullscreenRecorder{}
	s := newTestFullscreenSensor(platform, clock, rec)
	defer s.Disable()

	s.StartLoginGrace()
	s.Enable()

	clock.Advance(2 * time.Second)
	warnings, _, _, _ := rec.snapshot()
	assert.Zero(t, warnings, "no warning inside the login grace window")

	clock.Advance(2 * time.Second)
	warnings, _, _, violations := rec.snapshot()
	assert.Equal(t, 1, warnings, "warning appears once grace elapses")
	assert.Zero(t, violations, "first warning of the session is exempt")
}

func TestFullscreenFirstWarningExemptThenCounts(t *testing.T) {
	platform := newFakePlatform()
	clock := newFakeClock()
	rec := &fullscreenRecorder{}
	s := newTestFullscreenSensor(platform, clock, rec)
	defer s.Disable()
	s.Enable()

	// First exit: warning only.
	platform.setFullscreen(false)
	s.HandleFullscreenChange(context.Background())
	warnings, _, _, violations := rec.snapshot()
	assert.Equal(t, 1, warnings)
	assert.Zero(t, violations)

	// Restore, then exit again: this one counts.
	platform.setFullscreen(true)
	s.HandleFullscreenChange(context.Background())
	_, cleared, _, _ := rec.snapshot()
	assert.Equal(t, 1, cleared)

	platform.setFullscreen(false)
	s.HandleFullscreenChange(context.Background())
	warnings, _, _, violations = rec.snapshot()
	assert.Equal(t, 2, warnings)
	assert.Equal(t, 1, violations)
}

func TestFullscreenPollRecordsOncePerEpisode(t *testing.T) {
	platform := newFakePlatform()
	clock := newFakeClock()
	rec := &fullscreenRecorder{}
	s := newTestFullscreenSensor(platform, clock, rec)
	defer s.Disable()
	s.Enable()

	// Consume the first-warning exemption.
	platform.setFullscreen(false)
	s.HandleFullscreenChange(context.Background())
	platform.setFullscreen(true)
	s.HandleFullscreenChange(context.Background())

	// Stay out of fullscreen across many poll intervals.
	platform.setFullscreen(false)
	clock.Advance(3 * time.Second)

	_, _, _, violations := rec.snapshot()
	assert.Equal(t, 1, violations, "continuous absence is one episode")
}

func TestFullscreenRestoreWithinCountdownClears(t *testing.T) {
	platform := newFakePlatform()
	clock := newFakeClock()
	rec := &fullscreenRecorder{}
	s := newTestFullscreenSensor(platform, clock, rec)
	defer s.Disable()
	s.Enable()

	platform.setFullscreen(false)
	s.HandleFullscreenChange(context.Background())
	_, ok := s.WarningDeadline()
	require.True(t, ok)

	clock.Advance(30 * time.Second)
	platform.setFullscreen(true)
	s.HandleFullscreenChange(context.Background())

	clock.Advance(time.Minute)
	_, cleared, expired, _ := rec.snapshot()
	assert.Equal(t, 1, cleared)
	assert.Zero(t, expired, "cancelled countdown must not fire")
}

func TestFullscreenCountdownExpiry(t *testing.T) {
	platform := newFakePlatform()
	clock := newFakeClock()
	rec := &fullscreenRecorder{}
	s := newTestFullscreenSensor(platform, clock, rec)
	defer s.Disable()
	s.Enable()

	platform.setFullscreen(false)
	s.HandleFullscreenChange(context.Background())
	clock.Advance(45 * time.Second)

	_, _, expired, _ := rec.snapshot()
	assert.Equal(t, 1, expired)
	_, ok := s.WarningDeadline()
	assert.False(t, ok)
}

func TestFullscreenDisableStopsEverything(t *testing.T) {
	platform := newFakePlatform()
	clock := newFakeClock()
	rec := &fullscreenRecorder{}
	s := newTestFullscreenSensor(platform, clock, rec)
	s.Enable()

	platform.setFullscreen(false)
	s.HandleFullscreenChange(context.Background())
	s.Disable()

	clock.Advance(2 * time.Minute)
	warnings, _, expired, violations := rec.snapshot()
	assert.Equal(t, 1, warnings)
	assert.Zero(t, expired)
	assert.Zero(t, violations)
}
