package proctor

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newTestSplitScreenSensor(platform *fakePlatform, clock *fakeClock, violations *int) *SplitScreenSensor {
	return NewSplitScreenSensor(platform, clock, zerolog.Nop(), DefaultConfig(),
		func() bool { return true },
		func() { *violations++ })
}

func TestSplitScreenDetectedAfterResizeSettles(t *testing.T) {
	platform := newFakePlatform()
	clock := newFakeClock()
	violations := 0
	s := newTestSplitScreenSensor(platform, clock, &violations)
	s.Enable()
	defer s.Disable()

	platform.setRatio(0.5, 1)
	s.HandleResize(context.Background())

	clock.Advance(time.Second)
	assert.Zero(t, violations, "check waits for the settle window")

	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 1, violations)
}

func TestSplitScreenResizeBurstCollapses(t *testing.T) {
	platform := newFakePlatform()
	clock := newFakeClock()
	violations := 0
	s := newTestSplitScreenSensor(platform, clock, &violations)
	s.Enable()
	defer s.Disable()

	platform.setRatio(0.5, 0.5)
	for i := 0; i < 5; i++ {
		s.HandleResize(context.Background())
		clock.Advance(200 * time.Millisecond)
	}
	clock.Advance(2 * time.Second)

	assert.Equal(t, 1, violations, "one check after the last resize")
}

func TestSplitScreenIgnoredOutsideFullscreen(t *testing.T) {
	platform := newFakePlatform()
	platform.setFullscreen(false)
	clock := newFakeClock()
	violations := 0
	s := newTestSplitScreenSensor(platform, clock, &violations)
	s.Enable()
	defer s.Disable()

	platform.setRatio(0.5, 1)
	s.HandleResize(context.Background())
	clock.Advance(2 * time.Second)

	assert.Zero(t, violations, "the fullscreen sensor owns non-fullscreen states")
}

func TestSplitScreenHealthyRatioPasses(t *testing.T) {
	platform := newFakePlatform()
	clock := newFakeClock()
	violations := 0
	s := newTestSplitScreenSensor(platform, clock, &violations)
	s.Enable()
	defer s.Disable()

	platform.setRatio(0.95, 0.92)
	s.HandleResize(context.Background())
	s.HandleFullscreenChange(context.Background())
	clock.Advance(2 * time.Second)

	assert.Zero(t, violations)
}

func TestSplitScreenQuietAtCeiling(t *testing.T) {
	platform := newFakePlatform()
	clock := newFakeClock()
	violations := 0
	s := NewSplitScreenSensor(platform, clock, zerolog.Nop(), DefaultConfig(),
		func() bool { return false },
		func() { violations++ })
	s.Enable()
	defer s.Disable()

	platform.setRatio(0.5, 0.5)
	s.HandleResize(context.Background())
	clock.Advance(2 * time.Second)

	assert.Zero(t, violations)
}
