package proctor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCursorReturnBeforeDwellIsFree(t *testing.T) {
	clock := newFakeClock()
	violations := 0
	s := NewCursorSensor(clock, DefaultConfig(), func() { violations++ })
	s.Enable()
	defer s.Disable()

	s.HandlePointer(context.Background(), false)
	clock.Advance(2 * time.Second)
	s.HandlePointer(context.Background(), true)
	clock.Advance(10 * time.Second)

	assert.Zero(t, violations, "a 2 second excursion is not a violation")
}

func TestCursorDwellTriggersViolation(t *testing.T) {
	clock := newFakeClock()
	violations := 0
	s := NewCursorSensor(clock, DefaultConfig(), func() { violations++ })
	s.Enable()
	defer s.Disable()

	s.HandlePointer(context.Background(), false)
	clock.Advance(3 * time.Second)

	assert.Equal(t, 1, violations)
}

func TestCursorViolationSpacing(t *testing.T) {
	clock := newFakeClock()
	violations := 0
	s := NewCursorSensor(clock, DefaultConfig(), func() { violations++ })
	s.Enable()
	defer s.Disable()

	// First dwell counts.
	s.HandlePointer(context.Background(), false)
	clock.Advance(3 * time.Second)
	assert.Equal(t, 1, violations)

	// A second dwell inside the spacing window does not.
	s.HandlePointer(context.Background(), true)
	s.HandlePointer(context.Background(), false)
	clock.Advance(3 * time.Second)
	assert.Equal(t, 1, violations)

	// After the spacing window it does again.
	s.HandlePointer(context.Background(), true)
	clock.Advance(5 * time.Second)
	s.HandlePointer(context.Background(), false)
	clock.Advance(3 * time.Second)
	assert.Equal(t, 2, violations)
}

func TestCursorDisableCancelsDwell(t *testing.T) {
	clock := newFakeClock()
	violations := 0
	s := NewCursorSensor(clock, DefaultConfig(), func() { violations++ })
	s.Enable()

	s.HandlePointer(context.Background(), false)
	s.Disable()
	clock.Advance(time.Minute)

	assert.Zero(t, violations)
}
