package proctor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInputKeysSuppressedAndThrottled(t *testing.T) {
	clock := newFakeClock()
	violations := 0
	s := NewInputSensor(clock, DefaultConfig(), func() { violations++ })
	s.Enable()

	assert.True(t, s.HandleKey(context.Background(), "Tab"))
	assert.True(t, s.HandleKey(context.Background(), "Escape"))
	assert.True(t, s.HandleKey(context.Background(), "Meta"))
	assert.Equal(t, 1, violations, "burst collapses to one violation")

	clock.Advance(time.Second)
	assert.True(t, s.HandleKey(context.Background(), "Alt"))
	assert.Equal(t, 2, violations)
}

func TestInputF11Allowed(t *testing.T) {
	clock := newFakeClock()
	violations := 0
	s := NewInputSensor(clock, DefaultConfig(), func() { violations++ })
	s.Enable()

	assert.False(t, s.HandleKey(context.Background(), "F11"), "F11 re-enters fullscreen")
	assert.Zero(t, violations)
}

func TestInputMouseButtons(t *testing.T) {
	clock := newFakeClock()
	violations := 0
	s := NewInputSensor(clock, DefaultConfig(), func() { violations++ })
	s.Enable()

	assert.True(t, s.HandleMouseButton(context.Background(), MouseButtonMiddle))
	assert.Equal(t, 1, violations)

	clock.Advance(time.Second)
	assert.True(t, s.HandleMouseButton(context.Background(), MouseButtonBack))
	clock.Advance(time.Second)
	assert.True(t, s.HandleMouseButton(context.Background(), MouseButtonForward))
	assert.Equal(t, 3, violations)

	clock.Advance(time.Second)
	assert.False(t, s.HandleMouseButton(context.Background(), 0), "left click is normal input")
	assert.Equal(t, 3, violations)
}

func TestInputContextMenuSuppressed(t *testing.T) {
	clock := newFakeClock()
	violations := 0
	s := NewInputSensor(clock, DefaultConfig(), func() { violations++ })
	s.Enable()

	assert.True(t, s.HandleContextMenu(context.Background()))
	assert.Equal(t, 1, violations)
}

func TestInputDisabledSensorSuppressesWithoutCounting(t *testing.T) {
	clock := newFakeClock()
	violations := 0
	s := NewInputSensor(clock, DefaultConfig(), func() { violations++ })

	assert.True(t, s.HandleKey(context.Background(), "Tab"))
	assert.True(t, s.HandleContextMenu(context.Background()))
	assert.Zero(t, violations)
}
