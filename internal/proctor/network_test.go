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

type networkRecorder struct {
	mu       sync.Mutex
	warnings int
	cleared  int
	expired  int
}

func (r *networkRecorder) events() NetworkEvents {
	return NetworkEvents{
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
	}
}

func (r *networkRecorder) snapshot() (warnings, cleared, expired int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warnings, r.cleared, r.expired
}

func TestNetworkRestoreWithinCountdown(t *testing.T) {
	clock := newFakeClock()
	notify := &fakeNotifier{}
	rec := &networkRecorder{}
	s := NewNetworkSensor(clock, notify, zerolog.Nop(), DefaultConfig(), rec.events())
	s.Enable()
	defer s.Disable()

	s.HandleConnectivity(context.Background(), false)
	warnings, _, _ := rec.snapshot()
	require.Equal(t, 1, warnings)
	_, ok := s.WarningDeadline()
	require.True(t, ok)

	clock.Advance(20 * time.Second)
	s.HandleConnectivity(context.Background(), true)

	_, cleared, _ := rec.snapshot()
	assert.Equal(t, 1, cleared)
	require.Len(t, notify.infoLog(), 1)
	assert.Contains(t, notify.infoLog()[0], "restored")

	clock.Advance(time.Minute)
	_, _, expired := rec.snapshot()
	assert.Zero(t, expired, "restored connection must cancel the countdown")
}

func TestNetworkCountdownExpiry(t *testing.T) {
	clock := newFakeClock()
	rec := &networkRecorder{}
	s := NewNetworkSensor(clock, &fakeNotifier{}, zerolog.Nop(), DefaultConfig(), rec.events())
	s.Enable()
	defer s.Disable()

	s.HandleConnectivity(context.Background(), false)
	clock.Advance(45 * time.Second)

	_, _, expired := rec.snapshot()
	assert.Equal(t, 1, expired)
}

func TestNetworkRepeatedOfflineReportsKeepOneCountdown(t *testing.T) {
	clock := newFakeClock()
	rec := &networkRecorder{}
	s := NewNetworkSensor(clock, &fakeNotifier{}, zerolog.Nop(), DefaultConfig(), rec.events())
	s.Enable()
	defer s.Disable()

	s.HandleConnectivity(context.Background(), false)
	clock.Advance(10 * time.Second)
	s.HandleConnectivity(context.Background(), false)
	clock.Advance(35 * time.Second)

	warnings, _, expired := rec.snapshot()
	assert.Equal(t, 1, warnings)
	assert.Equal(t, 1, expired, "deadline is anchored to the first offline report")
}

func TestNetworkDisabledSensorIgnoresReports(t *testing.T) {
	clock := newFakeClock()
	rec := &networkRecorder{}
	s := NewNetworkSensor(clock, &fakeNotifier{}, zerolog.Nop(), DefaultConfig(), rec.events())

	s.HandleConnectivity(context.Background(), false)
	clock.Advance(time.Minute)

	warnings, _, expired := rec.snapshot()
	assert.Zero(t, warnings)
	assert.Zero(t, expired)
}
