package proctor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// NetworkEvents are the session-facing callbacks of the network sensor.
type NetworkEvents struct {
	WarningShown   func(deadline time.Time)
	WarningCleared func()
	// CountdownExpired fires when connectivity is not restored in time.
	// This path blocks and disqualifies directly; it never goes through
	// the violation counter.
	CountdownExpired func()
}

// NetworkSensor watches connectivity reports. Loss opens a countdown;
// restoration within the window dismisses it with a success notification,
// expiry is an immediate terminal action.
type NetworkSensor struct {
	clock  Clock
	cfg    Config
	log    zerolog.Logger
	notify Notifier
	events NetworkEvents

	mu        sync.Mutex
	enabled   bool
	online    bool
	countdown Timer
	deadline  time.Time
	warning   bool
}

// NewNetworkSensor creates the sensor in the disarmed state. The student
// is assumed online until the first report says otherwise.
func NewNetworkSensor(clock Clock, notify Notifier, log zerolog.Logger, cfg Config, events NetworkEvents) *NetworkSensor {
	return &NetworkSensor{
		clock:  clock,
		cfg:    cfg.withDefaults(),
		log:    log.With().Str("component", "network_sensor").Logger(),
		notify: notify,
		events: events,
		online: true,
	}
}

// Enable arms the sensor.
func (s *NetworkSensor) Enable() {
	s.mu.Lock()
	s.enabled = true
	s.mu.Unlock()
}

// Disable disarms the sensor and cancels any pending countdown.
func (s *NetworkSensor) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = false
	s.warning = false
	if s.countdown != nil {
		s.countdown.Stop()
		s.countdown = nil
	}
}

// HandleConnectivity processes an online/offline report from the client.
func (s *NetworkSensor) HandleConnectivity(_ context.Context, online bool) {
	var fire []func()

	s.mu.Lock()
	s.online = online
	if !s.enabled {
		s.mu.Unlock()
		return
	}

	if !online && !s.warning {
		s.warning = true
		s.deadline = s.clock.Now().Add(s.cfg.WarningCountdown)
		s.countdown = s.clock.AfterFunc(s.cfg.WarningCountdown, s.expire)
		if s.events.WarningShown != nil {
			deadline := s.deadline
			shown := s.events.WarningShown
			fire = append(fire, func() { shown(deadline) })
		}
	} else if online && s.warning {
		s.warning = false
		if s.countdown != nil {
			s.countdown.Stop()
			s.countdown = nil
		}
		fire = append(fire, func() {
			s.notify.Info("Internet connection restored! Continuing test...")
			if s.events.WarningCleared != nil {
				s.events.WarningCleared()
			}
		})
	}
	s.mu.Unlock()

	for _, f := range fire {
		f()
	}
}

func (s *NetworkSensor) expire() {
	s.mu.Lock()
	if !s.enabled || !s.warning || s.online {
		s.mu.Unlock()
		return
	}
	s.warning = false
	s.countdown = nil
	s.mu.Unlock()

	s.log.Warn().Msg("Network countdown expired")
	if s.events.CountdownExpired != nil {
		s.events.CountdownExpired()
	}
}

// WarningDeadline reports the active countdown deadline, if any.
func (s *NetworkSensor) WarningDeadline() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.warning {
		return time.Time{}, false
	}
	return s.deadline, true
}
