package proctor

import "time"

// Config carries the proctoring thresholds and windows. Zero value fields
// are replaced with the defaults below by withDefaults.
type Config struct {
	// MaxViolations is the strike ceiling; reaching it blocks the student.
	MaxViolations int
	// RecordDebounce is the minimum spacing between successful recordings.
	RecordDebounce time.Duration
	// LoginGrace suppresses the fullscreen warning entirely right after login.
	LoginGrace time.Duration
	// FullscreenPoll is the enforcement polling interval.
	FullscreenPoll time.Duration
	// WarningCountdown is the grace window to restore fullscreen or network.
	WarningCountdown time.Duration
	// InputThrottle caps restricted-input violations to one per window.
	InputThrottle time.Duration
	// CursorDwell is how long the pointer must stay outside before a
	// violation fires.
	CursorDwell time.Duration
	// CursorSpacing is the minimum gap between cursor-triggered violations.
	CursorSpacing time.Duration
	// ResizeSettle and FullscreenSettle delay the split-screen check until
	// window geometry has stabilised.
	ResizeSettle     time.Duration
	FullscreenSettle time.Duration
	// SplitScreenRatio is the viewport/screen ratio below which a
	// nominally-fullscreen window counts as split screen. Heuristic; kept
	// tunable on purpose.
	SplitScreenRatio float64
	// TimerTick is the remaining-time recompute interval.
	TimerTick time.Duration
	// ProgressSaveEvery is how often remaining time is persisted.
	ProgressSaveEvery time.Duration
	// UnblockFullscreenDelay is the pause before the automatic fullscreen
	// re-entry attempt after an unblock.
	UnblockFullscreenDelay time.Duration
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		MaxViolations:          5,
		RecordDebounce:         time.Second,
		LoginGrace:             3 * time.Second,
		FullscreenPoll:         100 * time.Millisecond,
		WarningCountdown:       45 * time.Second,
		InputThrottle:          time.Second,
		CursorDwell:            3 * time.Second,
		CursorSpacing:          5 * time.Second,
		ResizeSettle:           1500 * time.Millisecond,
		FullscreenSettle:       500 * time.Millisecond,
		SplitScreenRatio:       0.9,
		TimerTick:              time.Second,
		ProgressSaveEvery:      10 * time.Second,
		UnblockFullscreenDelay: time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxViolations == 0 {
		c.MaxViolations = d.MaxViolations
	}
	if c.RecordDebounce == 0 {
		c.RecordDebounce = d.RecordDebounce
	}
	if c.LoginGrace == 0 {
		c.LoginGrace = d.LoginGrace
	}
	if c.FullscreenPoll == 0 {
		c.FullscreenPoll = d.FullscreenPoll
	}
	if c.WarningCountdown == 0 {
		c.WarningCountdown = d.WarningCountdown
	}
	if c.InputThrottle == 0 {
		c.InputThrottle = d.InputThrottle
	}
	if c.CursorDwell == 0 {
		c.CursorDwell = d.CursorDwell
	}
	if c.CursorSpacing == 0 {
		c.CursorSpacing = d.CursorSpacing
	}
	if c.ResizeSettle == 0 {
		c.ResizeSettle = d.ResizeSettle
	}
	if c.FullscreenSettle == 0 {
		c.FullscreenSettle = d.FullscreenSettle
	}
	if c.SplitScreenRatio == 0 {
		c.SplitScreenRatio = d.SplitScreenRatio
	}
	if c.TimerTick == 0 {
		c.TimerTick = d.TimerTick
	}
	if c.ProgressSaveEvery == 0 {
		c.ProgressSaveEvery = d.ProgressSaveEvery
	}
	if c.UnblockFullscreenDelay == 0 {
		c.UnblockFullscreenDelay = d.UnblockFullscreenDelay
	}
	return c
}
