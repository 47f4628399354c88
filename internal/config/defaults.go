package config

import (
	"time"
)

// DefaultConfig returns the built-in timings and display settings.
func DefaultConfig() *Config {
	return &Config{
		Timings: TimingConfig{
			FinalizerDuration:    Duration(800 * time.Millisecond),
			FlashDelay:           Duration(50 * time.Millisecond),
			NotificationDuration: Duration(time.Second),
		},
		Display: DisplayConfig{
			ShowTimers: true,
			Theme:      "auto",
		},
	}
}
