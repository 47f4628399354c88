package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration is a time.Duration that reads and writes JSON as "800ms" strings.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"800ms\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// TimingConfig holds the animation timings of the runtime.
type TimingConfig struct {
	FinalizerDuration    Duration `json:"finalizer_duration"`    // Simulated finalizer run time
	FlashDelay           Duration `json:"flash_delay"`           // How long a ref stays highlighted after a change
	NotificationDuration Duration `json:"notification_duration"` // Default lifetime of task notifications
}

// DisplayConfig holds playground rendering preferences.
type DisplayConfig struct {
	ShowTimers bool   `json:"show_timers"` // Show elapsed time on tasks that ask for it
	Theme      string `json:"theme"`       // "auto", "dark" or "light"
}

// MetricsConfig configures the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string `json:"addr,omitempty"` // Listen address, empty disables the server
}

// Config is the top-level configuration.
type Config struct {
	Timings TimingConfig  `json:"timings"`
	Display DisplayConfig `json:"display"`
	Metrics MetricsConfig `json:"metrics"`
}

// Themes lists the accepted values of DisplayConfig.Theme.
var Themes = []string{"auto", "dark", "light"}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	timings := []struct {
		name string
		d    Duration
	}{
		{"finalizer_duration", c.Timings.FinalizerDuration},
		{"flash_delay", c.Timings.FlashDelay},
		{"notification_duration", c.Timings.NotificationDuration},
	}
	for _, timing := range timings {
		if timing.d <= 0 {
			return fmt.Errorf("timings.%s must be positive, got %s", timing.name, timing.d)
		}
	}

	for _, theme := range Themes {
		if c.Display.Theme == theme {
			return nil
		}
	}
	return fmt.Errorf("display.theme must be one of %v, got %q", Themes, c.Display.Theme)
}
