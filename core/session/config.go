package session

import (
	"time"
)

// Config holds session lifecycle timings with environment variable mapping.
type Config struct {
	// InactivityWindow is the idle duration after which an authenticated
	// session is force-logged-out. Restarted on every observed activity.
	InactivityWindow time.Duration `env:"SESSION_INACTIVITY_WINDOW" envDefault:"30m"`
	// RefreshThreshold is the time-before-expiry at which CheckSession starts
	// a proactive background token refresh.
	RefreshThreshold time.Duration `env:"SESSION_REFRESH_THRESHOLD" envDefault:"5m"`
	// CheckInterval is the cadence of the optional background session check
	// loop (Run). Zero disables the loop.
	CheckInterval time.Duration `env:"SESSION_CHECK_INTERVAL" envDefault:"1m"`
}

func defaultConfig() Config {
	return Config{
		InactivityWindow: 30 * time.Minute,
		RefreshThreshold: 5 * time.Minute,
		CheckInterval:    time.Minute,
	}
}
