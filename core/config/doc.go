// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package automatically loads .env files on first use and uses the
// caarlos0/env library for parsing environment variables into struct fields.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/sessionkit/core/config"
//
//	type SessionConfig struct {
//		InactivityWindow time.Duration `env:"SESSION_INACTIVITY_WINDOW" envDefault:"30m"`
//		RefreshThreshold time.Duration `env:"SESSION_REFRESH_THRESHOLD" envDefault:"5m"`
//	}
//
//	func main() {
//		var cfg SessionConfig
//
//		// Load with error handling
//		if err := config.Load(&cfg); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&cfg)
//	}
//
// # Caching Behavior
//
// Each configuration type is loaded only once per application lifetime;
// different types are cached independently. Repeated loads of the same type
// return the first parsed value, so every component sees identical settings.
package config
