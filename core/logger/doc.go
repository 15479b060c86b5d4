// Package logger provides structured logging utilities built on Go's standard
// slog package: a factory with environment presets and a set of nil-safe
// attribute helpers for the logging patterns this module emits.
//
// # Basic Usage
//
//	import "github.com/dmitrymomot/sessionkit/core/logger"
//
//	// Development: text format, debug level
//	log := logger.New(logger.WithDevelopment("adminapp"))
//
//	// Production: JSON format, info level
//	log := logger.New(logger.WithProduction("adminapp"))
//
//	log.Info("session established",
//		logger.Component("session"),
//		logger.Event("login"),
//		logger.UserID(user.ID.String()),
//	)
//
// # Nil Safety
//
// Attribute helpers return an empty slog.Attr for nil/empty input, so they can
// be passed unconditionally:
//
//	log.Error("refresh failed", logger.Error(err)) // fine even when err == nil
package logger
