package redis

import "errors"

// Domain-specific Redis errors for consistent handling. Use errors.Is() to
// distinguish configuration mistakes from transient connectivity problems.
var (
	ErrFailedToParseConnString = errors.New("failed to parse redis connection string")
	ErrNotReady                = errors.New("redis did not become ready within the given time period")
	ErrEmptyConnectionURL      = errors.New("empty redis connection URL")
	ErrHealthcheckFailed       = errors.New("redis healthcheck failed")
)
