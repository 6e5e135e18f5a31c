package engine

import (
	"errors"
	"fmt"
)

// ConfigError wraps a configuration failure detected before a run starts.
// The wrapped error is a *config.ValidationError, a *rent.ScheduleError or
// a catalog error.
type ConfigError struct {
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %v", e.Err)
}

// Unwrap exposes the underlying error to errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is, or wraps, a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// ReplayMismatchError is returned by Verify when a re-run diverges.
type ReplayMismatchError struct {
	Seed int64
	Want string
	Got  string

	// FirstEpoch is the first epoch whose record differs, or -1 when the
	// epoch logs agree and only the summary differs.
	FirstEpoch int
}

// Error implements the error interface.
func (e *ReplayMismatchError) Error() string {
	if e.FirstEpoch >= 0 {
		return fmt.Sprintf("replay of seed %d diverged at epoch %d: fingerprint %s != %s", e.Seed, e.FirstEpoch, e.Got, e.Want)
	}
	return fmt.Sprintf("replay of seed %d diverged: fingerprint %s != %s", e.Seed, e.Got, e.Want)
}

// IsReplayMismatch reports whether err is, or wraps, a ReplayMismatchError.
func IsReplayMismatch(err error) bool {
	var re *ReplayMismatchError
	return errors.As(err, &re)
}
