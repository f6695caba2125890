package snowflake

import (
	"errors"
	"fmt"
)

var (
	// ErrEpochViolation means the clock read at or before the configured epoch.
	ErrEpochViolation = errors.New("snowflake: clock is at or before epoch")
	// ErrTimestampOverflow means elapsed milliseconds no longer fit in 41 bits.
	ErrTimestampOverflow = errors.New("snowflake: elapsed time overflows 41 bits")
	// ErrClockRegression means the clock went backwards relative to the last issued tick.
	ErrClockRegression = errors.New("snowflake: clock moved backwards")

	ErrInvalidInstanceID = fmt.Errorf("snowflake: instance id must be between 0 and %d", MaxInstanceID)
)

// ClockError reports a clock reading the generator refused to use.
// It wraps one of ErrEpochViolation, ErrTimestampOverflow or ErrClockRegression.
type ClockError struct {
	Err      error
	Elapsed  int64
	LastTick int64
}

func (e *ClockError) Error() string {
	return fmt.Sprintf("%v (elapsed=%dms last=%dms)", e.Err, e.Elapsed, e.LastTick)
}

func (e *ClockError) Unwrap() error {
	return e.Err
}

// IsClockError reports whether err carries a ClockError.
func IsClockError(err error) bool {
	var ce *ClockError

	return errors.As(err, &ce)
}
