package snowflake

import (
	"runtime"
	"sync"
	"time"

	"github.com/serroba/shortlink/internal/clock"
)

// Config selects the instance partition and epoch of a Generator.
type Config struct {
	InstanceID uint16
	// Epoch defaults to DefaultEpoch when zero.
	Epoch time.Time
}

// Validate checks the instance id fits in 10 bits.
func (c Config) Validate() error {
	if c.InstanceID > MaxInstanceID {
		return ErrInvalidInstanceID
	}

	return nil
}

// Generator issues IDs that are unique per instance and strictly increasing.
// A single mutex serialises every call, including any wait for the next millisecond.
type Generator struct {
	clock      clock.Clock
	epoch      time.Time
	instanceID uint16

	mu       sync.Mutex
	lastTick int64
	sequence uint16
}

// New creates a Generator. The clock is read on every call.
func New(c clock.Clock, cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	epoch := cfg.Epoch
	if epoch.IsZero() {
		epoch = DefaultEpoch
	}

	return &Generator{
		clock:      c,
		epoch:      epoch,
		instanceID: cfg.InstanceID,
		lastTick:   -1,
	}, nil
}

// InstanceID returns the configured instance partition.
func (g *Generator) InstanceID() uint16 {
	return g.instanceID
}

// Epoch returns the instant timestamps are measured from.
func (g *Generator) Epoch() time.Time {
	return g.epoch
}

// Next returns the next ID. When 4096 IDs have already been issued in the
// current millisecond it spins until the clock reaches the next one.
func (g *Generator) Next() (ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	tick, err := g.elapsed()
	if err != nil {
		return 0, err
	}

	switch {
	case tick < g.lastTick:
		return 0, g.regression(tick)
	case tick == g.lastTick:
		if g.sequence < MaxSequence {
			g.sequence++

			break
		}

		tick, err = g.waitNextTick()
		if err != nil {
			return 0, err
		}

		g.sequence = 0
		g.lastTick = tick
	default:
		g.sequence = 0
		g.lastTick = tick
	}

	return Compose(tick, g.instanceID, g.sequence), nil
}

// Generate returns the next ID rendered as a base-62 short code.
func (g *Generator) Generate() (string, error) {
	id, err := g.Next()
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (g *Generator) elapsed() (int64, error) {
	now := g.clock.Now()
	if !now.After(g.epoch) {
		return 0, &ClockError{Err: ErrEpochViolation, Elapsed: now.Sub(g.epoch).Milliseconds(), LastTick: g.lastTick}
	}

	ms := now.Sub(g.epoch).Milliseconds()
	if ms > MaxTimestamp {
		return 0, &ClockError{Err: ErrTimestampOverflow, Elapsed: ms, LastTick: g.lastTick}
	}

	return ms, nil
}

// waitNextTick must be called with mu held.
func (g *Generator) waitNextTick() (int64, error) {
	for {
		tick, err := g.elapsed()
		if err != nil {
			return 0, err
		}

		if tick < g.lastTick {
			return 0, g.regression(tick)
		}

		if tick > g.lastTick {
			return tick, nil
		}

		runtime.Gosched()
	}
}

func (g *Generator) regression(tick int64) error {
	return &ClockError{Err: ErrClockRegression, Elapsed: tick, LastTick: g.lastTick}
}
