package snowflake_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/serroba/shortlink/internal/clock"
	"github.com/serroba/shortlink/internal/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var testStart = snowflake.DefaultEpoch.Add(36 * time.Hour)

// readCounter returns before for the first n reads and after from then on.
type readCounter struct {
	mu     sync.Mutex
	reads  int
	n      int
	before time.Time
	after  time.Time
}

func (c *readCounter) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reads++
	if c.reads <= c.n {
		return c.before
	}

	return c.after
}

func newGenerator(t *testing.T, c clock.Clock, instance uint16) *snowflake.Generator {
	t.Helper()

	g, err := snowflake.New(c, snowflake.Config{InstanceID: instance})
	require.NoError(t, err)

	return g
}

func TestNew(t *testing.T) {
	t.Run("defaults epoch", func(t *testing.T) {
		g := newGenerator(t, clock.System{}, 1)

		assert.Equal(t, snowflake.DefaultEpoch, g.Epoch())
		assert.Equal(t, uint16(1), g.InstanceID())
	})

	t.Run("accepts max instance id", func(t *testing.T) {
		_, err := snowflake.New(clock.System{}, snowflake.Config{InstanceID: snowflake.MaxInstanceID})

		assert.NoError(t, err)
	})

	t.Run("rejects instance id above 1023", func(t *testing.T) {
		_, err := snowflake.New(clock.System{}, snowflake.Config{InstanceID: 1024})

		assert.ErrorIs(t, err, snowflake.ErrInvalidInstanceID)
	})
}

func TestGenerator_SameMillisecond(t *testing.T) {
	c := clock.NewManual(testStart)
	g := newGenerator(t, c, 3)

	first, err := g.Next()
	require.NoError(t, err)

	second, err := g.Next()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, first.Timestamp(), second.Timestamp())
	assert.Equal(t, uint16(0), first.Sequence())
	assert.Equal(t, first.Sequence()+1, second.Sequence())
	assert.Equal(t, uint16(3), second.InstanceID())
}

func TestGenerator_NewMillisecondResetsSequence(t *testing.T) {
	c := clock.NewManual(testStart)
	g := newGenerator(t, c, 0)

	for range 5 {
		_, err := g.Next()
		require.NoError(t, err)
	}

	c.Advance(time.Millisecond)

	id, err := g.Next()
	require.NoError(t, err)

	assert.Equal(t, uint16(0), id.Sequence())
	assert.Equal(t, testStart.Sub(snowflake.DefaultEpoch).Milliseconds()+1, id.Timestamp())
}

func TestGenerator_Monotonic(t *testing.T) {
	g := newGenerator(t, clock.System{}, 7)

	var prev snowflake.ID

	for i := range 20000 {
		id, err := g.Next()
		require.NoError(t, err)

		if i > 0 {
			require.Greater(t, uint64(id), uint64(prev))
		}

		prev = id
	}
}

func TestGenerator_ConcurrentUnique(t *testing.T) {
	g := newGenerator(t, clock.System{}, 42)

	const (
		workers   = 8
		perWorker = 5000
	)

	results := make([][]string, workers)

	var eg errgroup.Group

	for w := range workers {
		eg.Go(func() error {
			codes := make([]string, 0, perWorker)

			for range perWorker {
				code, err := g.Generate()
				if err != nil {
					return err
				}

				codes = append(codes, code)
			}

			results[w] = codes

			return nil
		})
	}

	require.NoError(t, eg.Wait())

	seen := make(map[string]struct{}, workers*perWorker)

	for _, codes := range results {
		for _, code := range codes {
			_, dup := seen[code]
			require.False(t, dup, "duplicate code %s", code)

			seen[code] = struct{}{}
		}
	}

	assert.Len(t, seen, workers*perWorker)
}

func TestGenerator_InstancePartitioning(t *testing.T) {
	c := clock.NewManual(testStart)
	a := newGenerator(t, c, 1)
	b := newGenerator(t, c, 2)

	idA, err := a.Next()
	require.NoError(t, err)

	idB, err := b.Next()
	require.NoError(t, err)

	assert.Equal(t, idA.Timestamp(), idB.Timestamp())
	assert.Equal(t, idA.Sequence(), idB.Sequence())
	assert.NotEqual(t, idA, idB)
	assert.Equal(t, uint16(1), idA.InstanceID())
	assert.Equal(t, uint16(2), idB.InstanceID())
}

func TestGenerator_SequenceExhaustion(t *testing.T) {
	t.Run("waits for the next millisecond", func(t *testing.T) {
		c := &readCounter{
			n:      snowflake.MaxSequence + 1 + 5,
			before: testStart,
			after:  testStart.Add(time.Millisecond),
		}
		g := newGenerator(t, c, 0)

		var last snowflake.ID

		for range snowflake.MaxSequence + 1 {
			id, err := g.Next()
			require.NoError(t, err)

			last = id
		}

		assert.Equal(t, uint16(snowflake.MaxSequence), last.Sequence())

		next, err := g.Next()
		require.NoError(t, err)

		assert.Equal(t, last.Timestamp()+1, next.Timestamp())
		assert.Equal(t, uint16(0), next.Sequence())
		assert.Greater(t, uint64(next), uint64(last))
		assert.Greater(t, c.reads, snowflake.MaxSequence+2, "generator should have re-read the clock while waiting")
	})

	t.Run("fails when the clock regresses during the wait", func(t *testing.T) {
		c := &readCounter{
			n:      snowflake.MaxSequence + 2,
			before: testStart,
			after:  testStart.Add(-time.Millisecond),
		}
		g := newGenerator(t, c, 0)

		for range snowflake.MaxSequence + 1 {
			_, err := g.Next()
			require.NoError(t, err)
		}

		_, err := g.Next()

		assert.ErrorIs(t, err, snowflake.ErrClockRegression)
	})
}

func TestGenerator_ClockErrors(t *testing.T) {
	t.Run("clock at epoch", func(t *testing.T) {
		g := newGenerator(t, clock.NewManual(snowflake.DefaultEpoch), 0)

		_, err := g.Next()

		assert.ErrorIs(t, err, snowflake.ErrEpochViolation)
		assert.True(t, snowflake.IsClockError(err))
	})

	t.Run("clock before epoch", func(t *testing.T) {
		g := newGenerator(t, clock.NewManual(snowflake.DefaultEpoch.Add(-time.Hour)), 0)

		_, err := g.Next()

		var ce *snowflake.ClockError
		require.ErrorAs(t, err, &ce)
		assert.ErrorIs(t, ce, snowflake.ErrEpochViolation)
	})

	t.Run("last representable millisecond", func(t *testing.T) {
		at := snowflake.DefaultEpoch.Add(snowflake.MaxTimestamp * time.Millisecond)
		g := newGenerator(t, clock.NewManual(at), 0)

		id, err := g.Next()

		require.NoError(t, err)
		assert.Equal(t, int64(snowflake.MaxTimestamp), id.Timestamp())
	})

	t.Run("timestamp overflow", func(t *testing.T) {
		at := snowflake.DefaultEpoch.Add((snowflake.MaxTimestamp + 1) * time.Millisecond)
		g := newGenerator(t, clock.NewManual(at), 0)

		_, err := g.Next()

		assert.ErrorIs(t, err, snowflake.ErrTimestampOverflow)
	})

	t.Run("clock moved backwards between calls", func(t *testing.T) {
		c := clock.NewManual(testStart)
		g := newGenerator(t, c, 0)

		_, err := g.Next()
		require.NoError(t, err)

		c.Set(testStart.Add(-5 * time.Millisecond))

		_, err = g.Next()
		require.ErrorIs(t, err, snowflake.ErrClockRegression)
		assert.False(t, errors.Is(err, snowflake.ErrEpochViolation))

		c.Set(testStart.Add(time.Millisecond))

		_, err = g.Next()
		assert.NoError(t, err)
	})
}

func TestCompose(t *testing.T) {
	id := snowflake.Compose(123456789, 1023, 4095)

	assert.Equal(t, int64(123456789), id.Timestamp())
	assert.Equal(t, uint16(1023), id.InstanceID())
	assert.Equal(t, uint16(4095), id.Sequence())
	assert.Equal(t, uint64(123456789)<<22|1023<<12|4095, uint64(id))
	assert.Equal(t, snowflake.DefaultEpoch.Add(123456789*time.Millisecond), id.Time(snowflake.DefaultEpoch))
}
