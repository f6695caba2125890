// Package snowflake mints 64-bit, time-ordered identifiers and renders them as base-62 short codes.
//
// An ID packs three fields, most significant first:
//
//	41 bits  milliseconds since the epoch
//	10 bits  instance id (0-1023)
//	12 bits  per-millisecond sequence (0-4095)
package snowflake

import "time"

const (
	TimestampBits = 41
	InstanceBits  = 10
	SequenceBits  = 12

	MaxTimestamp  = 1<<TimestampBits - 1
	MaxInstanceID = 1<<InstanceBits - 1
	MaxSequence   = 1<<SequenceBits - 1

	instanceShift  = SequenceBits
	timestampShift = InstanceBits + SequenceBits
)

// DefaultEpoch is 2025-01-01T00:00:00Z.
var DefaultEpoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// ID is a composed snowflake identifier.
type ID uint64

// Compose packs the three fields into an ID. Out-of-range inputs are masked.
func Compose(millis int64, instanceID, sequence uint16) ID {
	return ID(uint64(millis)&MaxTimestamp<<timestampShift |
		uint64(instanceID)&MaxInstanceID<<instanceShift |
		uint64(sequence)&MaxSequence)
}

// Timestamp returns the milliseconds since the epoch.
func (id ID) Timestamp() int64 {
	return int64(uint64(id) >> timestampShift)
}

func (id ID) InstanceID() uint16 {
	return uint16(uint64(id) >> instanceShift & MaxInstanceID)
}

func (id ID) Sequence() uint16 {
	return uint16(uint64(id) & MaxSequence)
}

// Time converts the timestamp field back to an instant relative to epoch.
func (id ID) Time(epoch time.Time) time.Time {
	return epoch.Add(time.Duration(id.Timestamp()) * time.Millisecond)
}

// String returns the base-62 short code.
func (id ID) String() string {
	return Encode(uint64(id))
}
