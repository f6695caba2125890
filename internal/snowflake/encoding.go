package snowflake

import (
	"errors"
	"math"

	"github.com/jxskiss/base62"
)

// Alphabet is the base-62 digit order used for short codes.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// MaxEncodedLen is the longest encoding of a uint64: 62^11 > 2^64.
const MaxEncodedLen = 11

var (
	ErrEmptyCode    = errors.New("snowflake: empty code")
	ErrCodeTooLong  = errors.New("snowflake: code longer than 11 characters")
	ErrInvalidDigit = errors.New("snowflake: invalid base62 digit")
	ErrOverflow     = errors.New("snowflake: code exceeds 64 bits")
	ErrLeadingZero  = errors.New("snowflake: code has a leading zero")
)

var encoding = base62.NewEncoding(Alphabet)

// maxCode is the longest valid code, "lYGhA16ahyf".
var maxCode = Encode(math.MaxUint64)

// Encode renders v most-significant digit first without padding. Zero encodes as "0".
func Encode(v uint64) string {
	var buf [MaxEncodedLen]byte

	if v == 0 {
		buf[0] = Alphabet[0]

		return string(buf[:1])
	}

	return string(encoding.AppendUint(buf[:0], v))
}

// Decode is the inverse of Encode. It accepts only canonical codes: no
// leading zeros and no value above math.MaxUint64.
func Decode(code string) (uint64, error) {
	switch {
	case code == "":
		return 0, ErrEmptyCode
	case len(code) > MaxEncodedLen:
		return 0, ErrCodeTooLong
	}

	for i := 0; i < len(code); i++ {
		if digitValue(code[i]) < 0 {
			return 0, ErrInvalidDigit
		}
	}

	if len(code) > 1 && code[0] == Alphabet[0] {
		return 0, ErrLeadingZero
	}

	if len(code) == MaxEncodedLen && exceedsMax(code) {
		return 0, ErrOverflow
	}

	return encoding.ParseUint([]byte(code))
}

// exceedsMax compares an 11-digit code with maxCode digit by digit; the
// alphabet order differs from byte order.
func exceedsMax(code string) bool {
	for i := 0; i < MaxEncodedLen; i++ {
		d, m := digitValue(code[i]), digitValue(maxCode[i])
		if d != m {
			return d > m
		}
	}

	return false
}

// digitValue returns the base-62 value of c, or -1.
func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 36
	default:
		return -1
	}
}
