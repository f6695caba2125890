package shortener

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
)

// MaxLongURLLength is the longest accepted long URL in bytes.
const MaxLongURLLength = 2048

// MaxTTLSeconds is the largest TTL that still fits in a time.Duration.
const MaxTTLSeconds = math.MaxInt64 / int64(time.Second)

var (
	ErrURLRequired      = errors.New("long url is required")
	ErrURLTooLong       = fmt.Errorf("long url is too long (> %d chars)", MaxLongURLLength)
	ErrURLInvalidFormat = errors.New("long url has invalid format")
	ErrURLInvalidScheme = errors.New("only http/https schemes are allowed")
	ErrURLMissingHost   = errors.New("long url must contain host")
	ErrNegativeTTL      = errors.New("ttl seconds must not be negative")
	ErrTTLTooLarge      = fmt.Errorf("ttl seconds must not exceed %d", MaxTTLSeconds)
)

// ValidateLongURL checks, in order: presence, length, absolute URL syntax,
// http/https scheme and a non-empty host. The first failing rule is returned.
func ValidateLongURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrURLRequired
	}

	if len(raw) > MaxLongURLLength {
		return ErrURLTooLong
	}

	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return ErrURLInvalidFormat
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return ErrURLInvalidScheme
	}

	if u.Hostname() == "" {
		return ErrURLMissingHost
	}

	return nil
}

// ValidateTTL rejects negative TTLs and TTLs that overflow a time.Duration.
func ValidateTTL(ttlSeconds int64) error {
	switch {
	case ttlSeconds < 0:
		return ErrNegativeTTL
	case ttlSeconds > MaxTTLSeconds:
		return ErrTTLTooLarge
	}

	return nil
}
