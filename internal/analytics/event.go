// Package analytics defines the events emitted on create and resolve and the
// consumers that persist them.
package analytics

import "time"

const (
	TopicURLCreated  = "url.created"
	TopicURLResolved = "url.resolved"
)

// URLCreatedEvent is emitted after a short URL is persisted.
type URLCreatedEvent struct {
	Code      string     `json:"code"`
	LongURL   string     `json:"longUrl"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	ClientIP  string     `json:"clientIp"`
	UserAgent string     `json:"userAgent"`
	RequestID string     `json:"requestId,omitempty"`
}

// URLResolvedEvent is emitted on every successful lookup, expired or not.
type URLResolvedEvent struct {
	Code       string    `json:"code"`
	ResolvedAt time.Time `json:"resolvedAt"`
	Expired    bool      `json:"expired"`
	CacheHit   bool      `json:"cacheHit"`
	Redirect   bool      `json:"redirect"`
	ClientIP   string    `json:"clientIp"`
	UserAgent  string    `json:"userAgent"`
	Referrer   string    `json:"referrer,omitempty"`
	RequestID  string    `json:"requestId,omitempty"`
}
