package handlers

import (
	"time"

	"github.com/serroba/shortlink/internal/generation"
)

// GenerateCodeResponse carries a freshly minted code.
type GenerateCodeResponse struct {
	Body generation.GenerateCodeResult
}

// CreateShortURLRequest is the request body for creating a short URL.
// Fields are optional in the schema so validation reports the specific rule that failed.
type CreateShortURLRequest struct {
	Body struct {
		LongURL    string `doc:"The URL to shorten"                          example:"https://example.com/very/long/path" json:"longUrl,omitempty"`
		TTLSeconds int64  `doc:"Seconds until the link expires; 0 for never" example:"3600"                               json:"ttlSeconds,omitempty"`
	}
}

// CreateShortURLResponse is the response for a successfully created short URL.
type CreateShortURLResponse struct {
	Body struct {
		ShortCode string     `doc:"The short code"                 example:"2cT8pQx1bAz" json:"shortCode"`
		CreatedAt time.Time  `doc:"Creation time"                                        json:"createdAt"`
		ExpiresAt *time.Time `doc:"Expiry time, absent when never" json:"expiresAt,omitempty"`
	}
}

// ResolveShortURLRequest identifies the code to resolve.
type ResolveShortURLRequest struct {
	Code string `doc:"The short code" example:"2cT8pQx1bAz" path:"code"`
}

// ResolveShortURLResponse describes a stored short URL.
type ResolveShortURLResponse struct {
	Body struct {
		ShortCode string     `doc:"The short code"                       json:"shortCode"`
		LongURL   string     `doc:"The original URL"                     json:"longUrl"`
		CreatedAt time.Time  `doc:"Creation time"                        json:"createdAt"`
		ExpiresAt *time.Time `doc:"Expiry time, absent when never"       json:"expiresAt,omitempty"`
		IsExpired bool       `doc:"Whether the expiry is in the past"    json:"isExpired"`
	}
}

// RedirectRequest is the request for redirecting a short URL.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"2cT8pQx1bAz" path:"code"`
}

// RedirectResponse sends the client to the long URL.
type RedirectResponse struct {
	Status   int
	Location string `header:"Location"`
}
