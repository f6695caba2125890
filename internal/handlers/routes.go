package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/generation"
	"github.com/serroba/shortlink/internal/ratelimit"
)

// RegisterGeneratorRoutes registers the GenerateCode operation.
// It is only called by the writer, so client rate limits do not apply.
func RegisterGeneratorRoutes(api huma.API, h *GenerateHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "GenerateCode",
		Method:      http.MethodPost,
		Path:        generation.CodesPath,
		Summary:     "Generate short code",
		Description: "Mints a unique, time-ordered base-62 short code.",
		Tags:        []string{"Codes"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true},
		},
	}, h.GenerateCode)
}

// RegisterWriterRoutes registers the CreateShortUrl operation with strict write limits.
func RegisterWriterRoutes(api huma.API, h *WriteHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "CreateShortUrl",
		Method:        http.MethodPost,
		Path:          "/short-urls",
		DefaultStatus: http.StatusCreated,
		Summary:       "Create short URL",
		Description:   "Validates the long URL, mints a fresh code and persists the mapping.",
		Tags:          []string{"URLs"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 10},
					{Window: time.Hour, Max: 100},
					{Window: 24 * time.Hour, Max: 500},
				},
			},
		},
	}, h.CreateShortURL)
}

// RegisterReaderRoutes registers ResolveShortUrl and the redirect endpoint.
func RegisterReaderRoutes(api huma.API, h *ReadHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "ResolveShortUrl",
		Method:      http.MethodGet,
		Path:        "/short-urls/{code}",
		Summary:     "Resolve short URL",
		Description: "Returns the stored record, including whether it has expired.",
		Tags:        []string{"URLs"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeRead},
		},
	}, h.ResolveShortURL)

	huma.Register(api, huma.Operation{
		OperationID: "RedirectToUrl",
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Redirect to original URL",
		Description: "Redirects to the long URL; 404 for unknown codes, 410 once expired.",
		Tags:        []string{"URLs"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 1000},
				},
			},
		},
	}, h.RedirectToURL)
}
