package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/ratelimit"
	"go.uber.org/zap"
)

// PolicyRateLimiter rejects requests over their limits with 429 and a
// Retry-After of the broken window. When the counter store fails the request
// is let through.
//
// A ratelimit.EndpointConfig in the operation metadata can disable limiting,
// pin the scope, or replace the policy with route-specific limits.
func PolicyRateLimiter(
	api huma.API,
	limiter *ratelimit.PolicyLimiter,
	resolver ratelimit.ScopeResolver,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		cfg := ratelimit.GetEndpointConfig(ctx)
		if cfg != nil && cfg.Disabled {
			next(ctx)

			return
		}

		var (
			allowed  bool
			exceeded *ratelimit.LimitExceeded
			err      error
			route    = operationPath(ctx)
			client   = clientKey(ctx)
		)

		if cfg != nil && len(cfg.Limits) > 0 {
			allowed, exceeded, err = limiter.AllowLimits(ctx.Context(), client, route, cfg.Limits)
		} else {
			allowed, exceeded, err = limiter.Allow(ctx.Context(), client, resolver.Resolve(ctx))
		}

		switch {
		case err != nil:
			logger.Warn("rate limit check failed, allowing request", zap.String("path", route), zap.Error(err))
			next(ctx)
		case !allowed:
			limit := exceeded.Config
			logger.Warn("rate limit exceeded",
				zap.String("path", route),
				zap.String("scope", string(exceeded.Scope)),
				zap.Int64("count", exceeded.Count),
				zap.Int64("max", limit.Max),
				zap.Duration("window", limit.Window),
				zap.String("client_ip", clientIP(ctx)),
			)
			ctx.SetHeader("Retry-After", strconv.Itoa(int(limit.Window.Seconds())))
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, fmt.Sprintf(
				"rate limit exceeded: %s scope, %d/%d requests in %s",
				exceeded.Scope, exceeded.Count, limit.Max, limit.Window))
		default:
			next(ctx)
		}
	}
}

func operationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ctx.URL().Path
}

// clientKey hashes the client IP with its User-Agent.
func clientKey(ctx huma.Context) string {
	sum := sha256.Sum256([]byte(clientIP(ctx) + "|" + ctx.Header("User-Agent")))

	return hex.EncodeToString(sum[:])
}

// clientIP takes the first X-Forwarded-For hop, then X-Real-IP, then the peer address.
func clientIP(ctx huma.Context) string {
	if forwarded := ctx.Header("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")

		return strings.TrimSpace(first)
	}

	if realIP := ctx.Header("X-Real-IP"); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(ctx.RemoteAddr())
	if err != nil {
		return ctx.RemoteAddr()
	}

	return host
}
