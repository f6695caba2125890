package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/errx"
	"github.com/serroba/shortlink/internal/generation"
)

// ToHTTPError maps a classified error to the status its kind implies.
// Internal details are not exposed for Internal and Unknown kinds.
func ToHTTPError(err error) error {
	switch errx.KindOf(err) {
	case errx.Invalid:
		return huma.Error400BadRequest(reason(err))
	case errx.NotFound:
		return huma.Error404NotFound("short url not found")
	case errx.Gone:
		return huma.Error410Gone("short url has expired")
	case errx.Unavailable:
		return huma.Error502BadGateway("upstream unavailable")
	case errx.Cancelled:
		return huma.NewError(generation.StatusClientClosedRequest, "request cancelled")
	default:
		return huma.Error500InternalServerError("internal error")
	}
}

// reason returns the message of the error an *errx.Error wraps.
func reason(err error) string {
	var e *errx.Error
	if errors.As(err, &e) && e.Err != nil {
		return reason(e.Err)
	}

	return err.Error()
}
