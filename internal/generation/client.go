package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-kit/kit/endpoint"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/serroba/shortlink/internal/errx"
	"github.com/serroba/shortlink/internal/metrics"
	"github.com/serroba/shortlink/internal/shortener"
)

// CodesPath is the route of the GenerateCode operation.
const CodesPath = "/codes"

// StatusClientClosedRequest reports a request abandoned by its caller.
const StatusClientClosedRequest = 499

// GenerateCodeResult is the wire form of a GenerateCode reply.
type GenerateCodeResult struct {
	ShortCode string `json:"shortCode"`
}

type errorReply struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// StatusError is a non-2xx reply from the generation service.
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("generation service responded %d: %s", e.Status, e.Detail)
}

// Client calls a remote generation service over HTTP.
type Client struct {
	generate endpoint.Endpoint
}

// NewClient creates a client for the generation service at baseURL.
func NewClient(baseURL string, httpClient *http.Client, m *metrics.Metrics) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse generator url: %w", err)
	}

	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("generator url %q must be absolute", baseURL)
	}

	tgt := base.JoinPath(CodesPath)

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	ep := httptransport.NewClient(
		http.MethodPost,
		tgt,
		encodeGenerateRequest,
		decodeGenerateResponse,
		httptransport.SetClient(httpClient),
	).Endpoint()

	return &Client{generate: m.Endpoint("GenerateCode")(ep)}, nil
}

// GenerateCode asks the remote service for a fresh code. Transport failures
// are Unavailable; caller cancellation is Cancelled; replies keep the kind
// implied by their status.
func (c *Client) GenerateCode(ctx context.Context) (string, error) {
	const op = "generation.Client.GenerateCode"

	resp, err := c.generate(ctx, struct{}{})
	if err != nil {
		if ctx.Err() != nil {
			return "", errx.E(op, errx.Cancelled, ctx.Err())
		}

		var se *StatusError
		if errors.As(err, &se) {
			return "", errx.E(op, KindFromStatus(se.Status), err)
		}

		return "", errx.E(op, errx.Unavailable, err)
	}

	result, ok := resp.(GenerateCodeResult)
	if !ok {
		return "", errx.E(op, errx.Internal, fmt.Errorf("unexpected response type %T", resp))
	}

	return result.ShortCode, nil
}

// KindFromStatus maps an HTTP status from a service back to an error kind.
func KindFromStatus(status int) errx.Kind {
	switch status {
	case StatusClientClosedRequest:
		return errx.Cancelled
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return errx.Invalid
	case http.StatusNotFound:
		return errx.NotFound
	case http.StatusGone:
		return errx.Gone
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusTooManyRequests:
		return errx.Unavailable
	default:
		return errx.Internal
	}
}

func encodeGenerateRequest(_ context.Context, r *http.Request, _ any) error {
	r.Header.Set("Accept", "application/json")
	r.Body = http.NoBody

	return nil
}

func decodeGenerateResponse(_ context.Context, r *http.Response) (any, error) {
	if r.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(r.Body, 4096))

		var reply errorReply

		detail := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &reply) == nil && (reply.Detail != "" || reply.Title != "") {
			detail = reply.Detail
			if detail == "" {
				detail = reply.Title
			}
		}

		return nil, &StatusError{Status: r.StatusCode, Detail: detail}
	}

	var result GenerateCodeResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode generate response: %w", err)
	}

	return result, nil
}

var _ shortener.CodeSource = (*Client)(nil)
