package handlers

import (
	"context"

	"github.com/serroba/shortlink/internal/shortener"
)

// GenerateHandler serves the GenerateCode operation.
type GenerateHandler struct {
	codes shortener.CodeSource
}

// NewGenerateHandler creates a handler backed by codes.
func NewGenerateHandler(codes shortener.CodeSource) *GenerateHandler {
	return &GenerateHandler{codes: codes}
}

func (h *GenerateHandler) GenerateCode(ctx context.Context, _ *struct{}) (*GenerateCodeResponse, error) {
	code, err := h.codes.GenerateCode(ctx)
	if err != nil {
		return nil, ToHTTPError(err)
	}

	resp := &GenerateCodeResponse{}
	resp.Body.ShortCode = code

	return resp, nil
}
