package genai

import (
	"context"
	"fmt"
	"strings"

	"endorsement/internal/encoder"
)

const (
	BackendREST = "rest"
	BackendSDK  = "sdk"
)

// Generator is what both backends offer to the batch orchestrator.
type Generator interface {
	Generate(ctx context.Context, prompt string, model, product encoder.SourceImage) (string, error)
	Model() string
	HasCredentials() bool
}

// NewBackend returns the REST client or the SDK client by name.
func NewBackend(ctx context.Context, backend string, opts Options) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendREST:
		return NewClient(opts)
	case BackendSDK:
		return NewSDKClient(ctx, opts)
	default:
		return nil, fmt.Errorf("genai: unsupported backend %q", backend)
	}
}

var (
	_ Generator = (*Client)(nil)
	_ Generator = (*SDKClient)(nil)
)
