package inference

import (
	"context"

	"nevis-server/internal/domain/generation"
)

// TextParams tunes one upstream text generation call.
type TextParams struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// ImageParams tunes one upstream image generation call.
type ImageParams struct {
	Model       string
	AspectRatio string
}

// ProviderClient is the narrow contract one upstream generative provider must
// satisfy. Implementations report failure via error return, never via a
// silently empty result.
type ProviderClient interface {
	Kind() generation.ProviderKind

	// GenerateText returns the raw text completion for the prompt.
	GenerateText(ctx context.Context, prompt string, params TextParams) (string, error)

	// GenerateImage returns a reference to the generated image, typically a
	// data URI or an upstream file handle.
	GenerateImage(ctx context.Context, prompt string, params ImageParams) (string, error)

	// Ping probes upstream liveness without generating anything.
	Ping(ctx context.Context) error
}

// ClientSet holds one client per configured provider kind.
type ClientSet map[generation.ProviderKind]ProviderClient

// Get returns the client for the kind, or nil.
func (s ClientSet) Get(kind generation.ProviderKind) ProviderClient {
	return s[kind]
}
