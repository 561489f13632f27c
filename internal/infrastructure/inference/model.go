package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"nevis-server/internal/domain/generation"
	"nevis-server/internal/infrastructure/metrics"
	"nevis-server/internal/utils/platformerrors"
)

// Model binds one descriptor to the provider clients it can run on. The
// provider chain (primary plus fallbacks) with per-call retries lives here;
// layers above see only success or a single error.
type Model struct {
	desc    *generation.Descriptor
	clients ClientSet
	log     zerolog.Logger
}

func NewModel(desc *generation.Descriptor, clients ClientSet, log zerolog.Logger) *Model {
	return &Model{
		desc:    desc,
		clients: clients,
		log:     log.With().Str("component", "inference_model").Str("model_id", desc.ID).Logger(),
	}
}

func (m *Model) Descriptor() *generation.Descriptor { return m.desc }

// IsAvailable reports whether any provider in the chain answers a ping.
func (m *Model) IsAvailable(ctx context.Context) (bool, error) {
	var lastErr error
	for _, kind := range m.desc.Config.ProviderChain() {
		client := m.clients.Get(kind)
		if client == nil {
			continue
		}
		if err := client.Ping(ctx); err != nil {
			lastErr = err
			continue
		}
		return true, nil
	}
	if lastErr != nil {
		return false, lastErr
	}
	return false, fmt.Errorf("no provider client configured for model %s", m.desc.ID)
}

func (m *Model) WithConfig(cfg generation.ModelConfig) generation.Implementation {
	return NewModel(m.desc.WithConfig(cfg), m.clients, m.log)
}

// ValidateContent rejects requests the descriptor cannot honor before any
// provider call is made.
func (m *Model) ValidateContent(req *generation.ContentRequest) error {
	if len(req.ArtifactIDs) > 0 && !m.desc.Capabilities.ArtifactSupport {
		return platformerrors.NewError(nil, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("model %s does not support reference artifacts", m.desc.ID), nil,
			"a2c7e4f1-9d38-4b60-8e5a-3f1d6c0b9e40")
	}
	if !m.desc.Capabilities.SupportsPlatform(req.Platform) {
		return platformerrors.NewError(nil, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("model %s does not target platform %s", m.desc.ID, req.Platform), nil,
			"5e8b1d37-2f9a-4c04-b7e2-8a0c4f6d1e41")
	}
	return nil
}

func (m *Model) ValidateDesign(req *generation.DesignRequest) error {
	if len(req.ArtifactIDs) > 0 && !m.desc.Capabilities.ArtifactSupport {
		return platformerrors.NewError(nil, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("model %s does not support reference artifacts", m.desc.ID), nil,
			"c9f2a6e8-1b4d-4730-9a5c-6e3f8d0b2a42")
	}
	if !m.desc.Capabilities.SupportsPlatform(req.Platform) {
		return platformerrors.NewError(nil, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("model %s does not target platform %s", m.desc.ID, req.Platform), nil,
			"0d5c8a14-7e2b-4f96-b3d8-1a6e9c4f5b43")
	}
	if req.AspectRatio != "" && !m.desc.Capabilities.SupportsAspectRatio(req.AspectRatio) {
		return platformerrors.NewError(nil, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("model %s does not render aspect ratio %s", m.desc.ID, req.AspectRatio), nil,
			"6a1f4d92-3c8e-4b57-a0d6-9e2b7f5c8a44")
	}
	return nil
}

func (m *Model) GenerateContent(ctx context.Context, req *generation.ContentRequest) (*generation.Response[*generation.Post], error) {
	start := time.Now()
	prompt := m.buildContentPrompt(req)

	raw, err := m.callText(ctx, prompt)
	if err != nil {
		return nil, err
	}

	post, parsed := parsePost(raw)
	quality := m.qualityScore(parsed)
	return generation.Succeed(m.desc.ID, post, time.Since(start), quality, m.enhancements()), nil
}

func (m *Model) GenerateDesign(ctx context.Context, req *generation.DesignRequest) (*generation.Response[*generation.DesignVariant], error) {
	start := time.Now()
	prompt := m.buildDesignPrompt(req)

	aspectRatio := req.AspectRatio
	if aspectRatio == "" && len(m.desc.Capabilities.SupportedAspectRatios) > 0 {
		aspectRatio = m.desc.Capabilities.SupportedAspectRatios[0]
	}

	imageRef, err := m.callImage(ctx, prompt, aspectRatio)
	if err != nil {
		return nil, err
	}

	variant := &generation.DesignVariant{
		ImageRef:    imageRef,
		AspectRatio: aspectRatio,
		Style:       req.Style,
		AltText:     altText(req),
	}
	return generation.Succeed(m.desc.ID, variant, time.Since(start), m.qualityScore(true), m.enhancements()), nil
}

// callText walks the provider chain, retrying each provider up to MaxRetries
// before moving to the next. The descriptor timeout bounds every attempt.
func (m *Model) callText(ctx context.Context, prompt string) (string, error) {
	params := TextParams{
		Model:       m.desc.Config.UpstreamModel,
		Temperature: m.desc.Config.Temperature,
		MaxTokens:   m.desc.Config.MaxTokens,
	}
	var lastErr error
	for _, kind := range m.desc.Config.ProviderChain() {
		client := m.clients.Get(kind)
		if client == nil {
			continue
		}
		for attempt := 0; attempt <= m.desc.Config.MaxRetries; attempt++ {
			attemptCtx, cancel := context.WithTimeout(ctx, m.desc.Config.Timeout)
			raw, err := client.GenerateText(attemptCtx, prompt, params)
			cancel()
			if err == nil {
				return raw, nil
			}
			lastErr = err
			metrics.ProviderErrorsTotal.WithLabelValues(string(kind)).Inc()
			m.log.Warn().
				Str("provider", string(kind)).
				Int("attempt", attempt+1).
				Err(err).
				Msg("text generation attempt failed")
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no provider client configured for model %s", m.desc.ID)
	}
	return "", lastErr
}

func (m *Model) callImage(ctx context.Context, prompt, aspectRatio string) (string, error) {
	params := ImageParams{
		Model:       m.desc.Config.UpstreamModel,
		AspectRatio: aspectRatio,
	}
	var lastErr error
	for _, kind := range m.desc.Config.ProviderChain() {
		client := m.clients.Get(kind)
		if client == nil {
			continue
		}
		for attempt := 0; attempt <= m.desc.Config.MaxRetries; attempt++ {
			attemptCtx, cancel := context.WithTimeout(ctx, m.desc.Config.Timeout)
			ref, err := client.GenerateImage(attemptCtx, prompt, params)
			cancel()
			if err == nil {
				return ref, nil
			}
			lastErr = err
			metrics.ProviderErrorsTotal.WithLabelValues(string(kind)).Inc()
			m.log.Warn().
				Str("provider", string(kind)).
				Int("attempt", attempt+1).
				Err(err).
				Msg("image generation attempt failed")
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no provider client configured for model %s", m.desc.ID)
	}
	return "", lastErr
}

func (m *Model) buildContentPrompt(req *generation.ContentRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a social media post for %s targeting %s.\n", req.Profile.Name, req.Platform)
	if req.Profile.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s.\n", req.Profile.Industry)
	}
	if req.Profile.Description != "" {
		fmt.Fprintf(&b, "About the business: %s\n", req.Profile.Description)
	}
	if req.Profile.Tone != "" {
		fmt.Fprintf(&b, "Voice and tone: %s.\n", req.Profile.Tone)
	}
	if req.Profile.Location != "" {
		fmt.Fprintf(&b, "Location: %s.\n", req.Profile.Location)
	}
	if req.BrandConsistency != nil && req.BrandConsistency.StrictTone {
		b.WriteString("Stay strictly within the brand voice; do not improvise slang.\n")
	}
	if req.CustomPrompt != "" {
		fmt.Fprintf(&b, "Additional direction: %s\n", req.CustomPrompt)
	}
	b.WriteString("\nRespond with a single JSON object with keys " +
		`"headline", "caption", "hashtags" (array of strings) and "call_to_action". ` +
		"No markdown, no commentary.")
	return b.String()
}

func (m *Model) buildDesignPrompt(req *generation.DesignRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Design a marketing visual for %s, for %s.\n", req.Profile.Name, req.Platform)
	if req.Profile.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s.\n", req.Profile.Industry)
	}
	if req.Style != "" {
		fmt.Fprintf(&b, "Visual style: %s.\n", req.Style)
	}
	if req.BrandConsistency != nil && req.BrandConsistency.StrictColors && len(req.Profile.ColorPalette) > 0 {
		fmt.Fprintf(&b, "Use only these brand colors: %s.\n", strings.Join(req.Profile.ColorPalette, ", "))
	}
	if req.CustomPrompt != "" {
		fmt.Fprintf(&b, "Additional direction: %s\n", req.CustomPrompt)
	}
	return b.String()
}

// parsePost extracts a structured post from the raw completion. A completion
// that is not valid JSON degrades to a caption-only post rather than failing
// the call.
func parsePost(raw string) (*generation.Post, bool) {
	cleaned := stripFences(raw)
	var post generation.Post
	if err := json.Unmarshal([]byte(cleaned), &post); err == nil && post.Caption != "" {
		return &post, true
	}
	return &generation.Post{Caption: strings.TrimSpace(raw)}, false
}

// stripFences removes a surrounding markdown code fence, which some upstream
// models add despite instructions.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// qualityScore rates the output on the 1..10 scale capped by the model's
// ceiling. Structured output scores the ceiling; a degraded parse loses two
// points.
func (m *Model) qualityScore(structured bool) float64 {
	score := float64(m.desc.Capabilities.MaxQuality)
	if !structured {
		score -= 2
	}
	if score < 1 {
		score = 1
	}
	return score
}

// enhancements lists the post-processing passes this configuration applies,
// in application order.
func (m *Model) enhancements() []string {
	var out []string
	if m.desc.Capabilities.AdvancedPrompting {
		out = append(out, "advanced_prompting")
	}
	if m.desc.Capabilities.BrandConsistency {
		out = append(out, "brand_alignment")
	}
	if m.desc.Config.EnhancementLevel > 0 {
		out = append(out, fmt.Sprintf("enhancement_level_%d", m.desc.Config.EnhancementLevel))
	}
	if m.desc.Config.CompressionLevel > 0 {
		out = append(out, "output_compression")
	}
	return out
}

func altText(req *generation.DesignRequest) string {
	if req.Profile == nil {
		return ""
	}
	return fmt.Sprintf("Marketing visual for %s on %s", req.Profile.Name, req.Platform)
}
