package brandresolver

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"nevis-server/internal/config"
	"nevis-server/internal/domain/generation"
	"nevis-server/internal/utils/httpclients"
)

// Resolver turns a brand profile reference into the structured business
// context generations run against.
type Resolver interface {
	Resolve(ctx context.Context, profileID string) (*generation.BusinessProfile, error)
}

type httpResolver struct {
	client *resty.Client
	log    zerolog.Logger
}

// NewResolver constructs an HTTP-backed resolver. Returns nil when
// BRAND_RESOLVE_URL is empty; handlers then require inline profiles.
func NewResolver(cfg *config.Config, log zerolog.Logger) Resolver {
	if cfg == nil {
		return nil
	}
	endpoint := strings.TrimSpace(cfg.BrandResolveURL)
	if endpoint == "" {
		return nil
	}

	timeout := cfg.BrandResolveTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := httpclients.NewClient("BrandResolverClient")
	client.SetBaseURL(endpoint)
	client.SetTimeout(timeout)

	return &httpResolver{
		client: client,
		log:    log.With().Str("component", "brand_resolver").Logger(),
	}
}

type resolveResponse struct {
	Profile *generation.BusinessProfile `json:"profile"`
}

func (r *httpResolver) Resolve(ctx context.Context, profileID string) (*generation.BusinessProfile, error) {
	var result resolveResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetPathParam("id", profileID).
		SetResult(&result).
		Get("/profiles/{id}")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, errors.New("brand resolver returned " + resp.Status())
	}
	if result.Profile == nil || strings.TrimSpace(result.Profile.Name) == "" {
		return nil, errors.New("brand resolver returned an incomplete profile")
	}
	return result.Profile, nil
}
