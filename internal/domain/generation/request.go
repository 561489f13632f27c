package generation

import (
	"strings"

	"nevis-server/internal/utils/platformerrors"
)

// BusinessProfile is the brand context every generation runs against. The
// service only checks that the minimal fields are present; resolving and
// validating full business data is the profile resolver's job.
type BusinessProfile struct {
	Name         string   `json:"name"`
	Industry     string   `json:"industry,omitempty"`
	Description  string   `json:"description,omitempty"`
	Tone         string   `json:"tone,omitempty"`
	Website      string   `json:"website,omitempty"`
	Location     string   `json:"location,omitempty"`
	ColorPalette []string `json:"color_palette,omitempty"`
}

// BrandConsistency carries per-request brand enforcement options.
type BrandConsistency struct {
	StrictColors bool `json:"strict_colors,omitempty"`
	StrictTone   bool `json:"strict_tone,omitempty"`
	UseLogo      bool `json:"use_logo,omitempty"`
}

// ContentRequest asks for a social post (caption, hashtags, call to action).
// ModelID may be empty, in which case the caller must go through auto
// selection; Generate rejects an empty model id.
type ContentRequest struct {
	ModelID          string            `json:"model_id,omitempty"`
	UserID           string            `json:"user_id,omitempty"`
	Profile          *BusinessProfile  `json:"profile"`
	Platform         Platform          `json:"platform"`
	BrandConsistency *BrandConsistency `json:"brand_consistency,omitempty"`
	ArtifactIDs      []string          `json:"artifact_ids,omitempty"`
	CustomPrompt     string            `json:"custom_prompt,omitempty"`
}

// DesignRequest asks for a visual design variant.
type DesignRequest struct {
	ModelID          string            `json:"model_id,omitempty"`
	UserID           string            `json:"user_id,omitempty"`
	Profile          *BusinessProfile  `json:"profile"`
	Platform         Platform          `json:"platform"`
	AspectRatio      string            `json:"aspect_ratio,omitempty"`
	Style            string            `json:"style,omitempty"`
	BrandConsistency *BrandConsistency `json:"brand_consistency,omitempty"`
	ArtifactIDs      []string          `json:"artifact_ids,omitempty"`
	CustomPrompt     string            `json:"custom_prompt,omitempty"`
}

// Validate checks the structural requirements shared by every content request.
func (r *ContentRequest) Validate() error {
	return validateCommon(r.ModelID, r.Profile, r.Platform)
}

// Validate checks the structural requirements shared by every design request.
func (r *DesignRequest) Validate() error {
	return validateCommon(r.ModelID, r.Profile, r.Platform)
}

func validateCommon(modelID string, profile *BusinessProfile, platform Platform) error {
	if strings.TrimSpace(modelID) == "" {
		return platformerrors.NewError(nil, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"model id is required", nil, "0f2c5a1e-9f05-4d7a-8f52-2b1f3f9c6d01")
	}
	if profile == nil || strings.TrimSpace(profile.Name) == "" {
		return platformerrors.NewError(nil, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"business profile with a name is required", nil, "7a8e4d20-31c6-4b46-a8c8-5a0f7d2e9b02")
	}
	if platform == "" {
		return platformerrors.NewError(nil, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"target platform is required", nil, "c4d9b7f1-6e3a-4f88-9d15-8e2a1c5b7d03")
	}
	if !IsKnownPlatform(platform) {
		return platformerrors.NewError(nil, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"unknown platform: "+string(platform), nil, "e1f6a9c3-2d48-4b7a-b6e9-4c8d0a3f5e04")
	}
	return nil
}
