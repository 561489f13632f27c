package generation

import "github.com/shopspring/decimal"

// QualityPreference biases selection scoring toward quality, speed or a
// balance of the two.
type QualityPreference string

const (
	PreferQuality  QualityPreference = "quality"
	PreferSpeed    QualityPreference = "speed"
	PreferBalanced QualityPreference = "balanced"
)

// SelectionCriteria are the caller-supplied constraints and preferences used
// by auto selection. Required capabilities, MaxCredits and Platform are hard
// constraints; everything else only shifts the score.
type SelectionCriteria struct {
	RequiredCapabilities []CapabilityFlag  `json:"required_capabilities,omitempty"`
	PreferredTier        PricingTier       `json:"preferred_tier,omitempty"`
	MaxCredits           *decimal.Decimal  `json:"max_credits,omitempty"`
	Platform             Platform          `json:"platform,omitempty"`
	Preference           QualityPreference `json:"preference,omitempty"`

	// UserPreference names a model the caller would like; it is honored
	// only when that model is available and passes every hard constraint.
	UserPreference string `json:"user_preference,omitempty"`
}

// MeetsRequirements reports whether the descriptor passes every hard
// constraint: all required capabilities, the credit ceiling and the platform.
func (c SelectionCriteria) MeetsRequirements(d *Descriptor) bool {
	for _, flag := range c.RequiredCapabilities {
		if !d.Capabilities.Has(flag) {
			return false
		}
	}
	if c.MaxCredits != nil && d.Pricing.CreditsPerGeneration.GreaterThan(*c.MaxCredits) {
		return false
	}
	if c.Platform != "" && !d.Capabilities.SupportsPlatform(c.Platform) {
		return false
	}
	return true
}

// Score rates a descriptor against the criteria. Zero means disqualified;
// any qualifying model scores at least the base 50.
//
// The "balanced" branch intentionally stacks a quality bonus on top of a tier
// bonus, which lets a premium mid-quality model outscore the "quality"
// preference in edge cases. The formula is kept as the product behaves in
// production; do not normalize it.
func (c SelectionCriteria) Score(d *Descriptor) float64 {
	if !c.MeetsRequirements(d) {
		return 0
	}

	score := 50.0

	switch c.Preference {
	case PreferQuality:
		score += float64(d.Capabilities.MaxQuality) * 2
	case PreferSpeed:
		switch d.Pricing.Tier {
		case TierBasic:
			score += 20
		case TierPremium:
			score += 10
		case TierEnterprise:
			score += 5
		}
	case PreferBalanced:
		score += float64(d.Capabilities.MaxQuality)
		if d.Pricing.Tier == TierPremium {
			score += 15
		} else {
			score += 10
		}
	}

	if c.PreferredTier != "" && d.Pricing.Tier == c.PreferredTier {
		score += 20
	}

	if c.MaxCredits != nil && d.Pricing.CreditsPerGeneration.IsPositive() {
		efficiency := c.MaxCredits.Div(d.Pricing.CreditsPerGeneration).InexactFloat64() * 5
		if efficiency > 15 {
			efficiency = 15
		}
		score += efficiency
	}

	switch d.Status {
	case StatusStable:
		score += 10
	case StatusEnhanced:
		score += 15
	case StatusDevelopment:
		score += 5
	case StatusBeta:
		score += 3
	}

	return score
}
