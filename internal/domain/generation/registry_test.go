package generation

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRegisterRejectsMissingGenerator(t *testing.T) {
	reg := NewRegistry(testLogger())

	desc := testDescriptor("design-claimer", func(d *Descriptor) {
		d.Capabilities.DesignGeneration = true
	})
	err := reg.Register(&contentOnlyModel{desc: desc})
	if err == nil {
		t.Fatal("expected registration to fail for a descriptor claiming design generation without a design generator")
	}
	if reg.Get("design-claimer") != nil {
		t.Fatal("rejected model must not be registered")
	}
}

func TestRegisterRejectsEmptyID(t *testing.T) {
	reg := NewRegistry(testLogger())
	if err := reg.Register(newStubModel(testDescriptor("  ", nil))); err == nil {
		t.Fatal("expected registration to fail for blank id")
	}
}

func TestRegisterOverwriteKeepsOrder(t *testing.T) {
	reg := NewRegistry(testLogger())
	first := newStubModel(testDescriptor("revo-1.0", nil))
	second := newStubModel(testDescriptor("revo-1.5", nil))
	replacement := newStubModel(testDescriptor("revo-1.0", func(d *Descriptor) { d.Name = "replacement" }))

	for _, impl := range []Implementation{first, second, replacement} {
		if err := reg.Register(impl); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	if got := reg.Get("revo-1.0").Descriptor().Name; got != "replacement" {
		t.Fatalf("expected replacement to win, got %q", got)
	}
	all := reg.List()
	if len(all) != 2 {
		t.Fatalf("expected 2 registered models, got %d", len(all))
	}
	if all[0].Descriptor().ID != "revo-1.0" || all[1].Descriptor().ID != "revo-1.5" {
		t.Fatalf("registration order lost: %s, %s", all[0].Descriptor().ID, all[1].Descriptor().ID)
	}
}

func TestListAvailableExcludesFailingProbes(t *testing.T) {
	reg := NewRegistry(testLogger())

	alive := newStubModel(testDescriptor("alive", nil))
	down := newStubModel(testDescriptor("down", nil))
	down.available.Store(false)
	erroring := newStubModel(testDescriptor("erroring", nil))
	erroring.availableErr = errUpstreamDown
	alsoAlive := newStubModel(testDescriptor("also-alive", nil))

	for _, impl := range []Implementation{alive, down, erroring, alsoAlive} {
		if err := reg.Register(impl); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	available := reg.ListAvailable(context.Background())
	if len(available) != 2 {
		t.Fatalf("expected 2 available models, got %d", len(available))
	}
	if available[0].Descriptor().ID != "alive" || available[1].Descriptor().ID != "also-alive" {
		t.Fatalf("registration order lost in availability listing: %s, %s",
			available[0].Descriptor().ID, available[1].Descriptor().ID)
	}
}

func TestSelectBestScoringScenario(t *testing.T) {
	// A is basic with quality 6, B is premium with quality 9, both stable and
	// supporting instagram. With the quality preference B's 18 quality points
	// beat A's 12, so B wins.
	reg := NewRegistry(testLogger())

	a := newStubModel(testDescriptor("model-a", func(d *Descriptor) {
		d.Capabilities.MaxQuality = 6
		d.Pricing.Tier = TierBasic
	}))
	b := newStubModel(testDescriptor("model-b", func(d *Descriptor) {
		d.Capabilities.MaxQuality = 9
		d.Pricing.Tier = TierPremium
		d.Pricing.CreditsPerGeneration = decimal.NewFromInt(5)
	}))
	for _, impl := range []Implementation{a, b} {
		if err := reg.Register(impl); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	criteria := SelectionCriteria{
		Platform:   PlatformInstagram,
		Preference: PreferQuality,
	}

	if scoreA := criteria.Score(a.Descriptor()); scoreA != 72 {
		t.Fatalf("model A score = %v, want 72 (50 base + 12 quality + 10 stable)", scoreA)
	}
	if scoreB := criteria.Score(b.Descriptor()); scoreB != 78 {
		t.Fatalf("model B score = %v, want 78 (50 base + 18 quality + 10 stable)", scoreB)
	}

	best := reg.SelectBest(context.Background(), criteria)
	if best == nil || best.Descriptor().ID != "model-b" {
		t.Fatal("expected model-b to win the quality preference")
	}
}

func TestScoreDisqualifiesOverCreditCeiling(t *testing.T) {
	expensive := testDescriptor("expensive", func(d *Descriptor) {
		d.Capabilities.MaxQuality = 10
		d.Status = StatusEnhanced
		d.Pricing.CreditsPerGeneration = decimal.NewFromInt(12)
	})
	max := decimal.NewFromInt(10)
	criteria := SelectionCriteria{Preference: PreferQuality, MaxCredits: &max}
	if score := criteria.Score(expensive); score != 0 {
		t.Fatalf("model over the credit ceiling must score 0, got %v", score)
	}
}

func TestScoreCreditEfficiencyIsCapped(t *testing.T) {
	cheap := testDescriptor("cheap", func(d *Descriptor) {
		d.Pricing.CreditsPerGeneration = decimal.NewFromInt(1)
	})
	max := decimal.NewFromInt(100)
	criteria := SelectionCriteria{MaxCredits: &max}
	// 50 base + 15 capped efficiency + 10 stable.
	if score := criteria.Score(cheap); score != 75 {
		t.Fatalf("score = %v, want 75", score)
	}
}

func TestSelectBestTieBreakIsRegistrationOrder(t *testing.T) {
	reg := NewRegistry(testLogger())
	first := newStubModel(testDescriptor("first", nil))
	second := newStubModel(testDescriptor("second", nil))
	for _, impl := range []Implementation{first, second} {
		if err := reg.Register(impl); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	best := reg.SelectBest(context.Background(), SelectionCriteria{Preference: PreferBalanced})
	if best == nil || best.Descriptor().ID != "first" {
		t.Fatalf("tie must keep the earliest registration, got %v", best.Descriptor().ID)
	}
}

func TestSelectBestUserPreferenceShortCircuits(t *testing.T) {
	reg := NewRegistry(testLogger())
	strong := newStubModel(testDescriptor("strong", func(d *Descriptor) {
		d.Capabilities.MaxQuality = 10
		d.Status = StatusEnhanced
	}))
	weak := newStubModel(testDescriptor("weak", func(d *Descriptor) {
		d.Capabilities.MaxQuality = 3
		d.Status = StatusBeta
	}))
	for _, impl := range []Implementation{strong, weak} {
		if err := reg.Register(impl); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	best := reg.SelectBest(context.Background(), SelectionCriteria{
		Preference:     PreferQuality,
		UserPreference: "weak",
	})
	if best == nil || best.Descriptor().ID != "weak" {
		t.Fatal("user preference must override scoring when the model qualifies")
	}
}

func TestSelectBestUserPreferenceMustQualify(t *testing.T) {
	reg := NewRegistry(testLogger())
	videoless := newStubModel(testDescriptor("videoless", nil))
	capable := newStubModel(testDescriptor("capable", func(d *Descriptor) {
		d.Capabilities.VideoGeneration = true
	}))
	for _, impl := range []Implementation{videoless, capable} {
		if err := reg.Register(impl); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	best := reg.SelectBest(context.Background(), SelectionCriteria{
		RequiredCapabilities: []CapabilityFlag{CapabilityVideoGeneration},
		UserPreference:       "videoless",
	})
	if best == nil || best.Descriptor().ID != "capable" {
		t.Fatal("a preferred model failing hard constraints must fall back to scoring")
	}
}

func TestSelectBestNoCandidates(t *testing.T) {
	reg := NewRegistry(testLogger())
	if best := reg.SelectBest(context.Background(), SelectionCriteria{}); best != nil {
		t.Fatal("empty registry must select nil")
	}

	down := newStubModel(testDescriptor("down", nil))
	down.available.Store(false)
	if err := reg.Register(down); err != nil {
		t.Fatalf("register: %v", err)
	}
	if best := reg.SelectBest(context.Background(), SelectionCriteria{}); best != nil {
		t.Fatal("registry with only unavailable models must select nil")
	}
}

func TestByCapabilityAndStatus(t *testing.T) {
	reg := NewRegistry(testLogger())
	stable := newStubModel(testDescriptor("stable-model", nil))
	beta := newStubModel(testDescriptor("beta-model", func(d *Descriptor) {
		d.Status = StatusBeta
		d.Capabilities.VideoGeneration = true
	}))
	for _, impl := range []Implementation{stable, beta} {
		if err := reg.Register(impl); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	video := reg.ByCapability(CapabilityVideoGeneration)
	if len(video) != 1 || video[0].Descriptor().ID != "beta-model" {
		t.Fatalf("ByCapability(video) = %d models", len(video))
	}
	stables := reg.ByStatus(StatusStable)
	if len(stables) != 1 || stables[0].Descriptor().ID != "stable-model" {
		t.Fatalf("ByStatus(stable) = %d models", len(stables))
	}
}
