package credit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"nevis-server/internal/domain/generation"
)

// Config tunes the credit layer.
type Config struct {
	// MonthlyQuota caps billed generations per user per calendar month.
	// Zero disables the quota.
	MonthlyQuota int
}

// Service wraps the generation service with the credit policy: a user must be
// able to afford a generation before it runs, usage is recorded exactly once,
// and a failed generation never costs anything.
type Service struct {
	generator *generation.Service
	registry  *generation.Registry
	ledger    Ledger
	cfg       Config
	log       zerolog.Logger

	now func() time.Time
}

func NewService(generator *generation.Service, registry *generation.Registry, ledger Ledger, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		generator: generator,
		registry:  registry,
		ledger:    ledger,
		cfg:       cfg,
		log:       log.With().Str("component", "credit_service").Logger(),
		now:       time.Now,
	}
}

// Affordability is the read-only answer for UI previews.
type Affordability struct {
	CanAfford        bool            `json:"can_afford"`
	RequiredCredits  decimal.Decimal `json:"required_credits"`
	AvailableCredits decimal.Decimal `json:"available_credits"`
}

// QuotaStatus reports monthly quota consumption.
type QuotaStatus struct {
	Used      int  `json:"used"`
	Limit     int  `json:"limit"`
	Remaining int  `json:"remaining"`
	Exceeded  bool `json:"exceeded"`
}

// tariff maps a model id to its billed credit amount for the operation kind.
// An unregistered id has no tariff.
func (s *Service) tariff(modelID string, kind GenerationKind) (decimal.Decimal, *generation.Descriptor, bool) {
	impl := s.registry.Get(modelID)
	if impl == nil {
		return decimal.Zero, nil, false
	}
	desc := impl.Descriptor()
	if kind == KindDesign {
		return desc.Pricing.CreditsPerDesign, desc, true
	}
	return desc.Pricing.CreditsPerGeneration, desc, true
}

// GenerateContent runs one billed content generation.
func (s *Service) GenerateContent(ctx context.Context, req *generation.ContentRequest) *generation.Response[*generation.Post] {
	start := time.Now()
	if req == nil || req.UserID == "" {
		return generation.Fail[*generation.Post]("", generation.CodeInvalidRequest, "user id is required", time.Since(start))
	}

	required, desc, gate := admit[*generation.Post](s, ctx, req.UserID, req.ModelID, KindContent, start)
	if gate != nil {
		return gate
	}

	resp := s.generator.GenerateContent(ctx, req)
	return settle(s, ctx, req.UserID, desc, KindContent, required, resp, start)
}

// GenerateDesign runs one billed design generation.
func (s *Service) GenerateDesign(ctx context.Context, req *generation.DesignRequest) *generation.Response[*generation.DesignVariant] {
	start := time.Now()
	if req == nil || req.UserID == "" {
		return generation.Fail[*generation.DesignVariant]("", generation.CodeInvalidRequest, "user id is required", time.Since(start))
	}

	required, desc, gate := admit[*generation.DesignVariant](s, ctx, req.UserID, req.ModelID, KindDesign, start)
	if gate != nil {
		return gate
	}

	resp := s.generator.GenerateDesign(ctx, req)
	return settle(s, ctx, req.UserID, desc, KindDesign, required, resp, start)
}

// BatchGenerateContent processes requests strictly in order, one credit
// transaction at a time. The first insufficient-credits failure halts the
// rest of the batch; halted slots are reported, not attempted.
func (s *Service) BatchGenerateContent(ctx context.Context, reqs []*generation.ContentRequest) []*generation.Response[*generation.Post] {
	results := make([]*generation.Response[*generation.Post], len(reqs))
	halted := false
	for i, req := range reqs {
		if halted {
			results[i] = generation.Fail[*generation.Post]("", generation.CodeBatchHalted,
				"batch stopped: insufficient credits on an earlier request", 0)
			continue
		}
		results[i] = s.GenerateContent(ctx, req)
		if !results[i].Success && results[i].Code == generation.CodeInsufficientCredits {
			halted = true
		}
	}
	return results
}

// BatchGenerateDesign applies the content batch policy to design requests:
// strictly in order, one credit transaction at a time, halting on the first
// insufficient-credits failure.
func (s *Service) BatchGenerateDesign(ctx context.Context, reqs []*generation.DesignRequest) []*generation.Response[*generation.DesignVariant] {
	results := make([]*generation.Response[*generation.DesignVariant], len(reqs))
	halted := false
	for i, req := range reqs {
		if halted {
			results[i] = generation.Fail[*generation.DesignVariant]("", generation.CodeBatchHalted,
				"batch stopped: insufficient credits on an earlier request", 0)
			continue
		}
		results[i] = s.GenerateDesign(ctx, req)
		if !results[i].Success && results[i].Code == generation.CodeInsufficientCredits {
			halted = true
		}
	}
	return results
}

// CanAfford is a pure read with no side effects. An empty kind is derived
// from the model's capabilities; a model that generates both content and
// designs defaults to the content tariff.
func (s *Service) CanAfford(ctx context.Context, userID, modelID string, kind GenerationKind) (*Affordability, error) {
	impl := s.registry.Get(modelID)
	if impl == nil {
		return nil, errUnknownModel(modelID)
	}
	if kind == "" {
		kind = KindContent
		caps := impl.Descriptor().Capabilities
		if !caps.ContentGeneration && caps.DesignGeneration {
			kind = KindDesign
		}
	}
	required, _, ok := s.tariff(modelID, kind)
	if !ok {
		return nil, errUnknownModel(modelID)
	}
	balance, err := s.ledger.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Affordability{
		CanAfford:        balance.GreaterThanOrEqual(required),
		RequiredCredits:  required,
		AvailableCredits: balance,
	}, nil
}

// CheckQuota reports the user's monthly quota consumption. A zero configured
// quota means unlimited.
func (s *Service) CheckQuota(ctx context.Context, userID string) (*QuotaStatus, error) {
	if s.cfg.MonthlyQuota <= 0 {
		return &QuotaStatus{Limit: 0, Remaining: -1}, nil
	}
	used, err := s.ledger.CountUsageSince(ctx, userID, monthStart(s.now()))
	if err != nil {
		return nil, err
	}
	remaining := s.cfg.MonthlyQuota - used
	if remaining < 0 {
		remaining = 0
	}
	return &QuotaStatus{
		Used:      used,
		Limit:     s.cfg.MonthlyQuota,
		Remaining: remaining,
		Exceeded:  used >= s.cfg.MonthlyQuota,
	}, nil
}

// admit runs the pre-generation gates: tariff lookup, monthly quota, balance.
// A non-nil envelope means the request was refused before any provider work.
func admit[T any](s *Service, ctx context.Context, userID, modelID string, kind GenerationKind, start time.Time) (decimal.Decimal, *generation.Descriptor, *generation.Response[T]) {
	required, desc, ok := s.tariff(modelID, kind)
	if !ok {
		resp := generation.Fail[T](modelID, generation.CodeInvalidRequest, "no billing tariff for model: "+modelID, time.Since(start))
		return decimal.Zero, nil, resp
	}

	if s.cfg.MonthlyQuota > 0 {
		used, err := s.ledger.CountUsageSince(ctx, userID, monthStart(s.now()))
		if err != nil {
			s.log.Error().Str("user_id", userID).Err(err).Msg("quota check failed")
			resp := generation.Fail[T](modelID, generation.CodeGenerationError, "quota check failed", time.Since(start))
			return decimal.Zero, nil, resp
		}
		if used >= s.cfg.MonthlyQuota {
			resp := generation.Fail[T](modelID, generation.CodeQuotaExceeded, "monthly generation quota exhausted", time.Since(start))
			return decimal.Zero, nil, resp
		}
	}

	balance, err := s.ledger.GetBalance(ctx, userID)
	if err != nil {
		s.log.Error().Str("user_id", userID).Err(err).Msg("balance read failed")
		resp := generation.Fail[T](modelID, generation.CodeGenerationError, "credit balance unavailable", time.Since(start))
		return decimal.Zero, nil, resp
	}
	if balance.LessThan(required) {
		resp := generation.Fail[T](modelID, generation.CodeInsufficientCredits, "insufficient credits", time.Since(start))
		resp.CreditInfo = &generation.CreditInfo{
			CreditsDeducted:  decimal.Zero,
			RemainingCredits: balance,
		}
		return decimal.Zero, nil, resp
	}
	return required, desc, nil
}

// settle finalizes the credit transaction after the generation ran. Deduction
// happens if and only if the generation succeeded; a deduction lost to a
// concurrent drain converts the success into an insufficient-credits failure.
func settle[T any](s *Service, ctx context.Context, userID string, desc *generation.Descriptor, kind GenerationKind, required decimal.Decimal, resp *generation.Response[T], start time.Time) *generation.Response[T] {
	if !resp.Success {
		balance, err := s.ledger.GetBalance(ctx, userID)
		if err == nil {
			resp.CreditInfo = &generation.CreditInfo{
				CreditsDeducted:  decimal.Zero,
				RemainingCredits: balance,
				ModelVersion:     desc.Version,
			}
		}
		return resp
	}

	remaining, err := s.ledger.Deduct(ctx, userID, required)
	if err != nil {
		s.log.Warn().Str("user_id", userID).Str("model_id", desc.ID).Err(err).
			Msg("deduction failed after successful generation")
		failed := generation.Fail[T](desc.ID, generation.CodeInsufficientCredits,
			"credits exhausted before the generation could be billed", time.Since(start))
		failed.CreditInfo = &generation.CreditInfo{
			CreditsDeducted: decimal.Zero,
			ModelVersion:    desc.Version,
		}
		if balance, berr := s.ledger.GetBalance(ctx, userID); berr == nil {
			failed.CreditInfo.RemainingCredits = balance
		}
		return failed
	}

	event := UsageEvent{
		UserID:    userID,
		ModelID:   desc.ID,
		Kind:      kind,
		Credits:   required,
		Timestamp: s.now().UTC(),
	}
	if err := s.ledger.RecordUsage(ctx, event); err != nil {
		// The user got their artifact and paid for it; a lost usage row is
		// an accounting gap, not a reason to fail the call.
		s.log.Error().Str("user_id", userID).Str("model_id", desc.ID).Err(err).Msg("usage recording failed")
	}

	resp.Metadata.CreditsUsed = required
	resp.CreditInfo = &generation.CreditInfo{
		CreditsDeducted:  required,
		RemainingCredits: remaining,
		ModelVersion:     desc.Version,
	}
	return resp
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func errUnknownModel(modelID string) error {
	return &UnknownModelError{ModelID: modelID}
}

// UnknownModelError reports a billing lookup against an unregistered model.
type UnknownModelError struct {
	ModelID string
}

func (e *UnknownModelError) Error() string {
	return "no billing tariff for model: " + e.ModelID
}
