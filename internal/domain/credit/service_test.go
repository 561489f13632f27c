package credit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"nevis-server/internal/domain/generation"
)

// spyLedger is an in-memory ledger that counts calls for never-invoked
// assertions.
type spyLedger struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
	events   []UsageEvent

	deductErr    error
	deductCalls  atomic.Int64
	balanceCalls atomic.Int64
}

func newSpyLedger() *spyLedger {
	return &spyLedger{balances: make(map[string]decimal.Decimal)}
}

func (l *spyLedger) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	l.balanceCalls.Add(1)
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID], nil
}

func (l *spyLedger) Deduct(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	l.deductCalls.Add(1)
	if l.deductErr != nil {
		return decimal.Zero, l.deductErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	balance := l.balances[userID]
	if balance.LessThan(amount) {
		return decimal.Zero, errors.New("insufficient balance")
	}
	remaining := balance.Sub(amount)
	l.balances[userID] = remaining
	return remaining, nil
}

func (l *spyLedger) RecordUsage(ctx context.Context, event UsageEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

func (l *spyLedger) CountUsageSince(ctx context.Context, userID string, since time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	count := 0
	for _, e := range l.events {
		if e.UserID == userID && !e.Timestamp.Before(since) {
			count++
		}
	}
	return count, nil
}

// billedModel counts provider invocations so tests can assert the provider
// was never reached.
type billedModel struct {
	desc  *generation.Descriptor
	calls atomic.Int64
	fail  atomic.Bool
}

func newBilledModel(id string, creditsPerGen int64) *billedModel {
	return &billedModel{desc: &generation.Descriptor{
		ID:      id,
		Name:    id,
		Version: "1.5",
		Status:  generation.StatusStable,
		Capabilities: generation.Capabilities{
			ContentGeneration:  true,
			DesignGeneration:   true,
			MaxQuality:         7,
			SupportedPlatforms: []generation.Platform{generation.PlatformInstagram},
		},
		Pricing: generation.Pricing{
			CreditsPerGeneration: decimal.NewFromInt(creditsPerGen),
			CreditsPerDesign:     decimal.NewFromInt(creditsPerGen + 1),
			Tier:                 generation.TierBasic,
		},
		Config: generation.ModelConfig{
			Provider:      generation.ProviderGemini,
			UpstreamModel: "gemini-2.5-flash",
			Timeout:       30 * time.Second,
			Temperature:   0.7,
			MaxTokens:     1024,
		},
	}}
}

func (m *billedModel) Descriptor() *generation.Descriptor                   { return m.desc }
func (m *billedModel) IsAvailable(ctx context.Context) (bool, error)        { return true, nil }
func (m *billedModel) ValidateContent(req *generation.ContentRequest) error { return nil }
func (m *billedModel) ValidateDesign(req *generation.DesignRequest) error   { return nil }

func (m *billedModel) WithConfig(cfg generation.ModelConfig) generation.Implementation {
	clone := *m
	clone.desc = m.desc.WithConfig(cfg)
	return &clone
}

func (m *billedModel) GenerateContent(ctx context.Context, req *generation.ContentRequest) (*generation.Response[*generation.Post], error) {
	m.calls.Add(1)
	if m.fail.Load() {
		return nil, errors.New("provider exploded")
	}
	return generation.Succeed(m.desc.ID, &generation.Post{Caption: "billed caption"}, time.Millisecond, 7.0, nil), nil
}

func (m *billedModel) GenerateDesign(ctx context.Context, req *generation.DesignRequest) (*generation.Response[*generation.DesignVariant], error) {
	m.calls.Add(1)
	if m.fail.Load() {
		return nil, errors.New("provider exploded")
	}
	return generation.Succeed(m.desc.ID, &generation.DesignVariant{ImageRef: "ref"}, time.Millisecond, 7.0, nil), nil
}

func newTestCreditService(t *testing.T, cfg Config, ledger Ledger, models ...*billedModel) *Service {
	t.Helper()
	log := zerolog.Nop()
	reg := generation.NewRegistry(log)
	for _, m := range models {
		if err := reg.Register(m); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	factory := generation.NewFactory(reg, log)
	gen := generation.NewService(reg, factory, log)
	return NewService(gen, reg, ledger, cfg, log)
}

func creditRequest(modelID string) *generation.ContentRequest {
	return &generation.ContentRequest{
		ModelID:  modelID,
		UserID:   "user-1",
		Profile:  &generation.BusinessProfile{Name: "Samaki Cookies"},
		Platform: generation.PlatformInstagram,
	}
}

func designCreditRequest(modelID string) *generation.DesignRequest {
	return &generation.DesignRequest{
		ModelID:  modelID,
		UserID:   "user-1",
		Profile:  &generation.BusinessProfile{Name: "Samaki Cookies"},
		Platform: generation.PlatformInstagram,
	}
}

func TestInsufficientCreditsNeverInvokesProvider(t *testing.T) {
	// Balance 3, model costs 4.
	ledger := newSpyLedger()
	ledger.balances["user-1"] = decimal.NewFromInt(3)
	model := newBilledModel("revo-1.5", 4)
	svc := newTestCreditService(t, Config{}, ledger, model)

	resp := svc.GenerateContent(context.Background(), creditRequest("revo-1.5"))
	if resp.Success || resp.Code != generation.CodeInsufficientCredits {
		t.Fatalf("expected insufficient-credits, got %s", resp.Code)
	}
	if resp.CreditInfo == nil || !resp.CreditInfo.CreditsDeducted.IsZero() {
		t.Fatalf("credit info = %+v, want zero deduction", resp.CreditInfo)
	}
	if !resp.CreditInfo.RemainingCredits.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("remaining = %s, want 3", resp.CreditInfo.RemainingCredits)
	}
	if model.calls.Load() != 0 {
		t.Fatal("provider must never be invoked for an unaffordable request")
	}
	if ledger.deductCalls.Load() != 0 {
		t.Fatal("no deduction may be attempted for an unaffordable request")
	}
}

func TestExactBalanceDrainsToZero(t *testing.T) {
	ledger := newSpyLedger()
	ledger.balances["user-1"] = decimal.NewFromInt(4)
	model := newBilledModel("revo-1.5", 4)
	svc := newTestCreditService(t, Config{}, ledger, model)

	resp := svc.GenerateContent(context.Background(), creditRequest("revo-1.5"))
	if !resp.Success {
		t.Fatalf("expected success: %s", resp.Error)
	}
	if !resp.CreditInfo.CreditsDeducted.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("deducted = %s, want 4", resp.CreditInfo.CreditsDeducted)
	}
	if !resp.CreditInfo.RemainingCredits.IsZero() {
		t.Fatalf("remaining = %s, want 0", resp.CreditInfo.RemainingCredits)
	}
	if !resp.Metadata.CreditsUsed.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("metadata credits used = %s, want 4", resp.Metadata.CreditsUsed)
	}
	if resp.CreditInfo.ModelVersion != "1.5" {
		t.Fatalf("model version = %q", resp.CreditInfo.ModelVersion)
	}
	if len(ledger.events) != 1 {
		t.Fatalf("expected exactly one usage event, got %d", len(ledger.events))
	}
}

func TestProviderFailureDeductsNothing(t *testing.T) {
	ledger := newSpyLedger()
	ledger.balances["user-1"] = decimal.NewFromInt(10)
	model := newBilledModel("revo-1.5", 4)
	model.fail.Store(true)
	svc := newTestCreditService(t, Config{}, ledger, model)

	resp := svc.GenerateContent(context.Background(), creditRequest("revo-1.5"))
	if resp.Success {
		t.Fatal("expected failure")
	}
	if ledger.deductCalls.Load() != 0 {
		t.Fatal("a failed generation must not deduct credits")
	}
	if !resp.Metadata.CreditsUsed.IsZero() {
		t.Fatal("failed response must report zero credits used")
	}
	balance, _ := ledger.GetBalance(context.Background(), "user-1")
	if !balance.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("balance = %s, want unchanged 10", balance)
	}
	if len(ledger.events) != 0 {
		t.Fatal("no usage event may be recorded for a failed generation")
	}
}

func TestUnmappedModelIsValidationFailure(t *testing.T) {
	ledger := newSpyLedger()
	ledger.balances["user-1"] = decimal.NewFromInt(10)
	svc := newTestCreditService(t, Config{}, ledger)

	resp := svc.GenerateContent(context.Background(), creditRequest("ghost"))
	if resp.Success || resp.Code != generation.CodeInvalidRequest {
		t.Fatalf("expected invalid-request, got %s", resp.Code)
	}
	if ledger.balanceCalls.Load() != 0 {
		t.Fatal("tariff lookup must fail before any ledger access")
	}
}

func TestDeductLostToConcurrentDrain(t *testing.T) {
	ledger := newSpyLedger()
	ledger.balances["user-1"] = decimal.NewFromInt(10)
	ledger.deductErr = errors.New("balance changed concurrently")
	model := newBilledModel("revo-1.5", 4)
	svc := newTestCreditService(t, Config{}, ledger, model)

	resp := svc.GenerateContent(context.Background(), creditRequest("revo-1.5"))
	if resp.Success || resp.Code != generation.CodeInsufficientCredits {
		t.Fatalf("expected insufficient-credits after lost deduction, got %s", resp.Code)
	}
	if len(ledger.events) != 0 {
		t.Fatal("no usage event may be recorded when the deduction was lost")
	}
}

func TestBatchHaltsOnInsufficientCredits(t *testing.T) {
	// Balance 9 covers two 4-credit generations but not three.
	ledger := newSpyLedger()
	ledger.balances["user-1"] = decimal.NewFromInt(9)
	model := newBilledModel("revo-1.5", 4)
	svc := newTestCreditService(t, Config{}, ledger, model)

	reqs := []*generation.ContentRequest{
		creditRequest("revo-1.5"),
		creditRequest("revo-1.5"),
		creditRequest("revo-1.5"),
		creditRequest("revo-1.5"),
	}
	results := svc.BatchGenerateContent(context.Background(), reqs)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if !results[0].Success || !results[1].Success {
		t.Fatal("first two requests must succeed")
	}
	if results[2].Code != generation.CodeInsufficientCredits {
		t.Fatalf("slot 2 = %s, want insufficient-credits", results[2].Code)
	}
	if results[3].Code != generation.CodeBatchHalted {
		t.Fatalf("slot 3 = %s, want batch-halted", results[3].Code)
	}
	if model.calls.Load() != 2 {
		t.Fatalf("provider invoked %d times, want 2", model.calls.Load())
	}
	balance, _ := ledger.GetBalance(context.Background(), "user-1")
	if !balance.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("final balance = %s, want 1", balance)
	}
}

func TestDesignBatchHaltsOnInsufficientCredits(t *testing.T) {
	// Designs cost 5; balance 11 covers two designs but not three.
	ledger := newSpyLedger()
	ledger.balances["user-1"] = decimal.NewFromInt(11)
	model := newBilledModel("revo-2.0", 4)
	svc := newTestCreditService(t, Config{}, ledger, model)

	reqs := []*generation.DesignRequest{
		designCreditRequest("revo-2.0"),
		designCreditRequest("revo-2.0"),
		designCreditRequest("revo-2.0"),
		designCreditRequest("revo-2.0"),
	}
	results := svc.BatchGenerateDesign(context.Background(), reqs)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if !results[0].Success || !results[1].Success {
		t.Fatal("first two designs must succeed")
	}
	if results[2].Code != generation.CodeInsufficientCredits {
		t.Fatalf("slot 2 = %s, want insufficient-credits", results[2].Code)
	}
	if results[3].Code != generation.CodeBatchHalted {
		t.Fatalf("slot 3 = %s, want batch-halted", results[3].Code)
	}
	if model.calls.Load() != 2 {
		t.Fatalf("provider invoked %d times, want 2", model.calls.Load())
	}
	balance, _ := ledger.GetBalance(context.Background(), "user-1")
	if !balance.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("final balance = %s, want 1", balance)
	}
}

func TestCanAfford(t *testing.T) {
	ledger := newSpyLedger()
	ledger.balances["user-1"] = decimal.NewFromInt(5)
	model := newBilledModel("revo-1.5", 4)
	svc := newTestCreditService(t, Config{}, ledger, model)
	ctx := context.Background()

	aff, err := svc.CanAfford(ctx, "user-1", "revo-1.5", KindContent)
	if err != nil {
		t.Fatalf("can afford: %v", err)
	}
	if !aff.CanAfford || !aff.RequiredCredits.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("affordability = %+v", aff)
	}

	if _, err := svc.CanAfford(ctx, "user-1", "ghost", KindContent); err == nil {
		t.Fatal("expected error for unknown model")
	}
}

func TestCanAffordQuotesTheDesignTariff(t *testing.T) {
	// Content costs 4, designs cost 5, balance covers content only.
	ledger := newSpyLedger()
	ledger.balances["user-1"] = decimal.NewFromInt(4)
	model := newBilledModel("revo-2.0", 4)
	svc := newTestCreditService(t, Config{}, ledger, model)
	ctx := context.Background()

	aff, err := svc.CanAfford(ctx, "user-1", "revo-2.0", KindDesign)
	if err != nil {
		t.Fatalf("can afford: %v", err)
	}
	if aff.CanAfford || !aff.RequiredCredits.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("design affordability = %+v, want required 5 and unaffordable", aff)
	}
}

func TestCanAffordDerivesKindForDesignOnlyModels(t *testing.T) {
	ledger := newSpyLedger()
	ledger.balances["user-1"] = decimal.NewFromInt(10)
	model := newBilledModel("revo-design", 4)
	model.desc.Capabilities.ContentGeneration = false
	svc := newTestCreditService(t, Config{}, ledger, model)

	aff, err := svc.CanAfford(context.Background(), "user-1", "revo-design", "")
	if err != nil {
		t.Fatalf("can afford: %v", err)
	}
	if !aff.RequiredCredits.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("required = %s, want the design tariff 5", aff.RequiredCredits)
	}
}

func TestMonthlyQuotaBlocksGeneration(t *testing.T) {
	ledger := newSpyLedger()
	ledger.balances["user-1"] = decimal.NewFromInt(1000)
	model := newBilledModel("revo-1.5", 4)
	svc := newTestCreditService(t, Config{MonthlyQuota: 2}, ledger, model)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if resp := svc.GenerateContent(ctx, creditRequest("revo-1.5")); !resp.Success {
			t.Fatalf("generation %d failed: %s", i, resp.Error)
		}
	}

	resp := svc.GenerateContent(ctx, creditRequest("revo-1.5"))
	if resp.Success || resp.Code != generation.CodeQuotaExceeded {
		t.Fatalf("expected quota-exceeded, got %s", resp.Code)
	}
	if model.calls.Load() != 2 {
		t.Fatal("provider must not run once the quota is exhausted")
	}

	status, err := svc.CheckQuota(ctx, "user-1")
	if err != nil {
		t.Fatalf("check quota: %v", err)
	}
	if !status.Exceeded || status.Used != 2 || status.Remaining != 0 {
		t.Fatalf("quota status = %+v", status)
	}
}
