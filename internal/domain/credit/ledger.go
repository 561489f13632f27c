package credit

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// GenerationKind distinguishes billed operation types in usage records.
type GenerationKind string

const (
	KindContent GenerationKind = "content"
	KindDesign  GenerationKind = "design"
)

// UsageEvent is one billed generation, recorded exactly once per success.
type UsageEvent struct {
	UserID    string          `json:"user_id"`
	ModelID   string          `json:"model_id"`
	Kind      GenerationKind  `json:"kind"`
	Credits   decimal.Decimal `json:"credits"`
	Timestamp time.Time       `json:"timestamp"`
}

// Ledger is the external credit accounting store. Deduct must be atomic with
// respect to concurrent deductions for the same user: an implementation may
// not let two in-flight deductions both succeed against a balance that only
// covers one.
type Ledger interface {
	GetBalance(ctx context.Context, userID string) (decimal.Decimal, error)

	// Deduct subtracts amount from the user's balance and returns the new
	// balance. It fails without side effects when the balance is short.
	Deduct(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error)

	RecordUsage(ctx context.Context, event UsageEvent) error

	// CountUsageSince returns the number of usage events for the user at or
	// after the given instant. Used for the monthly generation quota.
	CountUsageSince(ctx context.Context, userID string, since time.Time) (int, error)
}
