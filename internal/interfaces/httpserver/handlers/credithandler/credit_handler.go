package credithandler

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"nevis-server/internal/domain/credit"
)

// CreditHandler exposes read-only credit state: balance, affordability
// previews and monthly quota.
type CreditHandler struct {
	credits *credit.Service
	ledger  credit.Ledger
	log     zerolog.Logger
}

func NewCreditHandler(credits *credit.Service, ledger credit.Ledger, log zerolog.Logger) *CreditHandler {
	return &CreditHandler{
		credits: credits,
		ledger:  ledger,
		log:     log.With().Str("handler", "credit").Logger(),
	}
}

func (h *CreditHandler) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	return h.ledger.GetBalance(ctx, userID)
}

func (h *CreditHandler) CanAfford(ctx context.Context, userID, modelID string, kind credit.GenerationKind) (*credit.Affordability, error) {
	return h.credits.CanAfford(ctx, userID, modelID, kind)
}

func (h *CreditHandler) CheckQuota(ctx context.Context, userID string) (*credit.QuotaStatus, error) {
	return h.credits.CheckQuota(ctx, userID)
}
