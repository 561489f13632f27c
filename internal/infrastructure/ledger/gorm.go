package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nevis-server/internal/domain/credit"
	"nevis-server/internal/infrastructure/database"
	"nevis-server/internal/utils/platformerrors"
)

// CreditAccount is one user's balance row.
type CreditAccount struct {
	ID        string          `gorm:"primaryKey;type:uuid"`
	UserID    string          `gorm:"uniqueIndex;not null"`
	Balance   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UsageRecord is one billed generation.
type UsageRecord struct {
	ID        string          `gorm:"primaryKey;type:uuid"`
	UserID    string          `gorm:"index:idx_usage_user_time;not null"`
	ModelID   string          `gorm:"not null"`
	Kind      string          `gorm:"not null"`
	Credits   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Metadata  datatypes.JSON
	CreatedAt time.Time `gorm:"index:idx_usage_user_time"`
}

func init() {
	database.RegisterSchemaForAutoMigrate(&CreditAccount{}, &UsageRecord{})
}

// ErrInsufficientBalance is returned by Deduct when the guarded update did
// not apply.
var ErrInsufficientBalance = errors.New("insufficient balance")

// GormLedger is the postgres-backed credit ledger. Deduct uses a guarded
// UPDATE so two in-flight deductions can never both succeed against a balance
// that only covers one.
type GormLedger struct {
	db              *gorm.DB
	startingCredits decimal.Decimal
	log             zerolog.Logger
}

func NewGormLedger(db *gorm.DB, startingCredits decimal.Decimal, log zerolog.Logger) *GormLedger {
	return &GormLedger{
		db:              db,
		startingCredits: startingCredits,
		log:             log.With().Str("component", "gorm_ledger").Logger(),
	}
}

// ensureAccount creates the user's account with the starting balance on
// first touch. Concurrent first touches collapse onto one row.
func (l *GormLedger) ensureAccount(ctx context.Context, userID string) error {
	account := CreditAccount{
		ID:      uuid.NewString(),
		UserID:  userID,
		Balance: l.startingCredits,
	}
	return l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&account).Error
}

func (l *GormLedger) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	if err := l.ensureAccount(ctx, userID); err != nil {
		return decimal.Zero, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to ensure credit account", err, "e7a3c1f8-6d20-4b95-8a4e-3c9f0d5b7e60")
	}
	var account CreditAccount
	err := l.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		return decimal.Zero, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to read credit balance", err, "4c8f2a61-9e5d-4073-b1c8-6a2e7f9d0b61")
	}
	return account.Balance, nil
}

func (l *GormLedger) Deduct(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := l.ensureAccount(ctx, userID); err != nil {
		return decimal.Zero, err
	}

	res := l.db.WithContext(ctx).
		Model(&CreditAccount{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		UpdateColumn("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return decimal.Zero, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to deduct credits", res.Error, "b5d9e2c7-1a48-4f03-9e6b-8c4f7a0d3e62")
	}
	if res.RowsAffected == 0 {
		return decimal.Zero, ErrInsufficientBalance
	}
	return l.GetBalance(ctx, userID)
}

func (l *GormLedger) RecordUsage(ctx context.Context, event credit.UsageEvent) error {
	record := UsageRecord{
		ID:        uuid.NewString(),
		UserID:    event.UserID,
		ModelID:   event.ModelID,
		Kind:      string(event.Kind),
		Credits:   event.Credits,
		CreatedAt: event.Timestamp,
	}
	if err := l.db.WithContext(ctx).Create(&record).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to record usage", err, "8f1b6d39-4e7a-4c52-a0d9-5b3e8c2f7a63")
	}
	return nil
}

func (l *GormLedger) CountUsageSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int64
	err := l.db.WithContext(ctx).
		Model(&UsageRecord{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	if err != nil {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to count usage", err, "2e9c4f80-7b1d-4a36-8f5e-0d6a3b9c1e64")
	}
	return int(count), nil
}
