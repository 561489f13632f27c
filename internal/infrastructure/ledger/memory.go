package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"nevis-server/internal/domain/credit"
)

// MemoryLedger is the in-process ledger used when no database is configured.
// It holds the same atomicity guarantee as the postgres ledger: a deduction
// either fully applies or leaves the balance untouched.
type MemoryLedger struct {
	mu              sync.Mutex
	balances        map[string]decimal.Decimal
	events          []credit.UsageEvent
	startingCredits decimal.Decimal
}

func NewMemoryLedger(startingCredits decimal.Decimal) *MemoryLedger {
	return &MemoryLedger{
		balances:        make(map[string]decimal.Decimal),
		startingCredits: startingCredits,
	}
}

func (l *MemoryLedger) balanceLocked(userID string) decimal.Decimal {
	if _, ok := l.balances[userID]; !ok {
		l.balances[userID] = l.startingCredits
	}
	return l.balances[userID]
}

func (l *MemoryLedger) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(userID), nil
}

func (l *MemoryLedger) Deduct(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	balance := l.balanceLocked(userID)
	if balance.LessThan(amount) {
		return decimal.Zero, ErrInsufficientBalance
	}
	remaining := balance.Sub(amount)
	l.balances[userID] = remaining
	return remaining, nil
}

func (l *MemoryLedger) RecordUsage(ctx context.Context, event credit.UsageEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

func (l *MemoryLedger) CountUsageSince(ctx context.Context, userID string, since time.Time) (int, error) {
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
