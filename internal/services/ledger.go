// Package services – Ledger
//
// Ledger is the only component that mutates token balances. Every mutation
// runs under a per-user mutex and inside a database transaction that also
// appends a TokenTransaction, so the balance and the journal move together
// and concurrent requests for one user are applied one at a time.
//
// Two debit policies exist:
//   - Debit is strict: it refuses when the balance cannot cover the amount.
//   - Charge is clamped: it bills an already-incurred provider cost and stops
//     at zero, recording both the requested and the charged amount.
package services

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-survey-backend/internal/domain"
	"github.com/tbourn/go-survey-backend/internal/repo"
)

// Ledger serializes balance changes per user.
type Ledger struct {
	DB *gorm.DB

	locks sync.Map // uint -> *sync.Mutex
}

// NewLedger returns a Ledger bound to db.
func NewLedger(db *gorm.DB) *Ledger { return &Ledger{DB: db} }

func (l *Ledger) lock(userID uint) func() {
	m, _ := l.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Balance returns the user's balance, or ErrUserNotFound.
func (l *Ledger) Balance(ctx context.Context, userID uint) (int64, error) {
	b, err := repo.GetBalance(ctx, l.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return 0, ErrUserNotFound
	}
	return b, err
}

// Debit removes amount from the balance or fails with *QuotaError without
// mutating anything.
func (l *Ledger) Debit(ctx context.Context, userID uint, amount int64, kind domain.TxKind) (int64, error) {
	ctx, span := otel.Tracer("services/Ledger").Start(ctx, "Debit",
		trace.WithAttributes(
			attribute.Int("user.id", int(userID)),
			attribute.Int64("amount", amount),
		),
	)
	defer span.End()

	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	defer l.lock(userID)()

	var balance int64
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := repo.GetBalance(ctx, tx, userID)
		if err != nil {
			return err
		}
		balance = cur
		if cur < amount {
			return &QuotaError{Balance: cur}
		}
		after, err := repo.DebitBalance(ctx, tx, userID, amount)
		if errors.Is(err, repo.ErrInsufficientBalance) {
			return &QuotaError{Balance: cur}
		}
		if err != nil {
			return err
		}
		balance = after
		return repo.InsertTransaction(ctx, tx, &domain.TokenTransaction{
			UserID:       userID,
			Kind:         kind,
			Amount:       -amount,
			Requested:    amount,
			BalanceAfter: after,
		})
	})
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return 0, ErrUserNotFound
	case errors.Is(err, ErrInsufficientQuota):
		quotaRejections.WithLabelValues(string(kind)).Inc()
		return balance, err
	case err != nil:
		return 0, err
	}
	tokensMoved.WithLabelValues("debit", string(kind)).Add(float64(amount))
	return balance, nil
}

// Charge bills a provider cost that has already been incurred. The balance
// stops at zero; charged may be lower than cost. A zero cost writes nothing.
func (l *Ledger) Charge(ctx context.Context, userID uint, cost int64, kind domain.TxKind) (charged, balance int64, err error) {
	ctx, span := otel.Tracer("services/Ledger").Start(ctx, "Charge",
		trace.WithAttributes(
			attribute.Int("user.id", int(userID)),
			attribute.Int64("cost", cost),
		),
	)
	defer span.End()

	if cost < 0 {
		return 0, 0, ErrInvalidAmount
	}
	if cost == 0 {
		balance, err = l.Balance(ctx, userID)
		return 0, balance, err
	}
	defer l.lock(userID)()

	err = l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, after, err := repo.ClampDebitBalance(ctx, tx, userID, cost)
		if err != nil {
			return err
		}
		charged, balance = c, after
		return repo.InsertTransaction(ctx, tx, &domain.TokenTransaction{
			UserID:       userID,
			Kind:         kind,
			Amount:       -c,
			Requested:    cost,
			BalanceAfter: after,
		})
	})
	if errors.Is(err, repo.ErrNotFound) {
		return 0, 0, ErrUserNotFound
	}
	if err != nil {
		return 0, 0, err
	}
	tokensMoved.WithLabelValues("debit", string(kind)).Add(float64(charged))
	return charged, balance, nil
}

// Credit adds amount to the balance. A non-empty reference is recorded
// uniquely; crediting the same reference twice returns ErrAlreadyCredited and
// leaves the balance untouched.
func (l *Ledger) Credit(ctx context.Context, userID uint, amount int64, kind domain.TxKind, reference string) (int64, error) {
	ctx, span := otel.Tracer("services/Ledger").Start(ctx, "Credit",
		trace.WithAttributes(
			attribute.Int("user.id", int(userID)),
			attribute.Int64("amount", amount),
			attribute.String("reference", reference),
		),
	)
	defer span.End()

	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	defer l.lock(userID)()

	var balance int64
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		after, err := repo.CreditBalance(ctx, tx, userID, amount)
		if err != nil {
			return err
		}
		balance = after
		entry := &domain.TokenTransaction{
			UserID:       userID,
			Kind:         kind,
			Amount:       amount,
			BalanceAfter: after,
		}
		if reference != "" {
			entry.Reference = &reference
		}
		return repo.InsertTransaction(ctx, tx, entry)
	})
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return 0, ErrUserNotFound
	case errors.Is(err, repo.ErrDuplicate):
		return 0, ErrAlreadyCredited
	case err != nil:
		return 0, err
	}
	tokensMoved.WithLabelValues("credit", string(kind)).Add(float64(amount))
	return balance, nil
}

// History returns the user's most recent ledger entries, newest first.
func (l *Ledger) History(ctx context.Context, userID uint, limit int) ([]domain.TokenTransaction, error) {
	return repo.ListTransactions(ctx, l.DB, userID, limit)
}
