// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file holds the balance mutations and the token
// transaction journal.
//
// Debits are conditional single-statement updates, so concurrent callers
// cannot drive a balance below zero even without an application lock:
//
//	UPDATE users SET token_balance = token_balance - ? WHERE id = ? AND token_balance >= ?
//
// Callers combine these helpers inside a transaction with InsertTransaction
// so the balance and the journal never disagree.
package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

// ErrInsufficientBalance is returned by DebitBalance when the conditional
// update matched no row (balance too low or user missing).
var ErrInsufficientBalance = errors.New("insufficient balance")

// GetBalance returns the user's current balance, or ErrNotFound.
func GetBalance(ctx context.Context, db *gorm.DB, userID uint) (int64, error) {
	var row struct{ TokenBalance int64 }
	res := db.WithContext(ctx).Model(&domain.User{}).Select("token_balance").Where("id = ?", userID).Limit(1).Scan(&row)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	return row.TokenBalance, nil
}

// DebitBalance subtracts amount only if the balance covers it and returns the
// new balance.
func DebitBalance(ctx context.Context, db *gorm.DB, userID uint, amount int64) (int64, error) {
	res := db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND token_balance >= ?", userID, amount).
		Update("token_balance", gorm.Expr("token_balance - ?", amount))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrInsufficientBalance
	}
	return GetBalance(ctx, db, userID)
}

// ClampDebitBalance subtracts up to cost, stopping at zero, and returns how
// much was actually charged and the new balance. It is used for post-hoc
// charges where the provider cost is only known after the call succeeded.
// Callers must serialize per user so the before/after reads bracket only
// their own update.
func ClampDebitBalance(ctx context.Context, db *gorm.DB, userID uint, cost int64) (charged, balance int64, err error) {
	before, err := GetBalance(ctx, db, userID)
	if err != nil {
		return 0, 0, err
	}
	res := db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", userID).
		Update("token_balance", gorm.Expr("CASE WHEN token_balance >= ? THEN token_balance - ? ELSE 0 END", cost, cost))
	if res.Error != nil {
		return 0, 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, 0, ErrNotFound
	}
	after, err := GetBalance(ctx, db, userID)
	if err != nil {
		return 0, 0, err
	}
	return before - after, after, nil
}

// CreditBalance adds amount and returns the new balance, or ErrNotFound.
func CreditBalance(ctx context.Context, db *gorm.DB, userID uint, amount int64) (int64, error) {
	res := db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", userID).
		Update("token_balance", gorm.Expr("token_balance + ?", amount))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	return GetBalance(ctx, db, userID)
}

// InsertTransaction appends a journal entry. A reused Reference returns
// ErrDuplicate, which is how replayed payment notifications are detected.
func InsertTransaction(ctx context.Context, db *gorm.DB, tx *domain.TokenTransaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if err := db.WithContext(ctx).Create(tx).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// FindTransactionByReference returns the entry for an external reference, or ErrNotFound.
func FindTransactionByReference(ctx context.Context, db *gorm.DB, ref string) (*domain.TokenTransaction, error) {
	var tx domain.TokenTransaction
	if err := db.WithContext(ctx).First(&tx, "reference = ?", ref).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

// ListTransactions returns the user's most recent journal entries, newest first.
func ListTransactions(ctx context.Context, db *gorm.DB, userID uint, limit int) ([]domain.TokenTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []domain.TokenTransaction
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
