package domain

import "time"

// TxKind classifies a token ledger entry.
type TxKind string

const (
	TxSignupGrant          TxKind = "signup_grant"
	TxChat                 TxKind = "chat"
	TxSurvey               TxKind = "survey"
	TxPurchaseSubscription TxKind = "purchase_subscription"
	TxPurchaseTokens       TxKind = "purchase_tokens"
)

// TokenTransaction is an append-only audit record of a balance change.
// Amount is signed (debits negative). Requested carries the provider-reported
// cost for debits, which may exceed the charged amount when the balance was
// clamped at zero. Reference is unique when set and identifies the external
// payment that produced a credit.
type TokenTransaction struct {
	ID           string    `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID       uint      `json:"userId"       gorm:"not null;index:idx_user_tx,priority:1"`
	Kind         TxKind    `json:"kind"         gorm:"type:varchar(32);not null"`
	Amount       int64     `json:"amount"       gorm:"not null"`
	Requested    int64     `json:"requested"    gorm:"not null;default:0"`
	BalanceAfter int64     `json:"balanceAfter" gorm:"not null"`
	Reference    *string   `json:"reference,omitempty" gorm:"type:varchar(255);uniqueIndex"`
	CreatedAt    time.Time `json:"createdAt"    gorm:"index:idx_user_tx,priority:2"`
}

// TableName returns the database table name for TokenTransaction.
func (TokenTransaction) TableName() string { return "token_transactions" }
