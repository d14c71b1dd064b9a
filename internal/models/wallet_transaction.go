package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletTransaction is an immutable ledger entry. Amount is signed: positive
// for credits, negative for debits. Rows are never updated or deleted; the
// ledger doubles as the audit trail and the reconciliation source of truth.
type WalletTransaction struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	WalletID      uint            `gorm:"not null;index" json:"wallet_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Type          string          `gorm:"size:30;not null;index" json:"type"` // deposit, withdrawal, payment, refund
	ReferenceType string          `gorm:"size:30" json:"reference_type"`      // order, withdrawal, paystack
	ReferenceID   string          `gorm:"size:64;index" json:"reference_id"`
	Description   string          `gorm:"size:255" json:"description"`
	CreatedAt     time.Time       `json:"created_at"`

	Wallet Wallet `gorm:"foreignKey:WalletID" json:"-"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
