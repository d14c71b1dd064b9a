package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is the per-user balance row. Every credit/debit locks this row for
// the duration of its transaction, so Balance always equals the sum of the
// wallet's ledger entries at commit time.
type Wallet struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"balance"`
	Currency  string          `gorm:"size:10;default:'USD'" json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Wallet) TableName() string {
	return "wallets"
}
