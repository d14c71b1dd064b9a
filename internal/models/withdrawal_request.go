package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalRequest moves pending -> paid or pending -> rejected, terminal at
// either leaf. The ledger debit happens at approval time, not request time.
type WithdrawalRequest struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method      string          `gorm:"size:50" json:"method"`
	Destination string          `gorm:"size:255" json:"destination"`
	Status      string          `gorm:"size:20;not null;index;default:'pending'" json:"status"`
	RequestedAt time.Time       `gorm:"autoCreateTime" json:"requested_at"`
	ProcessedAt *time.Time      `json:"processed_at"`
	ProcessedBy *uint           `json:"processed_by"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}
