package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderPayment tracks one checkout attempt against the gateway. Reference is
// the globally unique idempotency key the gateway echoes back in webhooks; a
// payment flips to success exactly once.
type OrderPayment struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	ClientID  uint            `gorm:"not null;index" json:"client_id"`
	Gateway   string          `gorm:"size:30;not null;default:'paystack'" json:"gateway"`
	Reference string          `gorm:"size:128;uniqueIndex;not null" json:"reference"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency  string          `gorm:"size:10;default:'USD'" json:"currency"`
	Status    string          `gorm:"size:20;not null;index;default:'pending'" json:"status"`
	PaidAt    *time.Time      `json:"paid_at"`
	CreatedAt time.Time       `json:"created_at"`

	Order  Order `gorm:"foreignKey:OrderID" json:"-"`
	Client User  `gorm:"foreignKey:ClientID" json:"-"`
}

func (OrderPayment) TableName() string {
	return "order_payments"
}
