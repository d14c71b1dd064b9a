package models

import (
	"time"

	"github.com/shopspring/decimal"

	"gorm.io/gorm"
)

// Order budgets are distinct because of the payout split: WriterBudget is the
// writer's take-home figure, ClientBudget the client-visible price. Once
// WriterID is set both budgets are frozen to the accepted bid's amounts.
type Order struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Title         string          `gorm:"size:255;not null" json:"title"`
	Subject       string          `gorm:"size:100" json:"subject"`
	Type          string          `gorm:"size:100" json:"type"`
	Pages         int             `gorm:"default:1" json:"pages"`
	Description   string          `gorm:"type:text" json:"description"`
	ClientBudget  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"client_budget"`
	WriterBudget  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"writer_budget"`
	Status        string          `gorm:"size:30;not null;index;default:'open'" json:"status"`
	PaymentStatus string          `gorm:"size:30;not null;index;default:'unpaid'" json:"payment_status"`
	ClientID      uint            `gorm:"not null;index" json:"client_id"`
	WriterID      *uint           `gorm:"index" json:"writer_id"`
	Deadline      *time.Time      `json:"deadline"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`

	Client User  `gorm:"foreignKey:ClientID" json:"-"`
	Writer *User `gorm:"foreignKey:WriterID" json:"-"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) Assigned() bool { return o.WriterID != nil }
