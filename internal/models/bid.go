package models

import (
	"time"

	"scripta/internal/domain"

	"github.com/shopspring/decimal"

	"gorm.io/gorm"
)

type Bid struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OrderID uint `gorm:"not null;index" json:"order_id"`
	UserID  uint `gorm:"not null;index" json:"user_id"`

	// What the writer entered (take-home figure).
	WriterAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"-"`
	// What the client sees and pays (writer amount marked up by the fixed
	// payout percentage).
	ClientAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"-"`

	Status      string         `gorm:"size:20;not null;index;default:'open'" json:"status"`
	Message     string         `gorm:"type:text" json:"message"`
	SubmittedAt time.Time      `gorm:"autoCreateTime" json:"submitted_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Order Order `gorm:"foreignKey:OrderID" json:"-"`
	User  User  `gorm:"foreignKey:UserID" json:"-"`
}

func (Bid) TableName() string {
	return "bids"
}

// DerivedStatusAgainst computes the effective status of the bid. Terminal
// stored statuses pass through; an open/pending bid on an order the client
// modified after submission reads as unconfirmed until the writer re-confirms.
func (b *Bid) DerivedStatusAgainst(order *Order) string {
	switch b.Status {
	case domain.BidStatusAccepted, domain.BidStatusRejected, domain.BidStatusCancelled:
		return b.Status
	}
	if order != nil && order.UpdatedAt.After(b.SubmittedAt) {
		return domain.BidStatusUnconfirmed
	}
	return b.Status
}

// DerivedStatus requires the Order relation to be preloaded.
func (b *Bid) DerivedStatus() string {
	return b.DerivedStatusAgainst(&b.Order)
}

// AmountFor picks the writer- or client-visible figure for serialization.
func (b *Bid) AmountFor(viewerRole string) decimal.Decimal {
	if viewerRole == domain.RoleWriter {
		return b.WriterAmount
	}
	return b.ClientAmount
}
