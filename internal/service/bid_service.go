package service

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"scripta/config"
	"scripta/internal/domain"
	"scripta/internal/models"
	"scripta/internal/repository"

	"github.com/shopspring/decimal"

	"gorm.io/gorm"
)

var (
	ErrBidNotFound     = errors.New("bid not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrBidClosed       = errors.New("bid already processed")
	ErrBidUnconfirmed  = errors.New("bid must be re-confirmed by the writer")
	ErrBidNotOpen      = errors.New("cannot modify bid after it is closed")
	ErrDuplicateBid    = errors.New("writer already has an active bid on this order")
	ErrBidBelowBudget  = errors.New("bid amount is below the order minimum")
	ErrAlreadyAssigned = errors.New("order already has an accepted bid")
	ErrNoConfirmNeeded = errors.New("bid does not require confirmation")
)

// ClientVisibleAmount converts a writer's take-home bid into the price the
// client sees, using the fixed payout ratio: round(writer / pct, 2).
func ClientVisibleAmount(writerAmount, payoutPct decimal.Decimal) decimal.Decimal {
	return writerAmount.Div(payoutPct).Round(2)
}

// BidService owns the bid lifecycle, including the acceptance orchestration:
// accepting a bid debits the client's wallet, assigns the order and rejects
// the competing bids in a single database transaction.
type BidService struct {
	db         *gorm.DB
	bidRepo    *repository.BidRepository
	orderRepo  *repository.OrderRepository
	walletRepo *repository.WalletRepository
	notifSvc   *NotificationService
	payoutPct  decimal.Decimal
}

func NewBidService(
	db *gorm.DB,
	cfg *config.Config,
	bidRepo *repository.BidRepository,
	orderRepo *repository.OrderRepository,
	walletRepo *repository.WalletRepository,
	notifSvc *NotificationService,
) *BidService {
	return &BidService{
		db:         db,
		bidRepo:    bidRepo,
		orderRepo:  orderRepo,
		walletRepo: walletRepo,
		notifSvc:   notifSvc,
		payoutPct:  decimal.NewFromFloat(cfg.Payout.WriterPercentage),
	}
}

// Place creates a new open bid on an unassigned order.
func (s *BidService) Place(orderID, writerID uint, writerAmount decimal.Decimal, message string) (*models.Bid, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.Assigned() {
		return nil, ErrAlreadyAssigned
	}
	if _, err := s.bidRepo.AcceptedByOrder(s.db, order.ID, 0); err == nil {
		return nil, ErrAlreadyAssigned
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if writerAmount.Cmp(order.WriterBudget) < 0 {
		return nil, ErrBidBelowBudget
	}
	if _, err := s.bidRepo.ActiveByOrderAndWriter(orderID, writerID); err == nil {
		return nil, ErrDuplicateBid
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	bid := &models.Bid{
		OrderID:      orderID,
		UserID:       writerID,
		WriterAmount: writerAmount,
		ClientAmount: ClientVisibleAmount(writerAmount, s.payoutPct),
		Status:       domain.BidStatusOpen,
		Message:      message,
	}
	if err := s.bidRepo.Create(bid); err != nil {
		return nil, err
	}
	return bid, nil
}

// Update changes the amount and/or message of the writer's own open bid.
func (s *BidService) Update(bidID, writerID uint, writerAmount *decimal.Decimal, message *string) (*models.Bid, error) {
	bid, err := s.bidRepo.GetByIDForWriter(bidID, writerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBidNotFound
		}
		return nil, err
	}
	if bid.Status != domain.BidStatusOpen {
		return nil, ErrBidNotOpen
	}
	if writerAmount != nil {
		if writerAmount.Cmp(bid.Order.WriterBudget) < 0 {
			return nil, ErrBidBelowBudget
		}
		bid.WriterAmount = *writerAmount
		bid.ClientAmount = ClientVisibleAmount(*writerAmount, s.payoutPct)
	}
	if message != nil {
		bid.Message = *message
	}
	if err := s.bidRepo.Update(bid); err != nil {
		return nil, err
	}
	return bid, nil
}

// Cancel withdraws the writer's own open bid. Cancelled bids are hidden from
// client listings and do not block the writer from bidding again.
func (s *BidService) Cancel(bidID, writerID uint) error {
	bid, err := s.bidRepo.GetByIDForWriter(bidID, writerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBidNotFound
		}
		return err
	}
	if bid.Status != domain.BidStatusOpen {
		return ErrBidNotOpen
	}
	bid.Status = domain.BidStatusCancelled
	return s.bidRepo.Update(bid)
}

// Confirm refreshes an unconfirmed bid after the client edited the order.
// Confirmation just acknowledges the updated terms by bumping submitted_at.
func (s *BidService) Confirm(bidID, writerID uint) (*models.Bid, error) {
	bid, err := s.bidRepo.GetByIDForWriter(bidID, writerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBidNotFound
		}
		return nil, err
	}
	if bid.Order.Assigned() {
		return nil, ErrBidNotFound
	}
	if bid.DerivedStatus() != domain.BidStatusUnconfirmed {
		return nil, ErrNoConfirmNeeded
	}
	bid.SubmittedAt = time.Now()
	if err := s.bidRepo.Update(bid); err != nil {
		return nil, err
	}
	return bid, nil
}

// Accept atomically validates the bid, debits the client for the order's
// client budget, assigns the order to the bidding writer and rejects the
// competing bids. Any failure rolls the whole transaction back; the order,
// every bid and the wallet are then exactly as before.
func (s *BidService) Accept(bidID, clientID uint) error {
	var (
		accepted models.Bid
		order    *models.Order
		losers   []models.Bid
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&accepted, bidID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBidNotFound
			}
			return err
		}

		// Lock the order before any check. Without this, two concurrent
		// accepts on different bids of the same order can both pass the
		// accepted-bid check and double-assign (and double-debit).
		var err error
		order, err = s.orderRepo.LockByID(tx, accepted.OrderID)
		if err != nil {
			return err
		}
		if order.ClientID != clientID {
			return ErrBidNotFound
		}

		switch accepted.DerivedStatusAgainst(order) {
		case domain.BidStatusOpen, domain.BidStatusPending:
		case domain.BidStatusUnconfirmed:
			return ErrBidUnconfirmed
		default:
			return ErrBidClosed
		}

		if order.Assigned() {
			return ErrAlreadyAssigned
		}
		if _, err := s.bidRepo.AcceptedByOrder(tx, order.ID, accepted.ID); err == nil {
			return ErrAlreadyAssigned
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		_, err = s.walletRepo.Debit(tx, clientID, order.ClientBudget,
			domain.TxTypePayment,
			fmt.Sprintf("Payment for order #%d", order.ID),
			domain.RefTypeOrder, strconv.FormatUint(uint64(order.ID), 10))
		if err != nil {
			return err
		}

		// Only after a successful debit: freeze budgets to the bid's
		// amounts and hand the order to the writer.
		err = tx.Model(order).Updates(map[string]interface{}{
			"writer_budget": accepted.WriterAmount,
			"client_budget": accepted.ClientAmount,
			"writer_id":     accepted.UserID,
			"status":        domain.OrderStatusInProgress,
		}).Error
		if err != nil {
			return err
		}
		if err := tx.Model(&accepted).Update("status", domain.BidStatusAccepted).Error; err != nil {
			return err
		}
		losers, err = s.bidRepo.RejectOthers(tx, order.ID, accepted.ID)
		return err
	})
	if err != nil {
		return err
	}

	// Notifications fire only after the commit succeeded.
	if err := s.notifSvc.NotifyBidAccepted(accepted.UserID, order.ID, accepted.ID, order.Title); err != nil {
		log.Printf("[Bid] accept notification failed: %v", err)
	}
	for _, b := range losers {
		if err := s.notifSvc.NotifyBidRejected(b.UserID, order.ID, b.ID, order.Title); err != nil {
			log.Printf("[Bid] reject notification failed: %v", err)
		}
	}
	return nil
}

// Reject is a pure status transition with no ledger effect.
func (s *BidService) Reject(bidID, clientID uint) error {
	bid, err := s.bidRepo.GetByID(bidID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBidNotFound
		}
		return err
	}
	order, err := s.orderRepo.GetByID(bid.OrderID)
	if err != nil {
		return err
	}
	if order.ClientID != clientID {
		return ErrBidNotFound
	}
	switch bid.DerivedStatusAgainst(order) {
	case domain.BidStatusOpen, domain.BidStatusPending, domain.BidStatusUnconfirmed:
	default:
		return ErrBidClosed
	}

	bid.Status = domain.BidStatusRejected
	if err := s.bidRepo.Update(bid); err != nil {
		return err
	}
	if err := s.notifSvc.NotifyBidRejected(bid.UserID, order.ID, bid.ID, order.Title); err != nil {
		log.Printf("[Bid] reject notification failed: %v", err)
	}
	return nil
}
