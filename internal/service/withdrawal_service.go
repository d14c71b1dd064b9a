package service

import (
	"errors"
	"log"
	"strconv"
	"time"

	"scripta/internal/domain"
	"scripta/internal/models"
	"scripta/internal/repository"

	"github.com/shopspring/decimal"

	"gorm.io/gorm"
)

var (
	ErrWithdrawalNotFound   = errors.New("withdrawal not found")
	ErrWithdrawalNotPending = errors.New("withdrawal is not pending")
)

// WithdrawalService runs the pending -> paid|rejected state machine. The
// ledger debit happens at approval time, inside the same transaction that
// flips the status.
type WithdrawalService struct {
	db             *gorm.DB
	withdrawalRepo *repository.WithdrawalRepository
	walletRepo     *repository.WalletRepository
	notifSvc       *NotificationService
}

func NewWithdrawalService(
	db *gorm.DB,
	withdrawalRepo *repository.WithdrawalRepository,
	walletRepo *repository.WalletRepository,
	notifSvc *NotificationService,
) *WithdrawalService {
	return &WithdrawalService{
		db:             db,
		withdrawalRepo: withdrawalRepo,
		walletRepo:     walletRepo,
		notifSvc:       notifSvc,
	}
}

// Request files a pending withdrawal. The balance check here is a courtesy
// gate against obviously hopeless requests; the authoritative re-check
// happens under lock at approval, since the balance can change in between.
func (s *WithdrawalService) Request(userID uint, amount decimal.Decimal, method, destination string) (*models.WithdrawalRequest, error) {
	var wr *models.WithdrawalRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		w, err := s.walletRepo.GetByUserID(userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repository.ErrInsufficientFunds
			}
			return err
		}
		if w.Balance.Cmp(amount) < 0 {
			return repository.ErrInsufficientFunds
		}
		wr = &models.WithdrawalRequest{
			UserID:      userID,
			Amount:      amount,
			Method:      method,
			Destination: destination,
			Status:      domain.WithdrawalStatusPending,
		}
		return tx.Create(wr).Error
	})
	if err != nil {
		return nil, err
	}
	return wr, nil
}

// Approve debits the requester's wallet and marks the request paid, all in
// one transaction. A request that already left pending returns
// ErrWithdrawalNotPending untouched.
func (s *WithdrawalService) Approve(withdrawalID, adminID uint) error {
	var wr *models.WithdrawalRequest

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		wr, err = s.withdrawalRepo.LockByID(tx, withdrawalID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWithdrawalNotFound
			}
			return err
		}
		if wr.Status != domain.WithdrawalStatusPending {
			return ErrWithdrawalNotPending
		}

		_, err = s.walletRepo.Debit(tx, wr.UserID, wr.Amount,
			domain.TxTypeWithdrawal, "Withdrawal payout",
			domain.RefTypeWithdrawal, strconv.FormatUint(uint64(wr.ID), 10))
		if err != nil {
			return err
		}

		now := time.Now()
		return tx.Model(wr).Updates(map[string]interface{}{
			"status":       domain.WithdrawalStatusPaid,
			"processed_at": &now,
			"processed_by": &adminID,
		}).Error
	})
	if err != nil {
		return err
	}

	if err := s.notifSvc.NotifyWithdrawalPaid(wr.UserID, wr.Amount); err != nil {
		log.Printf("[Withdrawal] paid notification failed: %v", err)
	}
	return nil
}

// Reject is a pure status transition, no ledger effect.
func (s *WithdrawalService) Reject(withdrawalID, adminID uint, reason string) error {
	var wr *models.WithdrawalRequest

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		wr, err = s.withdrawalRepo.LockByID(tx, withdrawalID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWithdrawalNotFound
			}
			return err
		}
		if wr.Status != domain.WithdrawalStatusPending {
			return ErrWithdrawalNotPending
		}
		now := time.Now()
		return tx.Model(wr).Updates(map[string]interface{}{
			"status":       domain.WithdrawalStatusRejected,
			"processed_at": &now,
			"processed_by": &adminID,
		}).Error
	})
	if err != nil {
		return err
	}

	if err := s.notifSvc.NotifyWithdrawalRejected(wr.UserID, wr.Amount, reason); err != nil {
		log.Printf("[Withdrawal] reject notification failed: %v", err)
	}
	return nil
}
