package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"scripta/config"
	"scripta/internal/domain"
	"scripta/internal/models"
	"scripta/internal/repository"
	"scripta/pkg/paystack"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrOrderAlreadyPaid = errors.New("order already paid")
	ErrInvalidAmount    = errors.New("invalid amount")
)

// Checkout is what the frontend needs to open the Paystack widget.
type Checkout struct {
	PublicKey   string            `json:"public_key"`
	Email       string            `json:"email"`
	Amount      decimal.Decimal   `json:"amount"`
	Currency    string            `json:"currency"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    paystack.Metadata `json:"metadata"`
}

// PaymentService initiates checkouts and reconciles gateway confirmations.
// Reconciliation is idempotent per reference: a replayed delivery never
// credits a wallet or marks a payment twice.
type PaymentService struct {
	db          *gorm.DB
	cfg         *config.Config
	paymentRepo *repository.OrderPaymentRepository
	orderRepo   *repository.OrderRepository
	walletRepo  *repository.WalletRepository
	userRepo    *repository.UserRepository
	notifSvc    *NotificationService
	gateway     *paystack.Client
}

func NewPaymentService(
	db *gorm.DB,
	cfg *config.Config,
	paymentRepo *repository.OrderPaymentRepository,
	orderRepo *repository.OrderRepository,
	walletRepo *repository.WalletRepository,
	userRepo *repository.UserRepository,
	notifSvc *NotificationService,
) *PaymentService {
	return &PaymentService{
		db:          db,
		cfg:         cfg,
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		walletRepo:  walletRepo,
		userRepo:    userRepo,
		notifSvc:    notifSvc,
		gateway:     paystack.NewClient(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey),
	}
}

// InitOrderPayment creates a pending OrderPayment with a fresh unique
// reference and returns the checkout fields for the client's unpaid order.
func (s *PaymentService) InitOrderPayment(orderID, clientID uint) (*Checkout, error) {
	order, err := s.orderRepo.GetByIDForClient(orderID, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.PaymentStatus == domain.PaymentStatusPaid {
		return nil, ErrOrderAlreadyPaid
	}
	client, err := s.userRepo.GetByID(clientID)
	if err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("order_%d_%s", order.ID, uuid.New().String()[:8])
	payment := &models.OrderPayment{
		OrderID:   order.ID,
		ClientID:  clientID,
		Gateway:   "paystack",
		Reference: reference,
		Amount:    order.ClientBudget,
		Currency:  "USD",
		Status:    domain.OrderPaymentPending,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}

	return &Checkout{
		PublicKey:   s.cfg.Paystack.PublicKey,
		Email:       client.Email,
		Amount:      order.ClientBudget,
		Currency:    "USD",
		Reference:   reference,
		CallbackURL: s.cfg.Paystack.CallbackURL,
		Metadata: paystack.Metadata{
			OrderID:   order.ID,
			PaymentID: payment.ID,
			UserID:    clientID,
		},
	}, nil
}

// InitWalletDeposit returns checkout fields for a wallet top-up. Nothing is
// persisted until the gateway confirms the charge; the metadata travels to
// the webhook and identifies the deposit.
func (s *PaymentService) InitWalletDeposit(userID uint, amount decimal.Decimal) (*Checkout, error) {
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	reference := fmt.Sprintf("wallet_%d_%s", userID, uuid.New().String()[:8])
	return &Checkout{
		PublicKey: s.cfg.Paystack.PublicKey,
		Email:     user.Email,
		Amount:    amount,
		Currency:  "USD",
		Reference: reference,
		Metadata: paystack.Metadata{
			Type:   "wallet_deposit",
			UserID: userID,
			Amount: amount.StringFixed(2),
		},
	}, nil
}

// HandleEvent applies one verified webhook delivery. Only charge.success
// mutates anything; each delivery runs in a single transaction.
func (s *PaymentService) HandleEvent(event *paystack.Event) error {
	if event.Event != paystack.EventChargeSuccess {
		return nil
	}
	if event.Data.Metadata.Type == "wallet_deposit" {
		return s.applyDeposit(&event.Data)
	}
	return s.applyOrderPayment(event.Data.Reference)
}

// applyDeposit credits the payer's wallet once per gateway reference. The
// ledger lookup on paystack/<reference> is the replay guard; CreditOnce runs
// it under the wallet row lock so concurrent deliveries serialize.
func (s *PaymentService) applyDeposit(data *paystack.EventData) error {
	amount, err := decimal.NewFromString(data.Metadata.Amount)
	if err != nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	userID := data.Metadata.UserID

	credited := false
	err = s.db.Transaction(func(tx *gorm.DB) error {
		_, created, err := s.walletRepo.CreditOnce(tx, userID, amount,
			domain.TxTypeDeposit, "Wallet deposit via Paystack",
			domain.RefTypePaystack, data.Reference)
		if err != nil {
			return err
		}
		credited = created
		return nil
	})
	if err != nil {
		return err
	}
	if credited {
		if err := s.notifSvc.NotifyDepositConfirmed(userID, amount, data.Reference); err != nil {
			log.Printf("[Payment] deposit notification failed: %v", err)
		}
	}
	return nil
}

// applyOrderPayment marks the payment success exactly once and flips the
// order to paid. An already-success payment is an idempotent no-op.
func (s *PaymentService) applyOrderPayment(reference string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		payment, err := s.paymentRepo.LockByReference(tx, reference)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}
		if payment.Status == domain.OrderPaymentSuccess {
			return nil
		}

		now := time.Now()
		err = tx.Model(payment).Updates(map[string]interface{}{
			"status":  domain.OrderPaymentSuccess,
			"paid_at": &now,
		}).Error
		if err != nil {
			return err
		}
		return tx.Model(&models.Order{}).Where("id = ?", payment.OrderID).
			Update("payment_status", domain.PaymentStatusPaid).Error
	})
}

// VerifyDeposit confirms a deposit directly with the gateway and applies it
// with the same replay guard as the webhook path.
func (s *PaymentService) VerifyDeposit(ctx context.Context, reference string) error {
	data, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return err
	}
	if data.Metadata.Type != "wallet_deposit" {
		return nil
	}
	return s.applyDeposit(data)
}
