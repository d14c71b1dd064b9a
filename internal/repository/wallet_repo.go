package repository

import (
	"errors"

	"scripta/internal/models"

	"github.com/shopspring/decimal"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInsufficientFunds = errors.New("insufficient wallet balance")

// WalletRepository owns wallets and their ledger. Credit and Debit are the
// only ways money moves: both take the caller's transaction, lock the wallet
// row for its duration and append an immutable ledger entry, so the balance
// column always equals the entry sum at commit.
type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) GetByUserID(userID uint) (*models.Wallet, error) {
	var w models.Wallet
	if err := r.db.Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// Balance is a lock-free read for display. Users without a wallet yet read as
// zero. Any balance used to gate a debit must come from the locked row inside
// the debit's own transaction, never from here.
func (r *WalletRepository) Balance(userID uint) (decimal.Decimal, string, error) {
	w, err := r.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, "USD", nil
		}
		return decimal.Zero, "", err
	}
	return w.Balance, w.Currency, nil
}

// lockForUpdate reads the wallet row under an exclusive lock held until the
// surrounding transaction ends.
func (r *WalletRepository) lockForUpdate(tx *gorm.DB, userID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Credit locks (or lazily creates) the wallet, appends a positive ledger
// entry and raises the balance. amount must already be validated positive by
// the caller. Must run inside tx.
func (r *WalletRepository) Credit(tx *gorm.DB, userID uint, amount decimal.Decimal, txType, description, refType, refID string) (*models.WalletTransaction, error) {
	w, err := r.lockForUpdate(tx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// First credit for this user. The unique index on user_id makes a
		// concurrent double-create fail and roll the transaction back.
		w = &models.Wallet{UserID: userID, Balance: decimal.Zero, Currency: "USD"}
		if err := tx.Create(w).Error; err != nil {
			return nil, err
		}
	}

	entry := &models.WalletTransaction{
		WalletID:      w.ID,
		Amount:        amount,
		Type:          txType,
		ReferenceType: refType,
		ReferenceID:   refID,
		Description:   description,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}
	newBalance := w.Balance.Add(amount)
	if err := tx.Model(w).Update("balance", newBalance).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// Debit locks the wallet and fails with ErrInsufficientFunds, touching
// nothing, when the wallet is absent or the locked balance is below amount.
// Otherwise it appends a negative ledger entry and lowers the balance. Must
// run inside tx.
func (r *WalletRepository) Debit(tx *gorm.DB, userID uint, amount decimal.Decimal, txType, description, refType, refID string) (*models.WalletTransaction, error) {
	w, err := r.lockForUpdate(tx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInsufficientFunds
		}
		return nil, err
	}
	if w.Balance.Cmp(amount) < 0 {
		return nil, ErrInsufficientFunds
	}

	entry := &models.WalletTransaction{
		WalletID:      w.ID,
		Amount:        amount.Neg(),
		Type:          txType,
		ReferenceType: refType,
		ReferenceID:   refID,
		Description:   description,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}
	newBalance := w.Balance.Sub(amount)
	if err := tx.Model(w).Update("balance", newBalance).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// CreditOnce credits at most once per refType/refID pair. The reference
// check runs only after the wallet row lock is held: a concurrent delivery
// of the same reference blocks on the lock and then sees the first
// delivery's entry, instead of both passing a snapshot read and
// double-crediting. The check itself is a locking read for the same reason.
// Returns created=false and no mutation when the reference was already
// applied. Must run inside tx.
func (r *WalletRepository) CreditOnce(tx *gorm.DB, userID uint, amount decimal.Decimal, txType, description, refType, refID string) (*models.WalletTransaction, bool, error) {
	w, err := r.lockForUpdate(tx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}
		w = &models.Wallet{UserID: userID, Balance: decimal.Zero, Currency: "USD"}
		if err := tx.Create(w).Error; err != nil {
			return nil, false, err
		}
	}

	var existing models.WalletTransaction
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		First(&existing).Error
	if err == nil {
		return nil, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	entry := &models.WalletTransaction{
		WalletID:      w.ID,
		Amount:        amount,
		Type:          txType,
		ReferenceType: refType,
		ReferenceID:   refID,
		Description:   description,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, false, err
	}
	if err := tx.Model(w).Update("balance", w.Balance.Add(amount)).Error; err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

// Transactions lists a user's ledger entries newest first, optionally
// filtered by type.
func (r *WalletRepository) Transactions(userID uint, txType string, limit, offset int) ([]models.WalletTransaction, int64, error) {
	w, err := r.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []models.WalletTransaction{}, 0, nil
		}
		return nil, 0, err
	}
	q := r.db.Model(&models.WalletTransaction{}).Where("wallet_id = ?", w.ID)
	if txType != "" {
		q = q.Where("type = ?", txType)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.WalletTransaction
	err = q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

// SumEntries recomputes a wallet's balance from its ledger. Reconciliation
// helper; the invariant is balance == SumEntries at every committed state.
func (r *WalletRepository) SumEntries(walletID uint) (decimal.Decimal, error) {
	var out struct {
		Total decimal.Decimal
	}
	err := r.db.Model(&models.WalletTransaction{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("wallet_id = ?", walletID).
		Scan(&out).Error
	return out.Total, err
}
