package repository

import (
	"scripta/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderPaymentRepository struct {
	db *gorm.DB
}

func NewOrderPaymentRepository(db *gorm.DB) *OrderPaymentRepository {
	return &OrderPaymentRepository{db: db}
}

func (r *OrderPaymentRepository) Create(p *models.OrderPayment) error {
	return r.db.Create(p).Error
}

func (r *OrderPaymentRepository) GetByReference(reference string) (*models.OrderPayment, error) {
	var p models.OrderPayment
	if err := r.db.Where("reference = ?", reference).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// LockByReference reads the payment FOR UPDATE. Webhook replays racing each
// other serialize here; the loser re-reads a success status and no-ops.
func (r *OrderPaymentRepository) LockByReference(tx *gorm.DB, reference string) (*models.OrderPayment, error) {
	var p models.OrderPayment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reference = ?", reference).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *OrderPaymentRepository) ListByOrder(orderID uint) ([]models.OrderPayment, error) {
	var list []models.OrderPayment
	err := r.db.Where("order_id = ?", orderID).Order("created_at DESC").Find(&list).Error
	return list, err
}
