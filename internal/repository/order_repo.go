package repository

import (
	"scripta/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(o *models.Order) error {
	return r.db.Create(o).Error
}

func (r *OrderRepository) GetByID(id uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetByIDForClient(id, clientID uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.Where("id = ? AND client_id = ?", id, clientID).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// LockByID reads the order row FOR UPDATE inside tx. Bid acceptance locks the
// order before the accepted-bid check so two concurrent accepts on the same
// order serialize instead of both passing the check.
func (r *OrderRepository) LockByID(tx *gorm.DB, id uint) (*models.Order, error) {
	var o models.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) ListByClient(clientID uint, limit, offset int) ([]models.Order, int64, error) {
	q := r.db.Model(&models.Order{}).Where("client_id = ?", clientID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Order
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}
