package repository

import (
	"scripta/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WithdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) Create(w *models.WithdrawalRequest) error {
	return r.db.Create(w).Error
}

func (r *WithdrawalRepository) GetByID(id uint) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	if err := r.db.First(&w, id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// LockByID reads the request FOR UPDATE so approve and reject serialize on
// the same row and a terminal status can never be overwritten.
func (r *WithdrawalRepository) LockByID(tx *gorm.DB, id uint) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&w, id).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WithdrawalRepository) ListByUser(userID uint, limit, offset int) ([]models.WithdrawalRequest, int64, error) {
	q := r.db.Model(&models.WithdrawalRequest{}).Where("user_id = ?", userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.WithdrawalRequest
	err := q.Order("requested_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

func (r *WithdrawalRepository) List(status string, limit, offset int) ([]models.WithdrawalRequest, int64, error) {
	q := r.db.Model(&models.WithdrawalRequest{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.WithdrawalRequest
	err := q.Preload("User").Order("requested_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}
