package repository

import (
	"scripta/internal/domain"
	"scripta/internal/models"

	"gorm.io/gorm"
)

type BidRepository struct {
	db *gorm.DB
}

func NewBidRepository(db *gorm.DB) *BidRepository {
	return &BidRepository{db: db}
}

func (r *BidRepository) Create(b *models.Bid) error {
	return r.db.Create(b).Error
}

func (r *BidRepository) GetByID(id uint) (*models.Bid, error) {
	var b models.Bid
	if err := r.db.First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BidRepository) GetByIDForWriter(id, writerID uint) (*models.Bid, error) {
	var b models.Bid
	err := r.db.Preload("Order").Where("id = ? AND user_id = ?", id, writerID).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BidRepository) Update(b *models.Bid) error {
	return r.db.Save(b).Error
}

// ActiveByOrderAndWriter finds an existing open bid by the writer on the
// order; used to block duplicate active bids.
func (r *BidRepository) ActiveByOrderAndWriter(orderID, writerID uint) (*models.Bid, error) {
	var b models.Bid
	err := r.db.Where("order_id = ? AND user_id = ? AND status = ?", orderID, writerID, domain.BidStatusOpen).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// AcceptedByOrder returns the accepted bid for the order, excluding exceptID
// when non-zero.
func (r *BidRepository) AcceptedByOrder(tx *gorm.DB, orderID, exceptID uint) (*models.Bid, error) {
	q := tx.Where("order_id = ? AND status = ?", orderID, domain.BidStatusAccepted)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	var b models.Bid
	if err := q.First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// RejectOthers flips every other open or pending bid on the order to
// rejected, and returns the ids of the bids it touched so the caller can
// notify the losing writers after commit.
func (r *BidRepository) RejectOthers(tx *gorm.DB, orderID, acceptedBidID uint) ([]models.Bid, error) {
	var others []models.Bid
	err := tx.Where("order_id = ? AND id <> ? AND status IN ?", orderID, acceptedBidID,
		[]string{domain.BidStatusOpen, domain.BidStatusPending}).
		Find(&others).Error
	if err != nil {
		return nil, err
	}
	if len(others) == 0 {
		return others, nil
	}
	ids := make([]uint, 0, len(others))
	for _, b := range others {
		ids = append(ids, b.ID)
	}
	err = tx.Model(&models.Bid{}).Where("id IN ?", ids).
		Update("status", domain.BidStatusRejected).Error
	return others, err
}

// ListByWriter returns the writer's bids on still-unassigned orders.
func (r *BidRepository) ListByWriter(writerID uint, limit, offset int) ([]models.Bid, int64, error) {
	q := r.db.Model(&models.Bid{}).
		Joins("JOIN orders ON orders.id = bids.order_id").
		Where("bids.user_id = ? AND orders.writer_id IS NULL", writerID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Bid
	err := q.Preload("Order").Order("bids.submitted_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

// ListByOrder returns bids on an order for the client view: cancelled bids
// are hidden, and once the order is assigned only the accepted bid shows.
func (r *BidRepository) ListByOrder(order *models.Order, status string, limit, offset int) ([]models.Bid, int64, error) {
	q := r.db.Model(&models.Bid{}).
		Where("order_id = ? AND status <> ?", order.ID, domain.BidStatusCancelled)
	if order.Assigned() {
		q = q.Where("status = ?", domain.BidStatusAccepted)
	}
	if status != "" && status != "all" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Bid
	err := q.Preload("Order").Preload("User").
		Order("submitted_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}
