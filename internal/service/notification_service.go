package service

import (
	"encoding/json"
	"fmt"
	"log"

	"scripta/internal/models"
	"scripta/internal/repository"

	"github.com/shopspring/decimal"
)

// NotificationService persists in-app notification records. Push/email
// delivery is handled by an external system reading the same table.
type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) Notify(userID uint, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	err := s.repo.Create(&models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	})
	if err != nil {
		log.Printf("[Notify] create failed for user %d: %v", userID, err)
	}
	return err
}

func (s *NotificationService) NotifyBidAccepted(writerID, orderID, bidID uint, orderTitle string) error {
	return s.Notify(writerID, "bid_update", "Your Bid Was Accepted",
		fmt.Sprintf("Your bid for order #%d (%s) has been accepted. You have been assigned as the writer.", orderID, orderTitle),
		map[string]interface{}{"order_id": orderID, "bid_id": bidID, "status": "accepted"})
}

func (s *NotificationService) NotifyBidRejected(writerID, orderID, bidID uint, orderTitle string) error {
	return s.Notify(writerID, "bid_update", "Your Bid Was Rejected",
		fmt.Sprintf("Your bid for order #%d (%s) has been rejected by the client.", orderID, orderTitle),
		map[string]interface{}{"order_id": orderID, "bid_id": bidID, "status": "rejected"})
}

func (s *NotificationService) NotifyWithdrawalPaid(userID uint, amount decimal.Decimal) error {
	return s.Notify(userID, "success", "Withdrawal Paid",
		fmt.Sprintf("Your withdrawal of $%s has been processed.", amount.StringFixed(2)), nil)
}

func (s *NotificationService) NotifyWithdrawalRejected(userID uint, amount decimal.Decimal, reason string) error {
	body := fmt.Sprintf("Your withdrawal of $%s was rejected.", amount.StringFixed(2))
	if reason != "" {
		body = fmt.Sprintf("Your withdrawal of $%s was rejected: %s", amount.StringFixed(2), reason)
	}
	return s.Notify(userID, "error", "Withdrawal Rejected", body, nil)
}

func (s *NotificationService) NotifyDepositConfirmed(userID uint, amount decimal.Decimal, reference string) error {
	return s.Notify(userID, "success", "Deposit Confirmed",
		fmt.Sprintf("Your wallet was credited with $%s.", amount.StringFixed(2)),
		map[string]interface{}{"reference": reference})
}
