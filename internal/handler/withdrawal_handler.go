package handler

import (
	"net/http"

	"scripta/internal/middleware"
	"scripta/internal/repository"
	"scripta/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type WithdrawalHandler struct {
	withdrawalSvc  *service.WithdrawalService
	withdrawalRepo *repository.WithdrawalRepository
}

func NewWithdrawalHandler(withdrawalSvc *service.WithdrawalService, withdrawalRepo *repository.WithdrawalRepository) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalSvc: withdrawalSvc, withdrawalRepo: withdrawalRepo}
}

// Create submits a withdrawal request. Funds leave the wallet only when an
// admin approves it.
func (h *WithdrawalHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Amount      decimal.Decimal `json:"amount" binding:"required"`
		Method      string          `json:"method" binding:"required,oneof=paypal bank mpesa"`
		Destination string          `json:"destination" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid withdrawal request")
		return
	}
	if req.Amount.Cmp(decimal.Zero) <= 0 {
		respondError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "amount must be positive")
		return
	}
	w, err := h.withdrawalSvc.Request(userID, req.Amount, req.Method, req.Destination)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":    "withdrawal request submitted",
		"withdrawal": w,
	})
}

// ListMine returns the authenticated user's withdrawal history.
func (h *WithdrawalHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, limit, offset := pagination(c)
	list, total, err := h.withdrawalRepo.ListByUser(userID, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"withdrawals": list,
		"pagination":  paginationMeta(total, page, limit),
	})
}

// Admin endpoints.

// List returns withdrawal requests across all users, optionally filtered by
// status.
func (h *WithdrawalHandler) List(c *gin.Context) {
	page, limit, offset := pagination(c)
	list, total, err := h.withdrawalRepo.List(c.Query("status"), limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"withdrawals": list,
		"pagination":  paginationMeta(total, page, limit),
	})
}

// Approve marks a pending request paid and debits the wallet atomically.
func (h *WithdrawalHandler) Approve(c *gin.Context) {
	adminID := middleware.GetUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.withdrawalSvc.Approve(id, adminID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "withdrawal approved"})
}

// Reject declines a pending request. No wallet movement.
func (h *WithdrawalHandler) Reject(c *gin.Context) {
	adminID := middleware.GetUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)
	if err := h.withdrawalSvc.Reject(id, adminID, req.Reason); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "withdrawal rejected"})
}
