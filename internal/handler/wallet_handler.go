package handler

import (
	"net/http"

	"scripta/internal/middleware"
	"scripta/internal/repository"
	"scripta/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	walletRepo *repository.WalletRepository
	paymentSvc *service.PaymentService
}

func NewWalletHandler(walletRepo *repository.WalletRepository, paymentSvc *service.PaymentService) *WalletHandler {
	return &WalletHandler{walletRepo: walletRepo, paymentSvc: paymentSvc}
}

// GetBalance returns the current user's balance. Users without a wallet yet
// read as zero.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID := middleware.GetUserID(c)
	balance, currency, err := h.walletRepo.Balance(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance, "currency": currency})
}

// GetTransactions lists the user's ledger entries, newest first, optionally
// filtered by type.
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, limit, offset := pagination(c)
	list, total, err := h.walletRepo.Transactions(userID, c.Query("type"), limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transactions": list,
		"pagination":   paginationMeta(total, page, limit),
	})
}

// InitDeposit returns Paystack checkout fields for a wallet top-up.
func (h *WalletHandler) InitDeposit(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Amount decimal.Decimal `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return
	}
	checkout, err := h.paymentSvc.InitWalletDeposit(userID, req.Amount)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkout)
}

// InitOrderPayment returns Paystack checkout fields for an unpaid order
// owned by the caller.
func (h *WalletHandler) InitOrderPayment(c *gin.Context) {
	clientID := middleware.GetUserID(c)
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	checkout, err := h.paymentSvc.InitOrderPayment(orderID, clientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkout)
}

// VerifyDeposit confirms a deposit with the gateway directly, for clients
// that cannot wait for the webhook.
func (h *WalletHandler) VerifyDeposit(c *gin.Context) {
	reference := c.Param("reference")
	if reference == "" {
		respondError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "reference is required")
		return
	}
	if err := h.paymentSvc.VerifyDeposit(c.Request.Context(), reference); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deposit verified"})
}
