package handler

import (
	"errors"
	"net/http"

	"scripta/internal/domain"
	"scripta/internal/middleware"
	"scripta/internal/models"
	"scripta/internal/repository"
	"scripta/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BidHandler struct {
	bidSvc    *service.BidService
	bidRepo   *repository.BidRepository
	orderRepo *repository.OrderRepository
}

func NewBidHandler(bidSvc *service.BidService, bidRepo *repository.BidRepository, orderRepo *repository.OrderRepository) *BidHandler {
	return &BidHandler{bidSvc: bidSvc, bidRepo: bidRepo, orderRepo: orderRepo}
}

// serializeBid picks the role-appropriate amount and the derived status.
// The bid's Order relation must be preloaded.
func serializeBid(b *models.Bid, viewerRole string, includeUser bool) gin.H {
	data := gin.H{
		"id":           b.ID,
		"order_id":     b.OrderID,
		"status":       b.DerivedStatus(),
		"amount":       b.AmountFor(viewerRole),
		"message":      b.Message,
		"submitted_at": b.SubmittedAt,
	}
	if includeUser {
		data["writer_id"] = b.UserID
		data["writer_name"] = b.User.FullName
		data["writer_rating"] = b.User.Rating
	}
	return data
}

// Place submits a bid on an order. Writer only.
func (h *BidHandler) Place(c *gin.Context) {
	writerID := middleware.GetUserID(c)
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Amount  decimal.Decimal `json:"amount" binding:"required"`
		Message string          `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "bid amount must be numeric")
		return
	}
	bid, err := h.bidSvc.Place(orderID, writerID, req.Amount, req.Message)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	order, err := h.orderRepo.GetByID(bid.OrderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	bid.Order = *order
	c.JSON(http.StatusCreated, serializeBid(bid, domain.RoleWriter, false))
}

// Update edits the writer's own open bid.
func (h *BidHandler) Update(c *gin.Context) {
	writerID := middleware.GetUserID(c)
	bidID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Amount  *decimal.Decimal `json:"amount"`
		Message *string          `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "bid amount must be numeric")
		return
	}
	bid, err := h.bidSvc.Update(bidID, writerID, req.Amount, req.Message)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializeBid(bid, domain.RoleWriter, false))
}

// Confirm acknowledges updated order terms on an unconfirmed bid.
func (h *BidHandler) Confirm(c *gin.Context) {
	writerID := middleware.GetUserID(c)
	bidID, ok := paramID(c, "id")
	if !ok {
		return
	}
	bid, err := h.bidSvc.Confirm(bidID, writerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "bid successfully confirmed",
		"bid":     serializeBid(bid, domain.RoleWriter, false),
	})
}

// Withdraw cancels the writer's own open bid.
func (h *BidHandler) Withdraw(c *gin.Context) {
	writerID := middleware.GetUserID(c)
	bidID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.bidSvc.Cancel(bidID, writerID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bid withdrawn successfully"})
}

// ListMine returns the writer's bids on still-open orders.
func (h *BidHandler) ListMine(c *gin.Context) {
	writerID := middleware.GetUserID(c)
	page, limit, offset := pagination(c)
	list, total, err := h.bidRepo.ListByWriter(writerID, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	out := make([]gin.H, 0, len(list))
	for i := range list {
		out = append(out, serializeBid(&list[i], domain.RoleWriter, false))
	}
	c.JSON(http.StatusOK, gin.H{
		"bids":       out,
		"pagination": paginationMeta(total, page, limit),
	})
}

// ListForOrder returns bids on one of the client's orders.
func (h *BidHandler) ListForOrder(c *gin.Context) {
	clientID := middleware.GetUserID(c)
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderRepo.GetByIDForClient(orderID, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "order not found")
			return
		}
		respondServiceError(c, err)
		return
	}
	page, limit, offset := pagination(c)
	list, total, err := h.bidRepo.ListByOrder(order, c.Query("status"), limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	out := make([]gin.H, 0, len(list))
	for i := range list {
		out = append(out, serializeBid(&list[i], domain.RoleClient, true))
	}
	c.JSON(http.StatusOK, gin.H{
		"bids":       out,
		"pagination": paginationMeta(total, page, limit),
	})
}

// UpdateStatus accepts or rejects a bid on behalf of the order's client.
// Accept debits the wallet and assigns the order atomically.
func (h *BidHandler) UpdateStatus(c *gin.Context) {
	clientID := middleware.GetUserID(c)
	bidID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Action string `json:"action" binding:"required,oneof=accept reject"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid action (use 'accept' or 'reject')")
		return
	}

	var err error
	if req.Action == "accept" {
		err = h.bidSvc.Accept(bidID, clientID)
	} else {
		err = h.bidSvc.Reject(bidID, clientID)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bid " + req.Action + "ed successfully"})
}
