package handler

import (
	"errors"
	"net/http"
	"time"

	"scripta/config"
	"scripta/internal/middleware"
	"scripta/internal/models"
	"scripta/internal/repository"
	"scripta/pkg/pricing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderHandler struct {
	cfg       *config.Config
	orderRepo *repository.OrderRepository
}

func NewOrderHandler(cfg *config.Config, orderRepo *repository.OrderRepository) *OrderHandler {
	return &OrderHandler{cfg: cfg, orderRepo: orderRepo}
}

// Create posts a new order. The client budget must clear the computed
// minimum price; the writer budget is the payout share of the client budget.
func (h *OrderHandler) Create(c *gin.Context) {
	clientID := middleware.GetUserID(c)
	var req struct {
		Title       string          `json:"title" binding:"required"`
		Subject     string          `json:"subject"`
		Type        string          `json:"type" binding:"required"`
		Pages       int             `json:"pages"`
		Description string          `json:"description"`
		Budget      decimal.Decimal `json:"budget" binding:"required"`
		Deadline    *time.Time      `json:"deadline" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return
	}
	min := pricing.MinimumPrice(req.Subject, req.Type, req.Pages, *req.Deadline, time.Now())
	if req.Budget.Cmp(min) < 0 {
		respondError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			"budget is below the minimum price of "+min.StringFixed(2))
		return
	}

	pct := decimal.NewFromFloat(h.cfg.Payout.WriterPercentage)
	order := &models.Order{
		Title:        req.Title,
		Subject:      req.Subject,
		Type:         req.Type,
		Pages:        req.Pages,
		Description:  req.Description,
		ClientBudget: req.Budget.Round(2),
		WriterBudget: req.Budget.Mul(pct).Round(2),
		ClientID:     clientID,
		Deadline:     req.Deadline,
	}
	if err := h.orderRepo.Create(order); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "order not found")
			return
		}
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListMine(c *gin.Context) {
	clientID := middleware.GetUserID(c)
	page, limit, offset := pagination(c)
	list, total, err := h.orderRepo.ListByClient(clientID, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders":     list,
		"pagination": paginationMeta(total, page, limit),
	})
}
