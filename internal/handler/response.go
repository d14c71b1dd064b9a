package handler

import (
	"errors"
	"net/http"
	"strconv"

	"scripta/internal/repository"
	"scripta/internal/service"

	"github.com/gin-gonic/gin"
)

// respondError emits the stable business-error envelope: a machine-readable
// code plus a human message.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

// respondServiceError maps typed service/repository errors onto the error
// taxonomy. Unknown errors become a generic 500 without leaking internals.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBidNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrWithdrawalNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrPaymentNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrAlreadyAssigned):
		respondError(c, http.StatusConflict, "ALREADY_ASSIGNED", err.Error())
	case errors.Is(err, repository.ErrInsufficientFunds):
		respondError(c, http.StatusPaymentRequired, "INSUFFICIENT_FUNDS", "wallet balance is insufficient")
	case errors.Is(err, service.ErrWithdrawalNotPending):
		respondError(c, http.StatusBadRequest, "INVALID_STATE", err.Error())
	case errors.Is(err, service.ErrBidUnconfirmed),
		errors.Is(err, service.ErrBidClosed),
		errors.Is(err, service.ErrBidNotOpen),
		errors.Is(err, service.ErrNoConfirmNeeded),
		errors.Is(err, service.ErrDuplicateBid),
		errors.Is(err, service.ErrOrderAlreadyPaid):
		respondError(c, http.StatusBadRequest, "INVALID_OPERATION", err.Error())
	case errors.Is(err, service.ErrBidBelowBudget),
		errors.Is(err, service.ErrInvalidAmount):
		respondError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "SERVER_ERROR", "internal error")
	}
}

// pagination reads page/limit query params with sane bounds.
func pagination(c *gin.Context) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit, (page - 1) * limit
}

func paginationMeta(total int64, page, limit int) gin.H {
	totalPages := (total + int64(limit) - 1) / int64(limit)
	return gin.H{"total": total, "page": page, "limit": limit, "total_pages": totalPages}
}

// paramID parses a numeric path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "invalid "+name)
		return 0, false
	}
	return uint(v), true
}
