package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payment-verifier/internal/interfaces"
	"github.com/akylbek/payment-system/payment-verifier/internal/telemetry"
)

type VerificationHistoryHandler struct {
	checkout interfaces.CheckoutService
}

func NewVerificationHistoryHandler(checkout interfaces.CheckoutService) *VerificationHistoryHandler {
	return &VerificationHistoryHandler{checkout: checkout}
}

func (h *VerificationHistoryHandler) GetVerifications(c *gin.Context) {
	orderID := c.Param("order")

	records, err := h.checkout.History(c.Request.Context(), orderID)
	if err != nil {
		telemetry.Logger.Error("Error fetching verification history",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch verification history"})
		return
	}

	if len(records) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No verifications recorded for order"})
		return
	}

	items := make([]gin.H, 0, len(records))
	for _, rec := range records {
		items = append(items, gin.H{
			"id":             rec.ID,
			"payment_method": rec.PaymentMethod,
			"amount":         rec.Amount.StringFixed(2),
			"trx_id":         rec.TrxID,
			"status":         rec.Status,
			"error_code":     rec.ErrorCode,
			"error_message":  rec.ErrorMessage,
			"created_at":     rec.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":      orderID,
		"verifications": items,
	})
}
