package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payment-verifier/internal/apperr"
	"github.com/akylbek/payment-system/payment-verifier/internal/interfaces"
	"github.com/akylbek/payment-system/payment-verifier/internal/models"
	"github.com/akylbek/payment-system/payment-verifier/internal/telemetry"
)

type PaymentHandler struct {
	checkout interfaces.CheckoutService
	catalog  interfaces.MethodCatalog
	validate *validator.Validate
}

func NewPaymentHandler(checkout interfaces.CheckoutService, catalog interfaces.MethodCatalog) *PaymentHandler {
	return &PaymentHandler{
		checkout: checkout,
		catalog:  catalog,
		validate: validator.New(),
	}
}

func (h *PaymentHandler) GetPaymentMethods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"methods": h.catalog.PaymentMethods(),
		"info":    h.catalog.PaymentMethodsInfo(),
	})
}

func (h *PaymentHandler) PreparePayment(c *gin.Context) {
	var req models.PrepareRequest
	if !h.bind(c, &req) {
		return
	}

	verifyURL, err := h.checkout.Prepare(c.Request.Context(), req.OrderID, req.Amount, req.PaymentMethod)
	if err != nil {
		h.fail(c, "Error preparing payment", req.OrderID, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order_id":   req.OrderID,
		"verify_url": verifyURL,
	})
}

func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req models.VerificationRequest
	if !h.bind(c, &req) {
		return
	}

	outcome, err := h.checkout.Verify(c.Request.Context(), req)
	if err != nil {
		h.fail(c, "Error verifying payment", req.OrderID, err)
		return
	}

	c.JSON(http.StatusOK, outcome.ToMap())
}

func (h *PaymentHandler) VerifyBatch(c *gin.Context) {
	var req models.BatchVerificationRequest
	if !h.bind(c, &req) {
		return
	}

	outcomes := h.checkout.VerifyBatch(c.Request.Context(), req.Items)

	results := make([]map[string]any, len(outcomes))
	for i, o := range outcomes {
		results[i] = o.ToMap()
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// VerifyPendingPayment backs the verification page of a prepared order.
func (h *PaymentHandler) VerifyPendingPayment(c *gin.Context) {
	orderID := c.Param("order")

	outcome, err := h.checkout.VerifyPending(c.Request.Context(), orderID, c.Query("trx_id"))
	if err != nil {
		h.fail(c, "Error verifying pending payment", orderID, err)
		return
	}

	c.JSON(http.StatusOK, outcome.ToMap())
}

func (h *PaymentHandler) ClearPending(c *gin.Context) {
	orderID := c.Param("order")

	if err := h.checkout.ClearPending(c.Request.Context(), orderID); err != nil {
		h.fail(c, "Error clearing pending payment", orderID, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *PaymentHandler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		telemetry.Logger.Warn("Error decoding request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "invalid request body",
			"error_code": models.CodeInvalidRequest,
		})
		return false
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		fields := []string{}
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace()+" failed "+fe.Tag())
			}
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "invalid request",
			"error_code": models.CodeInvalidRequest,
			"details":    fields,
		})
		return false
	}

	return true
}

func (h *PaymentHandler) fail(c *gin.Context, msg, orderID string, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		telemetry.Logger.Error(msg, zap.String("order_id", orderID), zap.Error(err))
	}

	c.JSON(status, gin.H{
		"error":      err.Error(),
		"error_code": apperr.Code(err),
		"order_id":   orderID,
	})
}
