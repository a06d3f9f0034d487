package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payment-verifier/internal/apperr"
	"github.com/akylbek/payment-system/payment-verifier/internal/interfaces"
	"github.com/akylbek/payment-system/payment-verifier/internal/models"
	"github.com/akylbek/payment-system/payment-verifier/internal/telemetry"
)

// Verifier translates the POS backend's answer into an Outcome. It never
// returns an error: transport, credential and business failures all come
// back as failed outcomes.
type Verifier struct {
	client  interfaces.VerificationClient
	storeID int
	logger  *zap.Logger
}

// NewVerifier binds the verifier to the store whose credentials the client
// uses. Confirmed outcomes always carry this store ID, never one reported
// by the backend.
func NewVerifier(client interfaces.VerificationClient, storeID int, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = telemetry.Logger
	}
	return &Verifier{client: client, storeID: storeID, logger: logger}
}

func (v *Verifier) Verify(
	ctx context.Context,
	orderID string,
	amount decimal.Decimal,
	method models.PaymentMethod,
	trxID string,
) models.Outcome {
	payload, err := v.client.VerifyTransaction(ctx, orderID, amount, method, trxID)
	if err != nil {
		code := apperr.Code(err)
		v.logger.Warn("Transaction lookup failed",
			zap.String("order_id", orderID),
			zap.String("error_code", code),
			zap.Error(err),
		)
		return models.Failed(code, err.Error())
	}

	return v.classify(payload, amount, method, trxID)
}

func (v *Verifier) classify(p models.RawPayload, amount decimal.Decimal, method models.PaymentMethod, requestedTrxID string) models.Outcome {
	trxID := p.String("trx_id")
	if trxID == "" {
		trxID = requestedTrxID
	}

	if p.HTTPStatus() == http.StatusNotFound {
		return models.Failed(models.CodeTransactionNotFound, messageOr(p, "Transaction not found")).WithTrxID(p.String("trx_id"))
	}

	switch strings.ToLower(p.String("status")) {
	case "confirmed", "success", "completed", "paid":
		return v.confirm(p, trxID, amount, method)

	case "pending", "processing", "awaiting":
		return models.Pending(messageOr(p, "Payment is awaiting settlement"))

	case "used", "already_used":
		return models.AlreadyUsed(trxID)

	case "expired":
		return models.Expired(trxID)

	case "not_found":
		return models.Failed(models.CodeTransactionNotFound, messageOr(p, "Transaction not found"))

	case "amount_mismatch":
		return models.Failed(models.CodeAmountMismatch, messageOr(p, "Amount does not match"))

	default:
		code := p.String("error_code")
		if code == "" {
			code = models.CodeVerificationFailed
		}
		return models.Failed(code, messageOr(p, "Verification failed")).WithTrxID(p.String("trx_id"))
	}
}

func (v *Verifier) confirm(p models.RawPayload, trxID string, amount decimal.Decimal, method models.PaymentMethod) models.Outcome {
	paid, ok := p.Decimal("amount")
	if !ok {
		return models.Failed(models.CodeInvalidResponse, "Backend confirmed payment without an amount")
	}
	// exact match, no rounding tolerance
	if !paid.Equal(amount) {
		return models.Failed(models.CodeAmountMismatch,
			"Amount does not match: expected "+amount.String()+", received "+paid.String()).WithTrxID(trxID)
	}

	if reported := p.String("payment_method"); reported != "" && models.NormalizePaymentMethod(reported) != string(method) {
		return models.Failed(models.CodePaymentMethodMismatch,
			"Payment was made with "+reported+", expected "+string(method)).WithTrxID(trxID)
	}

	if storeID, ok := p.Int("store_id"); ok && storeID != v.storeID {
		v.logger.Warn("Backend reported a different store",
			zap.Int("configured_store_id", v.storeID),
			zap.Int("reported_store_id", storeID),
		)
		return models.Failed(models.CodeStoreMismatch, "Transaction belongs to a different store").WithTrxID(trxID)
	}

	if trxID == "" {
		return models.Failed(models.CodeInvalidResponse, "Backend confirmed payment without a transaction ID")
	}

	return models.Confirmed(trxID, amount, method, v.storeID)
}

func messageOr(p models.RawPayload, fallback string) string {
	if msg := p.String("message"); msg != "" {
		return msg
	}
	return fallback
}
