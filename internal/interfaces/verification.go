package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/akylbek/payment-system/payment-verifier/internal/models"
)

// VerificationClient performs the remote transaction lookup.
type VerificationClient interface {
	VerifyTransaction(ctx context.Context, orderID string, amount decimal.Decimal, method models.PaymentMethod, trxID string) (models.RawPayload, error)
}

// TransactionVerifier classifies a remote lookup into an Outcome and never fails.
type TransactionVerifier interface {
	Verify(ctx context.Context, orderID string, amount decimal.Decimal, method models.PaymentMethod, trxID string) models.Outcome
}

// PaymentVerifier is the caller-facing verification contract.
type PaymentVerifier interface {
	Verify(ctx context.Context, orderID string, amount decimal.Decimal, paymentMethod, trxID string) models.Outcome
	IsValidPaymentMethod(method string) bool
}
