package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/akylbek/payment-system/payment-verifier/internal/models"
)

// CheckoutService is the merchant-facing flow served over HTTP.
type CheckoutService interface {
	Prepare(ctx context.Context, orderID string, amount decimal.Decimal, paymentMethod string) (string, error)
	ClearPending(ctx context.Context, orderID string) error
	VerifyPending(ctx context.Context, orderID, trxID string) (models.Outcome, error)
	Verify(ctx context.Context, req models.VerificationRequest) (models.Outcome, error)
	VerifyBatch(ctx context.Context, reqs []models.VerificationRequest) []models.Outcome
	History(ctx context.Context, orderID string) ([]models.VerificationRecord, error)
}

type MethodCatalog interface {
	PaymentMethods() []models.PaymentMethod
	PaymentMethodsInfo() map[models.PaymentMethod]models.MethodInfo
}
