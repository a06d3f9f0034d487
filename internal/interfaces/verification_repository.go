package interfaces

import (
	"context"

	"github.com/akylbek/payment-system/payment-verifier/internal/models"
)

// VerificationRepository defines the contract for the verification audit trail
type VerificationRepository interface {
	InsertAttempt(ctx context.Context, record *models.VerificationRecord) error
	ListByOrderID(ctx context.Context, orderID string) ([]models.VerificationRecord, error)
}

// PendingOrderStore keeps prepared orders between checkout and verification
// and serializes verifications of the same order.
type PendingOrderStore interface {
	SavePending(ctx context.Context, order models.PendingOrder) error
	GetPending(ctx context.Context, orderID string) (*models.PendingOrder, error)
	ClearPending(ctx context.Context, orderID string) error
	AcquireLock(ctx context.Context, orderID string) (token string, ok bool, err error)
	ReleaseLock(ctx context.Context, orderID, token string) error
}

// OutcomePublisher announces finished verifications to other services.
type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, event models.VerificationEvent) error
}
