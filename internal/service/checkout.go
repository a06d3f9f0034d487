package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/akylbek/payment-system/payment-verifier/internal/apperr"
	"github.com/akylbek/payment-system/payment-verifier/internal/interfaces"
	"github.com/akylbek/payment-system/payment-verifier/internal/models"
	"github.com/akylbek/payment-system/payment-verifier/internal/telemetry"
)

// Checkout wraps verification with the side effects a merchant
// application needs: pending orders, per-order locking, an audit trail
// and outcome events.
type Checkout struct {
	verifier   interfaces.PaymentVerifier
	store      interfaces.PendingOrderStore
	repo       interfaces.VerificationRepository
	publisher  interfaces.OutcomePublisher
	batchLimit int
	now        func() time.Time
}

func NewCheckout(
	verifier interfaces.PaymentVerifier,
	store interfaces.PendingOrderStore,
	repo interfaces.VerificationRepository,
	publisher interfaces.OutcomePublisher,
	batchLimit int,
) *Checkout {
	if batchLimit <= 0 {
		batchLimit = 4
	}
	return &Checkout{
		verifier:   verifier,
		store:      store,
		repo:       repo,
		publisher:  publisher,
		batchLimit: batchLimit,
		now:        time.Now,
	}
}

// Prepare remembers an order awaiting payment and returns the URL of its
// verification page.
func (c *Checkout) Prepare(ctx context.Context, orderID string, amount decimal.Decimal, paymentMethod string) (string, error) {
	if strings.TrimSpace(orderID) == "" {
		return "", fmt.Errorf("%w: order_id is required", apperr.ErrInvalidRequest)
	}
	if !amount.IsPositive() {
		return "", fmt.Errorf("%w: amount must be greater than zero", apperr.ErrInvalidRequest)
	}
	if !models.HasMinorUnitPrecision(amount) {
		return "", fmt.Errorf("%w: amount must have at most 2 decimal places", apperr.ErrInvalidRequest)
	}
	if !c.verifier.IsValidPaymentMethod(paymentMethod) {
		return "", fmt.Errorf("%w: invalid payment method %q", apperr.ErrInvalidRequest, paymentMethod)
	}
	method, _ := models.ParsePaymentMethod(paymentMethod)

	err := c.store.SavePending(ctx, models.PendingOrder{
		OrderID:       orderID,
		Amount:        amount,
		PaymentMethod: method,
		CreatedAt:     c.now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("save pending order: %w", err)
	}

	return VerifyURL(orderID), nil
}

func (c *Checkout) ClearPending(ctx context.Context, orderID string) error {
	return c.store.ClearPending(ctx, orderID)
}

// VerifyPending verifies a prepared order using the amount and method
// stored by Prepare.
func (c *Checkout) VerifyPending(ctx context.Context, orderID, trxID string) (models.Outcome, error) {
	pending, err := c.store.GetPending(ctx, orderID)
	if err != nil {
		return models.Outcome{}, err
	}

	return c.Verify(ctx, models.VerificationRequest{
		OrderID:       pending.OrderID,
		Amount:        pending.Amount,
		PaymentMethod: string(pending.PaymentMethod),
		TrxID:         trxID,
	})
}

// Verify runs one verification while holding the order's lock. The only
// errors are lock contention and lock store failures; everything else is
// carried by the outcome. Unsupported payment methods are answered
// without locking, auditing or publishing.
func (c *Checkout) Verify(ctx context.Context, req models.VerificationRequest) (models.Outcome, error) {
	if !c.verifier.IsValidPaymentMethod(req.PaymentMethod) {
		return c.verifier.Verify(ctx, req.OrderID, req.Amount, req.PaymentMethod, req.TrxID), nil
	}

	if strings.TrimSpace(req.OrderID) != "" {
		token, locked, err := c.store.AcquireLock(ctx, req.OrderID)
		if err != nil {
			return models.Outcome{}, fmt.Errorf("acquire verification lock: %w", err)
		}
		if !locked {
			return models.Outcome{}, fmt.Errorf("%w: order %s", apperr.ErrVerificationInProgress, req.OrderID)
		}
		defer func() {
			if err := c.store.ReleaseLock(context.WithoutCancel(ctx), req.OrderID, token); err != nil {
				telemetry.Logger.Warn("Failed to release verification lock",
					zap.String("order_id", req.OrderID),
					zap.Error(err),
				)
			}
		}()
	}

	outcome := c.verifier.Verify(ctx, req.OrderID, req.Amount, req.PaymentMethod, req.TrxID)

	telemetry.Logger.Info("Payment verification finished",
		zap.String("order_id", req.OrderID),
		zap.String("status", string(outcome.Status())),
		zap.String("error_code", outcome.ErrorCode()),
	)

	c.record(ctx, req, outcome)
	c.publish(ctx, req, outcome)

	if outcome.IsConfirmed() {
		if err := c.store.ClearPending(ctx, req.OrderID); err != nil {
			telemetry.Logger.Warn("Failed to clear pending order",
				zap.String("order_id", req.OrderID),
				zap.Error(err),
			)
		}
	}

	return outcome, nil
}

// VerifyBatch verifies independent requests concurrently. Results keep
// the order of reqs; requests that could not run become failed outcomes.
func (c *Checkout) VerifyBatch(ctx context.Context, reqs []models.VerificationRequest) []models.Outcome {
	results := make([]models.Outcome, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.batchLimit)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			outcome, err := c.Verify(gctx, req)
			if err != nil {
				outcome = models.Failed(apperr.Code(err), err.Error())
			}
			results[i] = outcome
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// History returns the audited attempts for an order, newest first.
func (c *Checkout) History(ctx context.Context, orderID string) ([]models.VerificationRecord, error) {
	return c.repo.ListByOrderID(ctx, orderID)
}

func (c *Checkout) record(ctx context.Context, req models.VerificationRequest, outcome models.Outcome) {
	trxID := outcome.TrxID()
	if trxID == "" {
		trxID = req.TrxID
	}

	err := c.repo.InsertAttempt(ctx, &models.VerificationRecord{
		ID:            uuid.NewString(),
		OrderID:       req.OrderID,
		PaymentMethod: models.NormalizePaymentMethod(req.PaymentMethod),
		Amount:        req.Amount,
		TrxID:         trxID,
		Status:        outcome.Status(),
		ErrorCode:     outcome.ErrorCode(),
		ErrorMessage:  outcome.ErrorMessage(),
		CreatedAt:     c.now().UTC(),
	})
	if err != nil {
		telemetry.Logger.Error("Failed to record verification attempt",
			zap.String("order_id", req.OrderID),
			zap.Error(err),
		)
	}
}

func (c *Checkout) publish(ctx context.Context, req models.VerificationRequest, outcome models.Outcome) {
	event := models.VerificationEvent{
		EventID:       uuid.NewString(),
		OrderID:       req.OrderID,
		Status:        outcome.Status(),
		TrxID:         outcome.TrxID(),
		Amount:        req.Amount.String(),
		PaymentMethod: models.NormalizePaymentMethod(req.PaymentMethod),
		StoreID:       outcome.StoreID(),
		ErrorCode:     outcome.ErrorCode(),
		Timestamp:     c.now().UTC(),
	}

	if err := c.publisher.PublishOutcome(ctx, event); err != nil {
		telemetry.Logger.Error("Failed to publish verification event",
			zap.String("order_id", req.OrderID),
			zap.Error(err),
		)
	}
}
