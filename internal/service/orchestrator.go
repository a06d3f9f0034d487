package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/akylbek/payment-system/payment-verifier/internal/interfaces"
	"github.com/akylbek/payment-system/payment-verifier/internal/models"
	"github.com/akylbek/payment-system/payment-verifier/internal/telemetry"
)

// Orchestrator is the entry point for payment verification. It validates
// and normalizes caller input and short-circuits invalid requests without
// touching the network.
type Orchestrator struct {
	verifier interfaces.TransactionVerifier
	methods  []models.PaymentMethod
	allowed  map[models.PaymentMethod]bool
}

// NewOrchestrator restricts verification to methods. An empty allow-list
// means every supported method.
func NewOrchestrator(verifier interfaces.TransactionVerifier, methods []models.PaymentMethod) *Orchestrator {
	if verifier == nil {
		panic("service.NewOrchestrator: nil verifier")
	}
	if len(methods) == 0 {
		methods = models.AllPaymentMethods
	}

	allowed := make(map[models.PaymentMethod]bool, len(methods))
	for _, m := range methods {
		allowed[m] = true
	}
	return &Orchestrator{
		verifier: verifier,
		methods:  append([]models.PaymentMethod(nil), methods...),
		allowed:  allowed,
	}
}

// Verify checks that an order has been paid with the given method.
// trxID may be empty, in which case the backend looks the payment up by
// order ID.
func (o *Orchestrator) Verify(
	ctx context.Context,
	orderID string,
	amount decimal.Decimal,
	paymentMethod string,
	trxID string,
) models.Outcome {
	ctx, span := telemetry.Tracer.Start(ctx, "payment.verify")
	defer span.End()

	normalized := models.NormalizePaymentMethod(paymentMethod)
	span.SetAttributes(
		attribute.String("payment.order_id", orderID),
		attribute.String("payment.method", normalized),
	)

	outcome, label := o.verify(ctx, orderID, amount, normalized, trxID)

	span.SetAttributes(attribute.String("payment.status", string(outcome.Status())))
	telemetry.VerificationsTotal.WithLabelValues(label, string(outcome.Status())).Inc()
	return outcome
}

func (o *Orchestrator) verify(
	ctx context.Context,
	orderID string,
	amount decimal.Decimal,
	normalized string,
	trxID string,
) (models.Outcome, string) {
	if !o.IsValidPaymentMethod(normalized) {
		return models.Failed(
			models.CodeInvalidPaymentMethod,
			fmt.Sprintf("Invalid payment method: %s. Supported: %s", normalized, o.supportedList()),
		), "invalid"
	}

	if strings.TrimSpace(orderID) == "" {
		return models.Failed(models.CodeInvalidOrderID, "Order ID is required"), normalized
	}

	if !amount.IsPositive() {
		return models.Failed(models.CodeInvalidAmount, "Amount must be greater than zero"), normalized
	}

	if !models.HasMinorUnitPrecision(amount) {
		return models.Failed(models.CodeInvalidAmount, "Amount must have at most 2 decimal places"), normalized
	}

	return o.verifier.Verify(ctx, orderID, amount, models.PaymentMethod(normalized), trxID), normalized
}

// PaymentMethods returns the configured allow-list.
func (o *Orchestrator) PaymentMethods() []models.PaymentMethod {
	return append([]models.PaymentMethod(nil), o.methods...)
}

// IsValidPaymentMethod is case and whitespace insensitive.
func (o *Orchestrator) IsValidPaymentMethod(method string) bool {
	m, err := models.ParsePaymentMethod(method)
	if err != nil {
		return false
	}
	return o.allowed[m]
}

// PaymentMethodsInfo returns display metadata for every supported method.
func (o *Orchestrator) PaymentMethodsInfo() map[models.PaymentMethod]models.MethodInfo {
	info := make(map[models.PaymentMethod]models.MethodInfo, len(models.AllPaymentMethods))
	for _, m := range models.AllPaymentMethods {
		info[m] = m.Info()
	}
	return info
}

func (o *Orchestrator) supportedList() string {
	names := make([]string, len(o.methods))
	for i, m := range o.methods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// VerifyURL is the relative URL of the verification page for an order.
func VerifyURL(orderID string) string {
	return "/payments/" + url.PathEscape(orderID) + "/verify"
}
