package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/payment-verifier/internal/models"
)

type verifyCall struct {
	orderID string
	amount  decimal.Decimal
	method  models.PaymentMethod
	trxID   string
}

type stubVerifier struct {
	mu      sync.Mutex
	outcome models.Outcome
	calls   []verifyCall
}

func (s *stubVerifier) Verify(_ context.Context, orderID string, amount decimal.Decimal, method models.PaymentMethod, trxID string) models.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, verifyCall{orderID: orderID, amount: amount, method: method, trxID: trxID})
	return s.outcome
}

func (s *stubVerifier) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func TestOrchestrator_InvalidPaymentMethod(t *testing.T) {
	t.Parallel()

	for _, method := range []string{"invalid_method", "paypal", " MasterCard ", ""} {
		method := method
		t.Run(method, func(t *testing.T) {
			t.Parallel()

			v := &stubVerifier{}
			o := NewOrchestrator(v, nil)

			got := o.Verify(context.Background(), "ORDER-1", dec("100.00"), method, "")

			assert.True(t, got.IsFailed())
			assert.Equal(t, models.CodeInvalidPaymentMethod, got.ErrorCode())
			assert.Contains(t, got.ErrorMessage(), "Supported: bkash, nagad, rocket, upay")
			assert.Zero(t, v.callCount())
		})
	}
}

func TestOrchestrator_MethodOutsideAllowList(t *testing.T) {
	t.Parallel()

	v := &stubVerifier{}
	o := NewOrchestrator(v, []models.PaymentMethod{models.MethodBkash})

	got := o.Verify(context.Background(), "ORDER-1", dec("100"), "nagad", "")

	assert.Equal(t, models.CodeInvalidPaymentMethod, got.ErrorCode())
	assert.Contains(t, got.ErrorMessage(), "Supported: bkash")
	assert.Zero(t, v.callCount())
}

func TestOrchestrator_InputValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		orderID  string
		amount   string
		wantCode string
	}{
		{name: "empty_order", orderID: "", amount: "100", wantCode: models.CodeInvalidOrderID},
		{name: "blank_order", orderID: "   ", amount: "100", wantCode: models.CodeInvalidOrderID},
		{name: "zero_amount", orderID: "ORDER-1", amount: "0", wantCode: models.CodeInvalidAmount},
		{name: "negative_amount", orderID: "ORDER-1", amount: "-5", wantCode: models.CodeInvalidAmount},
		{name: "sub_cent_amount", orderID: "ORDER-1", amount: "100.005", wantCode: models.CodeInvalidAmount},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := &stubVerifier{}
			got := NewOrchestrator(v, nil).Verify(context.Background(), tt.orderID, dec(tt.amount), "bkash", "")

			assert.Equal(t, models.StatusFailed, got.Status())
			assert.Equal(t, tt.wantCode, got.ErrorCode())
			assert.Zero(t, v.callCount())
		})
	}
}

func TestOrchestrator_DelegatesNormalizedMethod(t *testing.T) {
	t.Parallel()

	v := &stubVerifier{outcome: models.Pending("")}
	o := NewOrchestrator(v, nil)

	got := o.Verify(context.Background(), "ORDER-1", dec("100.00"), "BKASH", "")

	assert.True(t, got.IsPending())
	require.Len(t, v.calls, 1)
	assert.Equal(t, "ORDER-1", v.calls[0].orderID)
	assert.True(t, v.calls[0].amount.Equal(dec("100")))
	assert.Equal(t, models.MethodBkash, v.calls[0].method)
	assert.Empty(t, v.calls[0].trxID)
}

func TestOrchestrator_PassesTrxID(t *testing.T) {
	t.Parallel()

	confirmed := models.Confirmed("TRX1", dec("50"), models.MethodUpay, 1)
	v := &stubVerifier{outcome: confirmed}

	got := NewOrchestrator(v, nil).Verify(context.Background(), "ORDER-2", dec("50"), " Upay ", "TRX1")

	assert.Equal(t, confirmed, got)
	require.Len(t, v.calls, 1)
	assert.Equal(t, models.MethodUpay, v.calls[0].method)
	assert.Equal(t, "TRX1", v.calls[0].trxID)
}

func TestOrchestrator_PaymentMethods(t *testing.T) {
	t.Parallel()

	o := NewOrchestrator(&stubVerifier{}, nil)

	methods := o.PaymentMethods()
	assert.ElementsMatch(t, []models.PaymentMethod{models.MethodBkash, models.MethodNagad, models.MethodRocket, models.MethodUpay}, methods)

	methods[0] = "mutated"
	assert.Equal(t, models.MethodBkash, o.PaymentMethods()[0])
}

func TestOrchestrator_IsValidPaymentMethod(t *testing.T) {
	t.Parallel()

	o := NewOrchestrator(&stubVerifier{}, nil)

	for _, m := range []string{"bkash", "BKASH", " bkash ", "nagad", "Rocket", "upay"} {
		assert.True(t, o.IsValidPaymentMethod(m), m)
	}
	for _, m := range []string{"paypal", "mastercard", ""} {
		assert.False(t, o.IsValidPaymentMethod(m), m)
	}
}

func TestOrchestrator_PaymentMethodsInfo(t *testing.T) {
	t.Parallel()

	info := NewOrchestrator(&stubVerifier{}, []models.PaymentMethod{models.MethodBkash}).PaymentMethodsInfo()

	assert.Len(t, info, 4)
	assert.Equal(t, "#E2136E", info[models.MethodBkash].Color)
	assert.Equal(t, "Upay", info[models.MethodUpay].Name)
}

func TestNewOrchestrator_NilVerifierPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewOrchestrator(nil, nil) })
}

func TestVerifyURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/payments/ORDER-1/verify", VerifyURL("ORDER-1"))
	assert.Equal(t, "/payments/A%2FB/verify", VerifyURL("A/B"))
}
