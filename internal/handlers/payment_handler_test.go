package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/payment-verifier/internal/apperr"
	"github.com/akylbek/payment-system/payment-verifier/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubCheckout struct {
	outcome models.Outcome
	err     error
	records []models.VerificationRecord

	lastReq   models.VerificationRequest
	lastTrxID string
	batch     []models.VerificationRequest
}

func (s *stubCheckout) Prepare(_ context.Context, orderID string, _ decimal.Decimal, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "/payments/" + orderID + "/verify", nil
}

func (s *stubCheckout) ClearPending(context.Context, string) error { return s.err }

func (s *stubCheckout) VerifyPending(_ context.Context, _ string, trxID string) (models.Outcome, error) {
	s.lastTrxID = trxID
	return s.outcome, s.err
}

func (s *stubCheckout) Verify(_ context.Context, req models.VerificationRequest) (models.Outcome, error) {
	s.lastReq = req
	return s.outcome, s.err
}

func (s *stubCheckout) VerifyBatch(_ context.Context, reqs []models.VerificationRequest) []models.Outcome {
	s.batch = reqs
	out := make([]models.Outcome, len(reqs))
	for i := range reqs {
		out[i] = s.outcome
	}
	return out
}

func (s *stubCheckout) History(context.Context, string) ([]models.VerificationRecord, error) {
	return s.records, s.err
}

type stubCatalog struct{}

func (stubCatalog) PaymentMethods() []models.PaymentMethod {
	return []models.PaymentMethod{models.MethodBkash, models.MethodNagad}
}

func (stubCatalog) PaymentMethodsInfo() map[models.PaymentMethod]models.MethodInfo {
	return map[models.PaymentMethod]models.MethodInfo{models.MethodBkash: models.MethodBkash.Info()}
}

func newTestRouter(co *stubCheckout) *gin.Engine {
	h := NewPaymentHandler(co, stubCatalog{})
	hh := NewVerificationHistoryHandler(co)

	r := gin.New()
	r.GET("/payments/methods", h.GetPaymentMethods)
	r.POST("/payments/prepare", h.PreparePayment)
	r.POST("/payments/verify", h.VerifyPayment)
	r.POST("/payments/verify/batch", h.VerifyBatch)
	r.GET("/payments/:order/verify", h.VerifyPendingPayment)
	r.DELETE("/payments/:order/pending", h.ClearPending)
	r.GET("/payments/:order/verifications", hh.GetVerifications)
	return r
}

func do(t *testing.T, r http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestVerifyPayment(t *testing.T) {
	t.Parallel()

	confirmed := models.Confirmed("TRX-1", decimal.RequireFromString("100"), models.MethodBkash, 1)

	tests := []struct {
		name       string
		outcome    models.Outcome
		err        error
		body       string
		wantStatus int
		wantBody   map[string]any
	}{
		{
			name:       "confirmed",
			outcome:    confirmed,
			body:       `{"order_id":"ORDER-1","amount":"100.00","payment_method":"bkash","trx_id":"TRX-1"}`,
			wantStatus: http.StatusOK,
			wantBody: map[string]any{
				"status": "confirmed", "trx_id": "TRX-1", "amount": "100.00", "payment_method": "bkash",
			},
		},
		{
			name:       "failed outcome is still 200",
			outcome:    models.Failed(models.CodeAmountMismatch, "Amount mismatch"),
			body:       `{"order_id":"ORDER-1","amount":100,"payment_method":"bkash"}`,
			wantStatus: http.StatusOK,
			wantBody: map[string]any{
				"status": "failed", "trx_id": nil, "amount": nil, "payment_method": nil,
				"error_code": models.CodeAmountMismatch, "error_message": "Amount mismatch",
			},
		},
		{
			name:       "in progress",
			err:        fmt.Errorf("%w: order ORDER-1", apperr.ErrVerificationInProgress),
			body:       `{"order_id":"ORDER-1","amount":"1","payment_method":"bkash"}`,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "malformed json",
			body:       `{"order_id":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing order id",
			body:       `{"amount":"1","payment_method":"bkash"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "lock store down",
			err:        errors.New("acquire verification lock: dial tcp: refused"),
			body:       `{"order_id":"ORDER-1","amount":"1","payment_method":"bkash"}`,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			co := &stubCheckout{outcome: tt.outcome, err: tt.err}
			w, body := do(t, newTestRouter(co), http.MethodPost, "/payments/verify", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != nil {
				assert.Equal(t, tt.wantBody, body)
			}
			if tt.wantStatus != http.StatusOK {
				assert.NotEmpty(t, body["error_code"])
			}
		})
	}
}

func TestVerifyPayment_PassesRequestThrough(t *testing.T) {
	t.Parallel()

	co := &stubCheckout{outcome: models.Pending("")}
	_, _ = do(t, newTestRouter(co), http.MethodPost, "/payments/verify",
		`{"order_id":"ORDER-9","amount":"12.50","payment_method":" Nagad ","trx_id":"T9"}`)

	assert.Equal(t, "ORDER-9", co.lastReq.OrderID)
	assert.True(t, decimal.RequireFromString("12.5").Equal(co.lastReq.Amount))
	assert.Equal(t, " Nagad ", co.lastReq.PaymentMethod)
	assert.Equal(t, "T9", co.lastReq.TrxID)
}

func TestPreparePayment(t *testing.T) {
	t.Parallel()

	co := &stubCheckout{}
	w, body := do(t, newTestRouter(co), http.MethodPost, "/payments/prepare",
		`{"order_id":"ORDER-1","amount":"50","payment_method":"rocket"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "ORDER-1", body["order_id"])
	assert.Equal(t, "/payments/ORDER-1/verify", body["verify_url"])
}

func TestPreparePayment_InvalidRequest(t *testing.T) {
	t.Parallel()

	co := &stubCheckout{err: fmt.Errorf("%w: amount must be greater than zero", apperr.ErrInvalidRequest)}
	w, body := do(t, newTestRouter(co), http.MethodPost, "/payments/prepare",
		`{"order_id":"ORDER-1","amount":"0","payment_method":"rocket"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.CodeInvalidRequest, body["error_code"])
}

func TestVerifyBatch(t *testing.T) {
	t.Parallel()

	co := &stubCheckout{outcome: models.Pending("Awaiting")}
	w, body := do(t, newTestRouter(co), http.MethodPost, "/payments/verify/batch",
		`{"items":[{"order_id":"A","amount":"1","payment_method":"bkash"},{"order_id":"B","amount":"2","payment_method":"upay"}]}`)

	require.Equal(t, http.StatusOK, w.Code)
	results, ok := body["results"].([]any)
	require.True(t, ok)
	assert.Len(t, results, 2)
	assert.Len(t, co.batch, 2)
}

func TestVerifyBatch_Validation(t *testing.T) {
	t.Parallel()

	for name, payload := range map[string]string{
		"empty items":   `{"items":[]}`,
		"missing items": `{}`,
		"bad item":      `{"items":[{"order_id":"","amount":"1","payment_method":"bkash"}]}`,
	} {
		payload := payload
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			co := &stubCheckout{}
			w, _ := do(t, newTestRouter(co), http.MethodPost, "/payments/verify/batch", payload)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Nil(t, co.batch)
		})
	}
}

func TestVerifyPendingPayment(t *testing.T) {
	t.Parallel()

	co := &stubCheckout{outcome: models.Expired("TRX-2")}
	w, body := do(t, newTestRouter(co), http.MethodGet, "/payments/ORDER-2/verify?trx_id=TRX-2", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "expired", body["status"])
	assert.Equal(t, "TRX-2", co.lastTrxID)
}

func TestVerifyPendingPayment_NotFound(t *testing.T) {
	t.Parallel()

	co := &stubCheckout{err: fmt.Errorf("%w: ORDER-3", apperr.ErrPendingNotFound)}
	w, _ := do(t, newTestRouter(co), http.MethodGet, "/payments/ORDER-3/verify", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClearPending(t *testing.T) {
	t.Parallel()

	w, _ := do(t, newTestRouter(&stubCheckout{}), http.MethodDelete, "/payments/ORDER-1/pending", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestGetPaymentMethods(t *testing.T) {
	t.Parallel()

	w, body := do(t, newTestRouter(&stubCheckout{}), http.MethodGet, "/payments/methods", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"bkash", "nagad"}, body["methods"])
	info, ok := body["info"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, info, "bkash")
}

func TestGetVerifications(t *testing.T) {
	t.Parallel()

	co := &stubCheckout{records: []models.VerificationRecord{{
		ID:            "rec-1",
		OrderID:       "ORDER-1",
		PaymentMethod: "bkash",
		Amount:        decimal.RequireFromString("10"),
		Status:        models.StatusPending,
		CreatedAt:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}}}
	w, body := do(t, newTestRouter(co), http.MethodGet, "/payments/ORDER-1/verifications", "")

	require.Equal(t, http.StatusOK, w.Code)
	items, ok := body["verifications"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "10.00", item["amount"])
	assert.Equal(t, "pending", item["status"])
}

func TestGetVerifications_Empty(t *testing.T) {
	t.Parallel()

	w, _ := do(t, newTestRouter(&stubCheckout{}), http.MethodGet, "/payments/ORDER-1/verifications", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}
