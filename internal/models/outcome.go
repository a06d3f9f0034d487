package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// VerificationStatus is the classification of a verification attempt.
type VerificationStatus string

const (
	StatusConfirmed VerificationStatus = "confirmed"
	StatusPending   VerificationStatus = "pending"
	StatusUsed      VerificationStatus = "used"
	StatusExpired   VerificationStatus = "expired"
	StatusFailed    VerificationStatus = "failed"
)

// Machine-readable error codes carried by non-confirmed outcomes.
const (
	CodeInvalidPaymentMethod   = "INVALID_PAYMENT_METHOD"
	CodeInvalidOrderID         = "INVALID_ORDER_ID"
	CodeInvalidAmount          = "INVALID_AMOUNT"
	CodeAmountMismatch         = "AMOUNT_MISMATCH"
	CodePaymentMethodMismatch  = "PAYMENT_METHOD_MISMATCH"
	CodeStoreMismatch          = "STORE_MISMATCH"
	CodeTransactionAlreadyUsed = "TRANSACTION_ALREADY_USED"
	CodeTransactionExpired     = "TRANSACTION_EXPIRED"
	CodeTransactionNotFound    = "TRANSACTION_NOT_FOUND"
	CodeInvalidResponse        = "INVALID_RESPONSE"
	CodeVerificationFailed     = "VERIFICATION_FAILED"
	CodeConnectionError        = "CONNECTION_ERROR"
	CodeAuthError              = "AUTH_ERROR"
	CodeConfigurationError     = "CONFIGURATION_ERROR"
	CodeVerificationInProgress = "VERIFICATION_IN_PROGRESS"
	CodeInvalidRequest         = "INVALID_REQUEST"
	CodeInternalError          = "INTERNAL_ERROR"
)

// Outcome is the immutable result of one verification attempt.
//
// The status decides which fields are populated: only confirmed outcomes
// carry amount, payment method and store ID, and every outcome other than
// confirmed and pending carries an error code. Outcomes are plain values;
// build them with the constructors below.
type Outcome struct {
	status        VerificationStatus
	trxID         string
	amount        decimal.Decimal
	paymentMethod PaymentMethod
	storeID       int
	errorCode     string
	errorMessage  string
}

// Confirmed reports a received payment matching the order.
func Confirmed(trxID string, amount decimal.Decimal, method PaymentMethod, storeID int) Outcome {
	return Outcome{
		status:        StatusConfirmed,
		trxID:         trxID,
		amount:        amount,
		paymentMethod: method,
		storeID:       storeID,
	}
}

// Pending reports a payment still awaiting settlement. note may be empty.
func Pending(note string) Outcome {
	return Outcome{status: StatusPending, errorMessage: note}
}

// AlreadyUsed reports a transaction consumed by an earlier verification.
func AlreadyUsed(trxID string) Outcome {
	return Outcome{
		status:       StatusUsed,
		trxID:        trxID,
		errorCode:    CodeTransactionAlreadyUsed,
		errorMessage: "Transaction has already been used",
	}
}

// Expired reports a transaction whose verification window has lapsed.
func Expired(trxID string) Outcome {
	return Outcome{
		status:       StatusExpired,
		trxID:        trxID,
		errorCode:    CodeTransactionExpired,
		errorMessage: "Transaction has expired",
	}
}

// Failed is a generic failure with a caller supplied code and message.
func Failed(code, message string) Outcome {
	return Outcome{status: StatusFailed, errorCode: code, errorMessage: message}
}

// WithTrxID returns a copy of a failed outcome carrying the backend
// transaction ID. Other statuses are returned unchanged.
func (o Outcome) WithTrxID(trxID string) Outcome {
	if o.status == StatusFailed {
		o.trxID = trxID
	}
	return o
}

func (o Outcome) IsConfirmed() bool { return o.status == StatusConfirmed }
func (o Outcome) IsPending() bool { return o.status == StatusPending }

// IsFailed is true for used, expired and failed outcomes.
func (o Outcome) IsFailed() bool { return !o.IsConfirmed() && !o.IsPending() }

func (o Outcome) Status() VerificationStatus { return o.status }
func (o Outcome) TrxID() string { return o.trxID }
func (o Outcome) Amount() decimal.Decimal { return o.amount }
func (o Outcome) PaymentMethod() PaymentMethod { return o.paymentMethod }
func (o Outcome) StoreID() int { return o.storeID }
func (o Outcome) ErrorCode() string { return o.errorCode }
func (o Outcome) ErrorMessage() string { return o.errorMessage }

// HasMinorUnitPrecision reports whether amount has at most two decimal
// places, the precision of every supported wallet.
func HasMinorUnitPrecision(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(2))
}

// formatAmount renders two decimals and never rounds away digits.
func formatAmount(amount decimal.Decimal) string {
	if HasMinorUnitPrecision(amount) {
		return amount.StringFixed(2)
	}
	return amount.String()
}

// ToMap is the public serialized shape consumed by presentation layers.
// Absent fields are nil; error fields appear only when set.
func (o Outcome) ToMap() map[string]any {
	m := map[string]any{
		"status":         string(o.status),
		"trx_id":         nil,
		"amount":         nil,
		"payment_method": nil,
	}
	if o.trxID != "" {
		m["trx_id"] = o.trxID
	}
	if o.IsConfirmed() {
		m["amount"] = formatAmount(o.amount)
		m["payment_method"] = string(o.paymentMethod)
	}
	if o.errorCode != "" {
		m["error_code"] = o.errorCode
	}
	if o.errorMessage != "" {
		m["error_message"] = o.errorMessage
	}
	return m
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.ToMap())
}
