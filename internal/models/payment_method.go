package models

import (
	"fmt"
	"strings"
)

// PaymentMethod is one of the supported mobile-wallet rails.
type PaymentMethod string

const (
	MethodBkash  PaymentMethod = "bkash"
	MethodNagad  PaymentMethod = "nagad"
	MethodRocket PaymentMethod = "rocket"
	MethodUpay   PaymentMethod = "upay"
)

// AllPaymentMethods is the closed set of rails the gateway knows about,
// in display order.
var AllPaymentMethods = []PaymentMethod{MethodBkash, MethodNagad, MethodRocket, MethodUpay}

// NormalizePaymentMethod trims and lower-cases a raw method string.
func NormalizePaymentMethod(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ParsePaymentMethod normalizes raw and maps it onto a known method.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch m := PaymentMethod(NormalizePaymentMethod(raw)); m {
	case MethodBkash, MethodNagad, MethodRocket, MethodUpay:
		return m, nil
	default:
		return "", fmt.Errorf("unknown payment method %q", raw)
	}
}

func (m PaymentMethod) String() string { return string(m) }

// MethodInfo is display metadata for a payment method.
type MethodInfo struct {
	Name         string `json:"name"`
	Color        string `json:"color"`
	Icon         string `json:"icon"`
	Instructions string `json:"instructions"`
}

// Info returns the display metadata for m. Unknown methods get a zero value.
func (m PaymentMethod) Info() MethodInfo {
	switch m {
	case MethodBkash:
		return MethodInfo{Name: "bKash", Color: "#E2136E", Icon: "bkash", Instructions: "Send money to our bKash merchant number"}
	case MethodNagad:
		return MethodInfo{Name: "Nagad", Color: "#F6A623", Icon: "nagad", Instructions: "Send money to our Nagad merchant number"}
	case MethodRocket:
		return MethodInfo{Name: "Rocket", Color: "#8E44AD", Icon: "rocket", Instructions: "Send money to our Rocket merchant number"}
	case MethodUpay:
		return MethodInfo{Name: "Upay", Color: "#00A651", Icon: "upay", Instructions: "Send money to our Upay merchant number"}
	default:
		return MethodInfo{}
	}
}
