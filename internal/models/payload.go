package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// HTTPStatusKey is merged into every decoded backend payload.
const HTTPStatusKey = "_http_status"

// RawPayload is a decoded backend response body. Numbers are kept as
// json.Number so amounts survive decoding without float rounding.
type RawPayload map[string]any

// HTTPStatus returns the injected HTTP status code, or 0 if absent.
func (p RawPayload) HTTPStatus() int {
	n, _ := p.Int(HTTPStatusKey)
	return n
}

// String returns the value under key rendered as a trimmed string.
// Missing and null values yield "".
func (p RawPayload) String(key string) string {
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Decimal parses the value under key as an exact decimal.
func (p RawPayload) Decimal(key string) (decimal.Decimal, bool) {
	s := p.String(key)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Int parses the value under key as an integer.
func (p RawPayload) Int(key string) (int, bool) {
	if v, ok := p[key].(int); ok {
		return v, true
	}
	s := p.String(key)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
