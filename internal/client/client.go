// Package client talks to the VendWeave POS transaction lookup API.
//
// The client performs exactly one authenticated round trip per call and
// never retries. HTTP error statuses are inspected rather than treated as
// transport failures: 401 and 5xx become typed errors, everything else is
// handed back as a decoded payload for the verifier to interpret.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/akylbek/payment-system/payment-verifier/internal/apperr"
	"github.com/akylbek/payment-system/payment-verifier/internal/config"
	"github.com/akylbek/payment-system/payment-verifier/internal/models"
	"github.com/akylbek/payment-system/payment-verifier/internal/telemetry"
)

const (
	verifyPath      = "/transactions/verify"
	redactedValue   = "***REDACTED***"
	maxResponseSize = 1 << 20
)

var sensitiveKeys = map[string]bool{
	"api_key":    true,
	"api_secret": true,
	"secret":     true,
	"password":   true,
}

type Client struct {
	endpoint   string
	apiKey     string
	apiSecret  string
	storeID    int
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	logEnabled bool
}

type Option func(*Client)

// WithHTTPClient replaces the transport built from the gateway timeouts.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New builds a client from read-only gateway configuration. It never fails:
// missing credentials are reported by each VerifyTransaction call.
func New(cfg config.GatewayConfig, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = telemetry.Logger
	}
	channel := cfg.Logging.Channel
	if channel == "" {
		channel = "stack"
	}

	c := &Client{
		endpoint:   config.NormalizeEndpoint(cfg.Endpoint),
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		storeID:    cfg.StoreID,
		httpClient: newHTTPClient(cfg.ConnectTimeout, cfg.Timeout),
		logger:     logger.Named(channel),
		logEnabled: cfg.Logging.Enabled,
	}
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newHTTPClient(connectTimeout, timeout time.Duration) *http.Client {
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	dialer := &net.Dialer{Timeout: connectTimeout}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	transport.TLSHandshakeTimeout = connectTimeout

	return &http.Client{Transport: transport, Timeout: timeout}
}

// StoreID is the store whose credentials this client presents.
func (c *Client) StoreID() int {
	return c.storeID
}

// VerifyTransaction looks a payment up on the POS backend. A non-empty
// trxID switches the backend from order based to transaction based lookup.
//
// Returned errors wrap apperr.ErrMissingCredentials, apperr.ErrAuthentication
// or apperr.ErrConnection.
func (c *Client) VerifyTransaction(
	ctx context.Context,
	orderID string,
	amount decimal.Decimal,
	method models.PaymentMethod,
	trxID string,
) (models.RawPayload, error) {
	if err := c.validateCredentials(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("order_id", orderID)
	params.Set("amount", amount.String())
	params.Set("payment_method", string(method))
	if trxID != "" {
		params.Set("trx_id", trxID)
	}

	ctx, span := telemetry.Tracer.Start(ctx, "vendweave.verify_transaction")
	defer span.End()
	span.SetAttributes(
		attribute.String("payment.order_id", orderID),
		attribute.String("payment.method", string(method)),
		attribute.Bool("payment.trx_lookup", trxID != ""),
	)

	payload, err := c.request(ctx, http.MethodGet, verifyPath, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.status_code", payload.HTTPStatus()))
	return payload, nil
}

func (c *Client) validateCredentials() error {
	switch {
	case c.apiKey == "":
		return fmt.Errorf("%w: VENDWEAVE_API_KEY is not configured", apperr.ErrMissingCredentials)
	case c.apiSecret == "":
		return fmt.Errorf("%w: VENDWEAVE_API_SECRET is not configured", apperr.ErrMissingCredentials)
	case c.storeID == 0:
		return fmt.Errorf("%w: VENDWEAVE_STORE_ID is not configured", apperr.ErrMissingCredentials)
	}
	return nil
}

func (c *Client) request(ctx context.Context, method, path string, params url.Values) (models.RawPayload, error) {
	c.log(zapcore.InfoLevel, "API Request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Any("params", sanitizeForLog(valuesToMap(params))),
	)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limit wait: %w", apperr.ErrConnection, err)
		}
	}

	req, err := c.newRequest(ctx, method, path, params)
	if err != nil {
		c.log(zapcore.ErrorLevel, "API Request Failed", zap.Error(err))
		return nil, fmt.Errorf("%w: API request failed: %w", apperr.ErrConnection, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.RemoteDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		if isConnectError(err) {
			c.log(zapcore.ErrorLevel, "API Connection Failed", zap.Error(err))
			return nil, fmt.Errorf("%w: unable to connect to VendWeave POS API: %w", apperr.ErrConnection, err)
		}
		c.log(zapcore.ErrorLevel, "API Request Failed", zap.Error(err))
		return nil, fmt.Errorf("%w: API request failed: %w", apperr.ErrConnection, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	telemetry.RemoteDuration.WithLabelValues(strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	data := decodeBody(body)

	c.log(zapcore.InfoLevel, "API Response",
		zap.Int("status_code", resp.StatusCode),
		zap.Any("response", sanitizeForLog(data)),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, apperr.ErrAuthentication
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		msg := data.String("message")
		if msg == "" {
			msg = "Unknown error"
		}
		return nil, fmt.Errorf("%w: POS API returned server error: %s", apperr.ErrConnection, msg)
	}

	data[models.HTTPStatusKey] = resp.StatusCode
	return data, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, params url.Values) (*http.Request, error) {
	target := c.endpoint + path

	var body io.Reader
	if method == http.MethodGet {
		target += "?" + params.Encode()
	} else {
		b, err := json.Marshal(valuesToMap(params))
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Store-Secret", c.apiSecret)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	return req, nil
}

func (c *Client) log(level zapcore.Level, msg string, fields ...zap.Field) {
	if !c.logEnabled {
		return
	}
	c.logger.Log(level, "[VendWeave] "+msg, fields...)
}

// decodeBody never fails: empty or malformed bodies and non-object JSON
// all decode to an empty payload.
func decodeBody(body []byte) models.RawPayload {
	data := models.RawPayload{}
	if len(bytes.TrimSpace(body)) == 0 {
		return data
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil || data == nil {
		return models.RawPayload{}
	}
	return data
}

// sanitizeForLog redacts sensitive top-level keys. Nested maps are not
// inspected.
func sanitizeForLog(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if sensitiveKeys[strings.ToLower(k)] {
			out[k] = redactedValue
			continue
		}
		out[k] = v
	}
	return out
}

func valuesToMap(v url.Values) map[string]any {
	m := make(map[string]any, len(v))
	for k := range v {
		m[k] = v.Get(k)
	}
	return m
}

// isConnectError reports failures that happened before any response:
// DNS, dial and timeouts.
func isConnectError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
