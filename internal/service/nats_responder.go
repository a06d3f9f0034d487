package service

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/akylbek/payment-system/payment-verifier/internal/apperr"
	"github.com/akylbek/payment-system/payment-verifier/internal/models"
	"github.com/akylbek/payment-system/payment-verifier/internal/telemetry"
)

const (
	VerifySubject    = "payment.verify"
	verifyQueueGroup = "payment-verifier"
)

// NATSResponder answers verification requests published on NATS with the
// JSON outcome map. Requests are handled by up to concurrency workers so a
// slow lookup does not hold up the rest of the subscription.
type NATSResponder struct {
	checkout *Checkout
	timeout  time.Duration
	workers  *errgroup.Group
}

func NewNATSResponder(checkout *Checkout, timeout time.Duration, concurrency int) *NATSResponder {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	workers := &errgroup.Group{}
	workers.SetLimit(concurrency)
	return &NATSResponder{checkout: checkout, timeout: timeout, workers: workers}
}

// Subscribe registers the responder in the shared queue group so replicas
// split the load.
func (r *NATSResponder) Subscribe(nc *nats.Conn, subject string) (*nats.Subscription, error) {
	if subject == "" {
		subject = VerifySubject
	}
	return nc.QueueSubscribe(subject, verifyQueueGroup, func(msg *nats.Msg) {
		r.dispatch(msg.Subject, msg.Reply, msg.Data, msg.Respond)
	})
}

// Wait blocks until every dispatched request has been answered.
func (r *NATSResponder) Wait() {
	_ = r.workers.Wait()
}

// dispatch hands the request to a worker, blocking only while all workers
// are busy.
func (r *NATSResponder) dispatch(subject, reply string, data []byte, respond func([]byte) error) {
	r.workers.Go(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		body := r.answer(ctx, data)
		if reply == "" {
			return nil
		}
		if err := respond(body); err != nil {
			telemetry.Logger.Error("Failed to respond to NATS verification request",
				zap.String("subject", subject),
				zap.Error(err),
			)
		}
		return nil
	})
}

func (r *NATSResponder) answer(ctx context.Context, data []byte) []byte {
	var req models.VerificationRequest

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&req); err != nil {
		telemetry.Logger.Warn("Malformed NATS verification request", zap.Error(err))
		return encodeOutcome(models.Failed(models.CodeInvalidRequest, "Malformed verification request: "+err.Error()))
	}

	outcome, err := r.checkout.Verify(ctx, req)
	if err != nil {
		outcome = models.Failed(apperr.Code(err), err.Error())
	}
	return encodeOutcome(outcome)
}

func encodeOutcome(outcome models.Outcome) []byte {
	body, err := json.Marshal(outcome)
	if err != nil {
		// ToMap only holds strings and nil
		return []byte(`{"status":"failed","error_code":"INTERNAL_ERROR"}`)
	}
	return body
}
