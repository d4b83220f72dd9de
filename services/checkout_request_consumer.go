package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Jacob59569/Fast-Api-Stripe/models"
	aws_pkg "github.com/Jacob59569/Fast-Api-Stripe/pkg/aws"
	"go.uber.org/zap"
)

// MessagePoller is the queue side of the consumer; *aws_pkg.SQSConsumer
// satisfies it.
type MessagePoller interface {
	StartPolling(ctx context.Context, handler aws_pkg.MessageHandler) error
}

// CheckoutRequestConsumer turns queued checkout requests into hosted
// checkout sessions and announces the outcome on the event bus.
type CheckoutRequestConsumer struct {
	poller    MessagePoller
	checkout  CheckoutService
	publisher EventPublisher
	metrics   *aws_pkg.MetricsClient
	logger    *zap.Logger
}

func NewCheckoutRequestConsumer(
	poller MessagePoller,
	checkout CheckoutService,
	publisher EventPublisher,
	metrics *aws_pkg.MetricsClient,
	logger *zap.Logger,
) *CheckoutRequestConsumer {
	return &CheckoutRequestConsumer{
		poller:    poller,
		checkout:  checkout,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Start blocks until ctx is cancelled.
func (c *CheckoutRequestConsumer) Start(ctx context.Context) {
	c.logger.Info("Starting CheckoutRequestConsumer (SQS)")

	err := c.poller.StartPolling(ctx, c.HandleMessage)
	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Error("SQS consumer error", zap.Error(err))
	}
}

// HandleMessage processes one queue body. A returned error leaves the message
// on the queue until the visibility timeout expires.
func (c *CheckoutRequestConsumer) HandleMessage(ctx context.Context, body string) error {
	_ = c.metrics.RecordCount(ctx, aws_pkg.MetricSQSMessages, map[string]string{"Service": ServiceName})

	var req models.CheckoutRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		c.logger.Warn("Invalid checkout request JSON", zap.Error(err))
		return err
	}
	if req.RequestID == "" {
		c.logger.Warn("Checkout request without request_id")
		return errors.New("checkout request without request_id")
	}

	sess, err := c.checkout.CreateCheckoutSession(ctx, req.Items, map[string]string{"request_id": req.RequestID})
	if err != nil {
		c.logger.Error("Failed to create checkout session for request",
			zap.String("request_id", req.RequestID), zap.Error(err))
		return c.publish(ctx, models.PaymentEvent{
			Type:      models.EventCheckoutSessionFailed,
			RequestID: req.RequestID,
			Error:     err.Error(),
			Timestamp: time.Now().UTC(),
		})
	}

	c.logger.Info("Checkout request processed",
		zap.String("request_id", req.RequestID),
		zap.String("session_id", sess.ID),
	)
	return c.publish(ctx, models.PaymentEvent{
		Type:        models.EventCheckoutSessionCreated,
		RequestID:   req.RequestID,
		SessionID:   sess.ID,
		CheckoutURL: sess.URL,
		Timestamp:   time.Now().UTC(),
	})
}

func (c *CheckoutRequestConsumer) publish(ctx context.Context, event models.PaymentEvent) error {
	if c.publisher == nil {
		return nil
	}
	if err := c.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}
