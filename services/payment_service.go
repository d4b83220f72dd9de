package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	apperrors "github.com/Jacob59569/Fast-Api-Stripe/common/errors"
	"github.com/Jacob59569/Fast-Api-Stripe/common/logger"
	"github.com/Jacob59569/Fast-Api-Stripe/models"
	aws_pkg "github.com/Jacob59569/Fast-Api-Stripe/pkg/aws"
	"github.com/Jacob59569/Fast-Api-Stripe/repository"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

const ServiceName = "checkout-service"

const eventCheckoutSessionCompleted = "checkout.session.completed"

// WebhookOutcome says what a verified webhook led to.
type WebhookOutcome string

const (
	WebhookRecorded  WebhookOutcome = "recorded"
	WebhookDuplicate WebhookOutcome = "duplicate"
	WebhookIgnored   WebhookOutcome = "ignored"
)

type WebhookResult struct {
	Outcome   WebhookOutcome
	EventID   string
	EventType string
	Payment   *models.Payment
}

type PaymentService interface {
	HandleWebhook(ctx context.Context, payload []byte, sigHeader string) (*WebhookResult, error)
	ListPayments(ctx context.Context) ([]models.Payment, error)
}

type paymentServiceImpl struct {
	verifier  WebhookVerifier
	repo      repository.PaymentRepository
	publisher EventPublisher
	metrics   *aws_pkg.MetricsClient
	logger    *zap.Logger
}

// NewPaymentService wires the webhook flow. publisher may be nil.
func NewPaymentService(
	verifier WebhookVerifier,
	repo repository.PaymentRepository,
	publisher EventPublisher,
	metrics *aws_pkg.MetricsClient,
	logger *zap.Logger,
) PaymentService {
	return &paymentServiceImpl{
		verifier:  verifier,
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// HandleWebhook verifies the signature before anything else; an unverified
// body never reaches the store.
func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) (*WebhookResult, error) {
	log := logger.FromContext(ctx, s.logger)

	event, err := s.verifier.ConstructEvent(payload, sigHeader)
	if err != nil {
		log.Warn("Stripe webhook signature verification failed", zap.Error(err))
		return nil, apperrors.ErrInvalidSignature.Wrap(err)
	}

	result := &WebhookResult{EventID: event.ID, EventType: string(event.Type), Outcome: WebhookIgnored}
	log.Info("Processing Stripe webhook",
		zap.String("event_type", result.EventType),
		zap.String("event_id", result.EventID),
	)

	if result.EventType != eventCheckoutSessionCompleted {
		log.Info("Unhandled webhook event type", zap.String("event_type", result.EventType))
		return result, nil
	}

	payment, err := paymentFromEvent(event, payload)
	if err != nil {
		log.Error("Failed to decode checkout session", zap.String("event_id", event.ID), zap.Error(err))
		return nil, apperrors.ErrInvalidEvent.Wrap(err)
	}

	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrDuplicatePayment) {
			log.Info("Skipping duplicate checkout webhook", zap.String("session_id", payment.SessionID))
			result.Outcome = WebhookDuplicate
			existing, lookupErr := s.repo.GetPaymentBySessionID(ctx, payment.SessionID)
			if lookupErr != nil {
				log.Warn("Failed to load recorded payment", zap.String("session_id", payment.SessionID), zap.Error(lookupErr))
			}
			result.Payment = existing
			return result, nil
		}
		log.Error("Failed to record payment", zap.String("session_id", payment.SessionID), zap.Error(err))
		return nil, apperrors.ErrDatabaseQuery.Wrap(err)
	}

	log.Info("Payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("session_id", payment.SessionID),
		zap.Int64("amount", payment.Amount),
		zap.String("currency", payment.Currency),
	)
	_ = s.metrics.RecordCount(ctx, aws_pkg.MetricPaymentSucceeded, map[string]string{"Service": ServiceName, "Currency": payment.Currency})
	s.publish(ctx, log, payment)

	result.Outcome = WebhookRecorded
	result.Payment = payment
	return result, nil
}

func (s *paymentServiceImpl) ListPayments(ctx context.Context) ([]models.Payment, error) {
	payments, err := s.repo.ListPayments(ctx)
	if err != nil {
		logger.FromContext(ctx, s.logger).Error("Failed to list payments", zap.Error(err))
		return nil, apperrors.ErrDatabaseQuery.Wrap(err)
	}
	return payments, nil
}

func (s *paymentServiceImpl) publish(ctx context.Context, log *zap.Logger, p *models.Payment) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, models.PaymentEvent{
		Type:          models.EventPaymentSucceeded,
		PaymentID:     p.ID.String(),
		SessionID:     p.SessionID,
		CustomerEmail: p.CustomerEmail,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Timestamp:     time.Now().UTC(),
	})
	if err != nil {
		log.Error("Failed to publish payment event", zap.String("session_id", p.SessionID), zap.Error(err))
	}
}

func paymentFromEvent(event stripe.Event, payload []byte) (*models.Payment, error) {
	if event.Data == nil {
		return nil, errors.New("event has no data")
	}
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, err
	}
	if sess.ID == "" {
		return nil, errors.New("checkout session has no id")
	}

	email := sess.CustomerEmail
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		email = sess.CustomerDetails.Email
	}

	raw := string(payload)
	return &models.Payment{
		SessionID:          sess.ID,
		CustomerEmail:      email,
		Amount:             sess.AmountTotal,
		Currency:           strings.ToLower(string(sess.Currency)),
		StripeEventPayload: &raw,
	}, nil
}
