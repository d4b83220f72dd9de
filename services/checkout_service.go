package services

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/Jacob59569/Fast-Api-Stripe/common/errors"
	"github.com/Jacob59569/Fast-Api-Stripe/common/logger"
	"github.com/Jacob59569/Fast-Api-Stripe/models"
	aws_pkg "github.com/Jacob59569/Fast-Api-Stripe/pkg/aws"
	"go.uber.org/zap"
)

type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, items []models.LineItem, metadata map[string]string) (*models.CheckoutSession, error)
}

type checkoutServiceImpl struct {
	provider CheckoutProvider
	metrics  *aws_pkg.MetricsClient
	logger   *zap.Logger
}

func NewCheckoutService(provider CheckoutProvider, metrics *aws_pkg.MetricsClient, logger *zap.Logger) CheckoutService {
	return &checkoutServiceImpl{provider: provider, metrics: metrics, logger: logger}
}

// CreateCheckoutSession validates the line items and delegates to the
// provider once. There is no retry.
func (s *checkoutServiceImpl) CreateCheckoutSession(ctx context.Context, items []models.LineItem, metadata map[string]string) (*models.CheckoutSession, error) {
	if err := validateLineItems(items); err != nil {
		return nil, apperrors.ErrInvalidInput.Wrap(err)
	}

	log := logger.FromContext(ctx, s.logger)
	sess, err := s.provider.CreateCheckoutSession(ctx, items, metadata)
	if err != nil {
		log.Warn("Stripe checkout session creation failed", zap.Int("items", len(items)), zap.Error(err))
		return nil, err
	}

	_ = s.metrics.RecordCount(ctx, aws_pkg.MetricCheckoutSessions, map[string]string{"Service": ServiceName})
	log.Info("Stripe checkout session created", zap.String("session_id", sess.ID), zap.Int("items", len(items)))
	return sess, nil
}

func validateLineItems(items []models.LineItem) error {
	if len(items) == 0 {
		return fmt.Errorf("at least one line item is required")
	}
	for i, it := range items {
		switch {
		case strings.TrimSpace(it.Name) == "":
			return fmt.Errorf("item %d: name is required", i)
		case it.UnitAmount <= 0:
			return fmt.Errorf("item %d: unit_amount must be positive", i)
		case it.Quantity <= 0:
			return fmt.Errorf("item %d: quantity must be positive", i)
		}
	}
	return nil
}
