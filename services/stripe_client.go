package services

import (
	"context"
	"errors"
	"net/url"
	"time"

	apperrors "github.com/Jacob59569/Fast-Api-Stripe/common/errors"
	"github.com/Jacob59569/Fast-Api-Stripe/models"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/webhook"
)

// CheckoutProvider creates hosted checkout sessions.
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, items []models.LineItem, metadata map[string]string) (*models.CheckoutSession, error)
}

// WebhookVerifier turns a signed webhook body into an event.
type WebhookVerifier interface {
	ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

type StripeService struct {
	WebhookKey string
	Currency   string
	SuccessURL string
	CancelURL  string
	Tolerance  time.Duration
}

func NewStripeService(secretKey, webhookKey, currency, successURL, cancelURL string) *StripeService {
	stripe.Key = secretKey
	return &StripeService{
		WebhookKey: webhookKey,
		Currency:   currency,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
		Tolerance:  webhook.DefaultTolerance,
	}
}

// CreateCheckoutSession creates a one-off card payment session. Provider
// failures come back as a 500 carrying Stripe's own message.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, items []models.LineItem, metadata map[string]string) (*models.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(s.SuccessURL),
		CancelURL:          stripe.String(s.CancelURL),
	}
	params.Context = ctx
	for _, it := range items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(s.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(it.Name),
				},
				UnitAmount: stripe.Int64(it.UnitAmount),
			},
			Quantity: stripe.Int64(it.Quantity),
		})
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, apperrors.Provider(providerMessage(err), err)
	}
	return &models.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// ConstructEvent verifies the Stripe-Signature header. Events created under a
// different API version are accepted; only the signature and timestamp
// tolerance are enforced.
func (s *StripeService) ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, sigHeader, s.WebhookKey, webhook.ConstructEventOptions{
		Tolerance:                s.Tolerance,
		IgnoreAPIVersionMismatch: true,
	})
}

func providerMessage(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err.Error()
	}
	return err.Error()
}
