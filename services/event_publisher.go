package services

import (
	"context"
	"encoding/json"

	"github.com/Jacob59569/Fast-Api-Stripe/models"
	aws_pkg "github.com/Jacob59569/Fast-Api-Stripe/pkg/aws"
)

// EventPublisher delivers payment events to whatever bus is configured.
type EventPublisher interface {
	Publish(ctx context.Context, event models.PaymentEvent) error
}

// SNSEventPublisher publishes events as JSON to one SNS topic.
type SNSEventPublisher struct {
	client   aws_pkg.SNSPublisher
	topicArn string
}

func NewSNSEventPublisher(client aws_pkg.SNSPublisher, topicArn string) *SNSEventPublisher {
	return &SNSEventPublisher{client: client, topicArn: topicArn}
}

func (p *SNSEventPublisher) Publish(ctx context.Context, event models.PaymentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.topicArn, payload)
}
