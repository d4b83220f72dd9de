package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Jacob59569/Fast-Api-Stripe/models"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublish_KeysBySession(t *testing.T) {
	w := &fakeWriter{}
	p := &PaymentEventProducer{writer: w, topic: "payment.events", logger: zap.NewNop()}

	err := p.Publish(context.Background(), models.PaymentEvent{
		Type:      models.EventPaymentSucceeded,
		SessionID: "cs_test_1",
		Amount:    1500,
		Currency:  "usd",
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "cs_test_1", string(w.msgs[0].Key))

	var got models.PaymentEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, models.EventPaymentSucceeded, got.Type)
	assert.Equal(t, int64(1500), got.Amount)
}

func TestPublish_FallsBackToRequestID(t *testing.T) {
	w := &fakeWriter{}
	p := &PaymentEventProducer{writer: w, logger: zap.NewNop()}

	require.NoError(t, p.Publish(context.Background(), models.PaymentEvent{
		Type:      models.EventCheckoutSessionFailed,
		RequestID: "req-9",
	}))
	assert.Equal(t, "req-9", string(w.msgs[0].Key))
}

func TestPublish_WriterError(t *testing.T) {
	p := &PaymentEventProducer{writer: &fakeWriter{err: errors.New("broker down")}, logger: zap.NewNop()}

	assert.Error(t, p.Publish(context.Background(), models.PaymentEvent{Type: models.EventPaymentSucceeded}))
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	p := &PaymentEventProducer{writer: w, logger: zap.NewNop()}

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
