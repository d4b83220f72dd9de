package models

import "time"

const (
	EventPaymentSucceeded       = "payment_succeeded"
	EventCheckoutSessionCreated = "checkout_session_created"
	EventCheckoutSessionFailed  = "checkout_session_failed"
)

type PaymentEvent struct {
	Type          string    `json:"type"`
	PaymentID     string    `json:"payment_id,omitempty"`
	SessionID     string    `json:"session_id,omitempty"`
	RequestID     string    `json:"request_id,omitempty"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	CheckoutURL   string    `json:"checkout_url,omitempty"`
	Error         string    `json:"error,omitempty"`
	Amount        int64     `json:"amount"`   // minor units
	Currency      string    `json:"currency"` // "usd", "eur"
	Timestamp     time.Time `json:"timestamp"`
}
