package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Payment is one completed checkout session. Rows are only ever inserted.
type Payment struct {
	ID                 uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SessionID          string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"session_id"`
	CustomerEmail      string    `gorm:"type:varchar(320)" json:"customer_email"`
	Amount             int64     `gorm:"not null" json:"amount"` // minor units
	Currency           string    `gorm:"type:varchar(10);not null" json:"currency"`
	StripeEventPayload *string   `gorm:"type:jsonb" json:"-"`
	CreatedAt          time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// zeroDecimalCurrencies are charged in whole units; Stripe's amount for them
// has no minor part.
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// DisplayAmount renders the amount in major units, e.g. "15.00 USD" or
// "1500 JPY".
func (p Payment) DisplayAmount() string {
	currency := strings.ToUpper(p.Currency)
	if zeroDecimalCurrencies[strings.ToLower(p.Currency)] {
		return fmt.Sprintf("%d %s", p.Amount, currency)
	}
	sign := ""
	amount := p.Amount
	if amount < 0 {
		sign, amount = "-", -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, currency)
}
