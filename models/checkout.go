package models

import "time"

// LineItem is one product line of a checkout session.
type LineItem struct {
	Name       string `json:"name" binding:"required"`
	UnitAmount int64  `json:"unit_amount" binding:"required,gt=0"` // minor units
	Quantity   int64  `json:"quantity" binding:"required,gt=0"`
}

type CreateCheckoutSessionRequest struct {
	Items []LineItem `json:"items" binding:"required,min=1,dive"`
}

type CheckoutSessionResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

// CheckoutRequest arrives on the checkout request queue.
type CheckoutRequest struct {
	RequestID string     `json:"request_id"`
	Items     []LineItem `json:"items"`
}

// CheckoutSession is what the provider hands back.
type CheckoutSession struct {
	ID  string
	URL string
}

type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []LineItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Total is the cart value in minor units.
func (c *Cart) Total() int64 {
	var total int64
	for _, it := range c.Items {
		total += it.UnitAmount * it.Quantity
	}
	return total
}

// Add merges item into the cart; a line with the same name and unit amount
// has its quantity increased.
func (c *Cart) Add(item LineItem) {
	for i := range c.Items {
		if c.Items[i].Name == item.Name && c.Items[i].UnitAmount == item.UnitAmount {
			c.Items[i].Quantity += item.Quantity
			return
		}
	}
	c.Items = append(c.Items, item)
}
