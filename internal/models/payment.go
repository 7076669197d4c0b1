package models

import "time"

const (
	PaymentStatusActive   = "active"
	PaymentStatusCanceled = "canceled"
)

// PaymentRecord mirrors one processor charge or subscription. ChargeRef is the
// checkout session / charge reference; CustomerRef is the processor's customer
// id, which subscription lifecycle events key their lookups on.
type PaymentRecord struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	ChargeRef   string    `json:"charge_ref"`
	CustomerRef string    `json:"customer_ref"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
