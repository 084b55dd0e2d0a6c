package models

import "time"

// PaymentStatus represents the state of a money movement record.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// paymentTransitions restricts how a payment record may move between states.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:  {PaymentPaid, PaymentFailed},
	PaymentPaid:     {PaymentRefunded},
	PaymentFailed:   {},
	PaymentRefunded: {},
}

// CanTransitionTo returns true if the payment may move to the target status.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	allowed, exists := paymentTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// PaymentType distinguishes the deposit from the balance settled later.
type PaymentType string

const (
	PaymentDeposit   PaymentType = "DEPOSIT"
	PaymentRemainder PaymentType = "REMAINDER"
)

// Payment records a money movement tied to a booking and a specific quote.
// Amount is in the minor currency unit.
type Payment struct {
	ID        string        `bson:"id" json:"id"`
	BookingID string        `bson:"booking_id" json:"booking_id"`
	QuoteID   string        `bson:"quote_id" json:"quote_id"`
	Amount    int64         `bson:"amount" json:"amount"`
	Currency  string        `bson:"currency" json:"currency"`
	Type      PaymentType   `bson:"type" json:"type"`
	Status    PaymentStatus `bson:"status" json:"status"`
	ReceiptID string        `bson:"receipt_id" json:"receipt_id"`
	PSPRef    string        `bson:"psp_ref" json:"psp_ref"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
	PaidAt    *time.Time    `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
}
