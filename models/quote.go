package models

import "time"

// QuoteStatus represents the current state of a creator-issued quote.
type QuoteStatus string

const (
	QuoteActive     QuoteStatus = "ACTIVE"
	QuoteExpired    QuoteStatus = "EXPIRED"
	QuoteSuperseded QuoteStatus = "SUPERSEDED"
	QuoteAccepted   QuoteStatus = "ACCEPTED"
	QuoteDeclined   QuoteStatus = "DECLINED"
)

// AllowedQuoteExpiryHours are the only expiry windows a creator can pick.
var AllowedQuoteExpiryHours = []int{24, 48, 72, 168}

const (
	MinDepositPercent = 10
	MaxDepositPercent = 100
	MinTermsLength    = 20
)

// Quote is a creator's price offer attached to exactly one booking. A booking
// accumulates a history of quotes; at most one is ACTIVE at any time.
type Quote struct {
	ID                string      `bson:"id" json:"id"`
	BookingID         string      `bson:"booking_id" json:"booking_id"`
	TotalAmount       int64       `bson:"total_amount" json:"total_amount"`
	DepositPercent    int         `bson:"deposit_percent" json:"deposit_percent"`
	DepositAmount     int64       `bson:"deposit_amount" json:"deposit_amount"`
	Currency          string      `bson:"currency" json:"currency"`
	DepositRefundable bool        `bson:"deposit_refundable" json:"deposit_refundable"`
	ExpiresAt         time.Time   `bson:"expires_at" json:"expires_at"`
	TermsText         string      `bson:"terms_text" json:"terms_text"`
	Status            QuoteStatus `bson:"status" json:"status"`
	CreatedAt         time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time   `bson:"updated_at" json:"updated_at"`
}

// IsUsable reports whether the quote can back a checkout right now. A stale
// ACTIVE quote whose expiry has passed is unusable even before the background
// sweep relabels it.
func (q *Quote) IsUsable(now time.Time) bool {
	return q.Status == QuoteActive && now.Before(q.ExpiresAt)
}

// DepositAmountFor computes the deposit in minor units, rounded half up.
func DepositAmountFor(totalAmount int64, depositPercent int) int64 {
	return (totalAmount*int64(depositPercent) + 50) / 100
}

// IsAllowedExpiryHours reports whether h is one of the selectable expiry windows.
func IsAllowedExpiryHours(h int) bool {
	for _, allowed := range AllowedQuoteExpiryHours {
		if h == allowed {
			return true
		}
	}
	return false
}
