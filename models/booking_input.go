package models

import "time"

// CreateBookingInput is the request body for creating a booking.
type CreateBookingInput struct {
	CreatorSlug   string    `json:"creator_slug"`
	BookerName    string    `json:"booker_name"`
	BookerPhone   string    `json:"booker_phone"`
	BookerEmail   string    `json:"booker_email,omitempty"`
	Type          string    `json:"type"`
	StartAt       time.Time `json:"start_at"`
	EndAt         time.Time `json:"end_at"`
	LocationCity  string    `json:"location_city"`
	LocationVenue string    `json:"location_venue,omitempty"`
	BudgetMin     int64     `json:"budget_min"`
	BudgetMax     int64     `json:"budget_max"`
	Notes         string    `json:"notes"`
	Attachments   []string  `json:"attachments,omitempty"`
}

// IssueQuoteInput is the request body for a creator sending a quote.
type IssueQuoteInput struct {
	TotalAmount       int64  `json:"total_amount"`
	DepositPercent    int    `json:"deposit_percent"`
	DepositRefundable bool   `json:"deposit_refundable"`
	ExpiryHours       int    `json:"expiry_hours"`
	AdditionalTerms   string `json:"additional_terms,omitempty"`
}

// VIPSubscribeInput is the request body for the VIP list capture endpoint.
type VIPSubscribeInput struct {
	CreatorID string `json:"creator_id"`
	FanPhone  string `json:"fan_phone"`
	FanName   string `json:"fan_name,omitempty"`
	Channel   string `json:"channel"`
	Source    string `json:"source"`
	SourceRef string `json:"source_ref,omitempty"`
}
