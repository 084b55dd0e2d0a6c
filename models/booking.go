package models

import (
	"fmt"
	"time"
)

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	BookingRequested     BookingStatus = "REQUESTED"
	BookingQuoted        BookingStatus = "QUOTED"
	BookingDepositPaid   BookingStatus = "DEPOSIT_PAID"
	BookingConfirmed     BookingStatus = "CONFIRMED"
	BookingCompleted     BookingStatus = "COMPLETED"
	BookingCancelled     BookingStatus = "CANCELLED"
	BookingDeclined      BookingStatus = "DECLINED"
	BookingDisputed      BookingStatus = "DISPUTED"
	BookingRefundPending BookingStatus = "REFUND_PENDING"
)

// bookingTransitions is the canonical guard table for booking status changes.
// The admin override path deliberately bypasses it and is audited separately.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingRequested:     {BookingQuoted, BookingDeclined, BookingCancelled},
	BookingQuoted:        {BookingQuoted, BookingDepositPaid, BookingDeclined, BookingCancelled},
	BookingDepositPaid:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed:     {BookingCompleted, BookingDisputed, BookingCancelled},
	BookingCompleted:     {BookingDisputed},
	BookingDisputed:      {BookingConfirmed, BookingCompleted, BookingRefundPending},
	BookingRefundPending: {BookingCancelled},
	BookingCancelled:     {},
	BookingDeclined:      {},
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := bookingTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	allowed, exists := bookingTransitions[s]
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

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	allowed, exists := bookingTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// BookingType classifies what the booker is hiring the creator for.
type BookingType string

const (
	TypeLivePerformance BookingType = "LIVE_PERFORMANCE"
	TypeMCHosting       BookingType = "MC_HOSTING"
	TypeBrandContent    BookingType = "BRAND_CONTENT"
	TypeCustom          BookingType = "CUSTOM"
)

// IsValid returns true if the booking type is recognized.
func (t BookingType) IsValid() bool {
	switch t {
	case TypeLivePerformance, TypeMCHosting, TypeBrandContent, TypeCustom:
		return true
	}
	return false
}

// MaxAttachments caps the number of attachment references on a booking request.
const MaxAttachments = 3

// Booking represents a fan's request to hire a creator for an event.
// Amounts are in the minor currency unit.
type Booking struct {
	ID                 string        `bson:"id" json:"id"`
	ReferenceCode      string        `bson:"reference_code" json:"reference_code"`
	CreatorID          string        `bson:"creator_id" json:"creator_id"`
	BookerName         string        `bson:"booker_name" json:"booker_name"`
	BookerPhone        string        `bson:"booker_phone" json:"booker_phone"`
	BookerEmail        string        `bson:"booker_email,omitempty" json:"booker_email,omitempty"`
	Type               BookingType   `bson:"type" json:"type"`
	StartAt            time.Time     `bson:"start_at" json:"start_at"`
	EndAt              time.Time     `bson:"end_at" json:"end_at"`
	LocationCity       string        `bson:"location_city" json:"location_city"`
	LocationVenue      string        `bson:"location_venue,omitempty" json:"location_venue,omitempty"`
	BudgetMin          int64         `bson:"budget_min" json:"budget_min"`
	BudgetMax          int64         `bson:"budget_max" json:"budget_max"`
	Notes              string        `bson:"notes" json:"notes"`
	Attachments        []string      `bson:"attachments,omitempty" json:"attachments,omitempty"`
	Status             BookingStatus `bson:"status" json:"status"`
	DeclineReason      string        `bson:"decline_reason,omitempty" json:"decline_reason,omitempty"`
	CancellationReason string        `bson:"cancellation_reason,omitempty" json:"cancellation_reason,omitempty"`
	AdminNotes         string        `bson:"admin_notes,omitempty" json:"-"`
	CreatedAt          time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `bson:"updated_at" json:"updated_at"`
}
