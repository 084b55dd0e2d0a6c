package models

import "time"

// ActorType attributes an event-log entry to whoever caused it.
type ActorType string

const (
	ActorBooker  ActorType = "BOOKER"
	ActorCreator ActorType = "CREATOR"
	ActorAdmin   ActorType = "ADMIN"
	ActorSystem  ActorType = "SYSTEM"
)

// Event types drawn from the controlled vocabulary. Admin status overrides use
// EventStatusOverriddenPrefix + the target status.
const (
	EventRequested        = "requested"
	EventQuoteSent        = "quote_sent"
	EventQuoteAccepted    = "quote_accepted"
	EventQuoteDeclined    = "quote_declined"
	EventDepositPaid      = "deposit_paid"
	EventPaymentFailed    = "payment_failed"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCompleted = "booking_completed"
	EventBookingCancelled = "booking_cancelled"
	EventBookingDeclined  = "booking_declined"
	EventAdminOverride    = "admin_override"
	EventNotesUpdated     = "notes_updated"
	EventDisputeOpened    = "dispute_opened"
	EventDisputeResolved  = "dispute_resolved"
	EventRefundInitiated  = "refund_initiated"
	EventRefundProcessed  = "refund_processed"

	EventStatusOverriddenPrefix = "status_overridden_to_"
)

// EventLogEntry is an immutable audit record. Entries are only ever appended,
// in the same logical transaction as the state change they describe.
type EventLogEntry struct {
	ID        string                 `bson:"id" json:"id"`
	BookingID string                 `bson:"booking_id" json:"booking_id"`
	EventType string                 `bson:"event_type" json:"event_type"`
	ActorType ActorType              `bson:"actor_type" json:"actor_type"`
	ActorID   string                 `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	Metadata  map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt time.Time              `bson:"created_at" json:"created_at"`
}
