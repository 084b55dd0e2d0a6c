package booking

import (
	"context"

	"github.com/fannu/booking-server/models"
)

// BookingService owns booking creation and every guarded lifecycle transition.
type BookingService interface {
	// CreateBooking validates the request and inserts a REQUESTED booking
	// with a fresh reference code.
	CreateBooking(ctx context.Context, input models.CreateBookingInput) (*models.Booking, error)
	// GetByID fetches a booking by internal id.
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// GetByReferenceCode backs the public tracking page.
	GetByReferenceCode(ctx context.Context, code string) (*models.Booking, error)
	// IssueQuote sends (or re-sends) a creator quote and moves the booking
	// to QUOTED, superseding any prior ACTIVE quote.
	IssueQuote(ctx context.Context, bookingID string, input models.IssueQuoteInput) (*models.Quote, error)
	// DeclineBooking is the creator turning the request down.
	DeclineBooking(ctx context.Context, bookingID string, reason string) error
	// DeclineQuote is the booker turning an active quote down.
	DeclineQuote(ctx context.Context, bookingID, quoteID string, reason string) error
	// QuoteHistory returns the booking's quotes, newest first.
	QuoteHistory(ctx context.Context, bookingID string) ([]models.Quote, error)
	// CancelBooking is the booker (or creator) withdrawing before completion.
	CancelBooking(ctx context.Context, bookingID string, actor models.ActorType, reason string) error
	// ConfirmBooking moves a paid booking to CONFIRMED.
	ConfirmBooking(ctx context.Context, bookingID string) error
	// CompleteBooking marks a confirmed booking COMPLETED.
	CompleteBooking(ctx context.Context, bookingID string) error
	// OpenDispute moves a CONFIRMED or COMPLETED booking into DISPUTED.
	OpenDispute(ctx context.Context, bookingID string, actor models.ActorType, actorID, reason string) error
	// ListEvents returns the booking's audit trail in creation order.
	ListEvents(ctx context.Context, bookingID string) ([]models.EventLogEntry, error)
}

// PaymentService reconciles checkout attempts and provider outcomes into
// payment, quote and booking state.
type PaymentService interface {
	// InitiateDepositPayment starts (or idempotently replays) the deposit
	// checkout for a booking against a specific quote.
	InitiateDepositPayment(ctx context.Context, bookingID, quoteID string) (*models.Payment, error)
	// HandleWebhook applies a provider outcome looked up by psp_ref. Safe
	// to call repeatedly with the same outcome.
	HandleWebhook(ctx context.Context, pspRef string, outcome PaymentOutcome) error
	// GetReceipt backs the public receipt page.
	GetReceipt(ctx context.Context, receiptID string) (*models.Payment, error)
}
