package booking

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fannu/booking-server/config"
	bookingRepo "github.com/fannu/booking-server/database/repository/booking"
	quoteRepo "github.com/fannu/booking-server/database/repository/quote"
	"github.com/fannu/booking-server/models"
)

const (
	refundableTerms    = "Deposit is refundable if the booking is cancelled at least 24 hours before the event start."
	nonRefundableTerms = "Deposit is non-refundable once paid."
)

// renderTerms builds the deterministic cancellation-policy text for a quote.
func renderTerms(depositRefundable bool, additional string) string {
	base := nonRefundableTerms
	if depositRefundable {
		base = refundableTerms
	}
	additional = strings.TrimSpace(additional)
	if additional == "" {
		return base
	}
	return base + " " + additional
}

// IssueQuote sends (or re-sends) a creator quote. Re-quoting is only allowed
// while the booking awaits the booker's decision; the prior ACTIVE quote is
// superseded in the same transaction that activates the new one.
func (s *DefaultBookingService) IssueQuote(ctx context.Context, bookingID string, input models.IssueQuoteInput) (*models.Quote, error) {
	if err := validateQuoteInput(input); err != nil {
		return nil, err
	}

	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, &NotFoundError{Resource: "booking", ID: bookingID}
	}
	if booking.Status != models.BookingRequested && booking.Status != models.BookingQuoted {
		return nil, &InvalidStateTransitionError{From: booking.Status, To: models.BookingQuoted, Event: "send_quote"}
	}

	now := time.Now()
	quote := &models.Quote{
		ID:                uuid.New().String(),
		BookingID:         bookingID,
		TotalAmount:       input.TotalAmount,
		DepositPercent:    input.DepositPercent,
		DepositAmount:     models.DepositAmountFor(input.TotalAmount, input.DepositPercent),
		Currency:          config.AppConfig.Currency,
		DepositRefundable: input.DepositRefundable,
		ExpiresAt:         now.Add(time.Duration(input.ExpiryHours) * time.Hour),
		TermsText:         renderTerms(input.DepositRefundable, input.AdditionalTerms),
		Status:            models.QuoteActive,
	}

	entry := &models.EventLogEntry{
		ID:        uuid.New().String(),
		BookingID: bookingID,
		EventType: models.EventQuoteSent,
		ActorType: models.ActorCreator,
		ActorID:   booking.CreatorID,
		Metadata: map[string]interface{}{
			"quote_id":       quote.ID,
			"total_amount":   quote.TotalAmount,
			"deposit_amount": quote.DepositAmount,
			"expires_at":     quote.ExpiresAt,
		},
	}

	err = s.Quotes.IssueExclusive(ctx, quote,
		[]models.BookingStatus{models.BookingRequested, models.BookingQuoted},
		entry,
	)
	if err == quoteRepo.ErrBookingNotQuotable {
		// Someone else moved the booking between the read and the write.
		fresh, ferr := s.Bookings.GetByID(ctx, bookingID)
		if ferr == nil && fresh != nil {
			return nil, &InvalidStateTransitionError{From: fresh.Status, To: models.BookingQuoted, Event: "send_quote"}
		}
		return nil, &NotFoundError{Resource: "booking", ID: bookingID}
	}
	if err != nil {
		return nil, err
	}

	s.Logger.Info("quote issued",
		zap.String("booking_id", bookingID),
		zap.String("quote_id", quote.ID),
		zap.Int64("total_amount", quote.TotalAmount),
		zap.Int64("deposit_amount", quote.DepositAmount),
	)
	booking.Status = models.BookingQuoted
	s.notify(booking, models.EventQuoteSent)
	return quote, nil
}

func validateQuoteInput(input models.IssueQuoteInput) error {
	fields := map[string]string{}

	if input.TotalAmount <= 0 {
		fields["total_amount"] = "must be a positive amount in minor units"
	}
	if input.DepositPercent < models.MinDepositPercent || input.DepositPercent > models.MaxDepositPercent {
		fields["deposit_percent"] = "must be between 10 and 100"
	}
	if !models.IsAllowedExpiryHours(input.ExpiryHours) {
		fields["expiry_hours"] = "must be one of 24, 48, 72 or 168"
	}
	if terms := renderTerms(input.DepositRefundable, input.AdditionalTerms); len(terms) < models.MinTermsLength {
		fields["additional_terms"] = "rendered terms too short"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// DeclineQuote records the booker turning a quote down and moves the booking
// to DECLINED. Both flips commit in one transaction with the audit entry, so
// a lost race never strands a half-declined quote.
func (s *DefaultBookingService) DeclineQuote(ctx context.Context, bookingID, quoteID string, reason string) error {
	quote, err := s.Quotes.GetByID(ctx, quoteID)
	if err != nil {
		return err
	}
	if quote == nil || quote.BookingID != bookingID {
		return &NotFoundError{Resource: "quote", ID: quoteID}
	}
	if quote.Status != models.QuoteActive {
		return &QuoteNotActiveError{QuoteID: quoteID, Status: quote.Status}
	}

	entry := &models.EventLogEntry{
		ID:        uuid.New().String(),
		BookingID: bookingID,
		EventType: models.EventQuoteDeclined,
		ActorType: models.ActorBooker,
		Metadata:  map[string]interface{}{"quote_id": quoteID},
	}
	if reason != "" {
		entry.Metadata["reason"] = reason
	}

	err = s.Quotes.DeclineExclusive(ctx, quoteID, bookingID, entry)
	switch err {
	case nil:
	case quoteRepo.ErrQuoteNotActive:
		fresh, ferr := s.Quotes.GetByID(ctx, quoteID)
		if ferr == nil && fresh != nil {
			return &QuoteNotActiveError{QuoteID: quoteID, Status: fresh.Status}
		}
		return &NotFoundError{Resource: "quote", ID: quoteID}
	case bookingRepo.ErrStatusConflict:
		fresh, ferr := s.Bookings.GetByID(ctx, bookingID)
		if ferr == nil && fresh != nil {
			return &InvalidStateTransitionError{From: fresh.Status, To: models.BookingDeclined, Event: "decline"}
		}
		return &NotFoundError{Resource: "booking", ID: bookingID}
	default:
		return err
	}

	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	s.notify(booking, models.EventQuoteDeclined)
	return nil
}

// QuoteHistory returns the booking's quotes, newest first.
func (s *DefaultBookingService) QuoteHistory(ctx context.Context, bookingID string) ([]models.Quote, error) {
	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, &NotFoundError{Resource: "booking", ID: bookingID}
	}
	return s.Quotes.ListForBooking(ctx, bookingID)
}
