package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingRepo "github.com/fannu/booking-server/database/repository/booking"
	paymentRepo "github.com/fannu/booking-server/database/repository/payment"
	quoteRepo "github.com/fannu/booking-server/database/repository/quote"
	"github.com/fannu/booking-server/models"
	"github.com/fannu/booking-server/services/notification"
	"github.com/fannu/booking-server/utils"
)

// DefaultPaymentService is the canonical PaymentService implementation.
type DefaultPaymentService struct {
	Payments paymentRepo.PaymentRepository
	Quotes   quoteRepo.QuoteRepository
	Bookings bookingRepo.BookingRepository
	Gateway  PaymentGateway
	Notifier notification.NotificationService
	Logger   *zap.Logger
}

// InitiateDepositPayment starts the deposit checkout for a booking against a
// specific quote. Retrying after success short-circuits to the existing
// receipt: no duplicate charge, no duplicate audit entry.
func (s *DefaultPaymentService) InitiateDepositPayment(ctx context.Context, bookingID, quoteID string) (*models.Payment, error) {
	quote, err := s.Quotes.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote == nil || quote.BookingID != bookingID {
		return nil, &NotFoundError{Resource: "quote", ID: quoteID}
	}

	// The settled-payment lookup comes before any quote validation: a
	// successful payment flips the quote to ACCEPTED, so the retry must
	// reach the short-circuit without tripping over its own success.
	existing, err := s.Payments.FindDepositForQuote(ctx, bookingID, quoteID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		switch existing.Status {
		case models.PaymentPaid:
			s.Logger.Info("deposit already paid, returning existing receipt",
				zap.String("booking_id", bookingID),
				zap.String("receipt_id", existing.ReceiptID),
			)
			return existing, nil
		case models.PaymentPending:
			// A racing initiation already owns this checkout; resolve it
			// rather than opening a second one.
			return s.resolvePaymentOutcome(ctx, existing)
		}
	}

	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, &NotFoundError{Resource: "booking", ID: bookingID}
	}
	if booking.Status != models.BookingQuoted {
		return nil, &InvalidStateTransitionError{From: booking.Status, To: models.BookingDepositPaid, Event: "pay_deposit"}
	}

	now := time.Now()
	if quote.Status != models.QuoteActive {
		return nil, &QuoteNotActiveError{QuoteID: quoteID, Status: quote.Status}
	}
	// The expiry check happens here, at the point of use. A stale ACTIVE
	// quote the sweep has not yet relabeled must still be rejected.
	if !now.Before(quote.ExpiresAt) {
		return nil, &QuoteExpiredError{QuoteID: quoteID, ExpiredAt: quote.ExpiresAt}
	}

	receiptID, err := utils.GenerateUniqueCode(utils.NewReceiptID, func(code string) (bool, error) {
		return s.Payments.ReceiptIDExists(ctx, code)
	})
	if err != nil {
		return nil, &ConflictError{Message: "could not allocate a receipt id"}
	}

	payment := &models.Payment{
		ID:        uuid.New().String(),
		BookingID: bookingID,
		QuoteID:   quoteID,
		Amount:    quote.DepositAmount,
		Currency:  quote.Currency,
		Type:      models.PaymentDeposit,
		Status:    models.PaymentPending,
		ReceiptID: receiptID,
		PSPRef:    utils.NewPSPRef(),
	}
	if err := s.Payments.Create(ctx, payment); err != nil {
		// The partial unique index rejects a second non-FAILED deposit for
		// this (booking, quote); the racing winner's record is the answer.
		if winner, ferr := s.Payments.FindDepositForQuote(ctx, bookingID, quoteID); ferr == nil && winner != nil {
			if winner.Status == models.PaymentPaid {
				return winner, nil
			}
			return s.resolvePaymentOutcome(ctx, winner)
		}
		return nil, err
	}

	return s.resolvePaymentOutcome(ctx, payment)
}

// resolvePaymentOutcome hands the pending payment to the provider and applies
// the outcome.
func (s *DefaultPaymentService) resolvePaymentOutcome(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	outcome, err := s.Gateway.Charge(ctx, ChargeRequest{
		PSPRef:      payment.PSPRef,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		Description: fmt.Sprintf("FanNu booking deposit %s", payment.ReceiptID),
	})
	if err != nil {
		return nil, err
	}
	if err := s.applyOutcome(ctx, payment, outcome); err != nil {
		return nil, err
	}
	if payment.Status == models.PaymentFailed {
		return nil, &PaymentFailedError{PaymentID: payment.ID}
	}
	return payment, nil
}

// applyOutcome commits a provider verdict. Reapplying the same verdict to an
// already-resolved payment is a no-op.
func (s *DefaultPaymentService) applyOutcome(ctx context.Context, payment *models.Payment, outcome PaymentOutcome) error {
	switch outcome {
	case OutcomeSucceeded:
		entry := &models.EventLogEntry{
			ID:        uuid.New().String(),
			BookingID: payment.BookingID,
			EventType: models.EventDepositPaid,
			ActorType: models.ActorSystem,
			Metadata: map[string]interface{}{
				"payment_id": payment.ID,
				"quote_id":   payment.QuoteID,
				"receipt_id": payment.ReceiptID,
				"amount":     payment.Amount,
				"currency":   payment.Currency,
			},
		}
		err := s.Payments.ApplyDepositPaid(ctx, payment, entry)
		if err == paymentRepo.ErrAlreadyResolved {
			fresh, ferr := s.Payments.GetByID(ctx, payment.ID)
			if ferr != nil {
				return ferr
			}
			if fresh != nil && fresh.Status == models.PaymentPaid {
				*payment = *fresh
				return nil
			}
			return fmt.Errorf("payment %s already resolved with a different outcome", payment.ID)
		}
		if err == paymentRepo.ErrNotPayable {
			// The booking or quote closed while the charge was in flight.
			// The cascade rolled back, so the money has to follow.
			return s.reverseCharge(ctx, payment)
		}
		if err != nil {
			return err
		}
		now := time.Now()
		payment.Status = models.PaymentPaid
		payment.PaidAt = &now

		s.Logger.Info("deposit paid",
			zap.String("booking_id", payment.BookingID),
			zap.String("payment_id", payment.ID),
			zap.String("receipt_id", payment.ReceiptID),
			zap.Int64("amount", payment.Amount),
		)
		s.notifyBooking(ctx, payment.BookingID, models.EventDepositPaid)
		return nil

	case OutcomeFailed:
		entry := &models.EventLogEntry{
			ID:        uuid.New().String(),
			BookingID: payment.BookingID,
			EventType: models.EventPaymentFailed,
			ActorType: models.ActorSystem,
			Metadata: map[string]interface{}{
				"payment_id": payment.ID,
				"quote_id":   payment.QuoteID,
			},
		}
		err := s.Payments.MarkFailed(ctx, payment, entry)
		if err == paymentRepo.ErrAlreadyResolved {
			fresh, ferr := s.Payments.GetByID(ctx, payment.ID)
			if ferr != nil {
				return ferr
			}
			if fresh != nil && fresh.Status == models.PaymentFailed {
				*payment = *fresh
				return nil
			}
			return fmt.Errorf("payment %s already resolved with a different outcome", payment.ID)
		}
		if err != nil {
			return err
		}
		payment.Status = models.PaymentFailed
		s.Logger.Warn("payment failed",
			zap.String("booking_id", payment.BookingID),
			zap.String("payment_id", payment.ID),
		)
		return nil

	default:
		return fmt.Errorf("unknown payment outcome %q", outcome)
	}
}

// reverseCharge refunds a settled charge whose booking closed mid-checkout
// and records the payment as FAILED. The booker's money never stays captured
// against a booking that can no longer proceed.
func (s *DefaultPaymentService) reverseCharge(ctx context.Context, payment *models.Payment) error {
	if err := s.Gateway.Refund(ctx, RefundRequest{
		PSPRef:   payment.PSPRef,
		Amount:   payment.Amount,
		Currency: payment.Currency,
		Reason:   "booking closed before the deposit settled",
	}); err != nil {
		s.Logger.Error("charge reversal failed, manual reconciliation required",
			zap.String("booking_id", payment.BookingID),
			zap.String("payment_id", payment.ID),
			zap.String("psp_ref", payment.PSPRef),
			zap.Error(err),
		)
		return err
	}

	entry := &models.EventLogEntry{
		ID:        uuid.New().String(),
		BookingID: payment.BookingID,
		EventType: models.EventPaymentFailed,
		ActorType: models.ActorSystem,
		Metadata: map[string]interface{}{
			"payment_id": payment.ID,
			"quote_id":   payment.QuoteID,
			"reason":     "booking no longer accepts a deposit, charge reversed",
		},
	}
	if err := s.Payments.MarkFailed(ctx, payment, entry); err != nil && err != paymentRepo.ErrAlreadyResolved {
		return err
	}
	payment.Status = models.PaymentFailed

	s.Logger.Warn("charge reversed, booking closed mid-checkout",
		zap.String("booking_id", payment.BookingID),
		zap.String("payment_id", payment.ID),
		zap.String("psp_ref", payment.PSPRef),
	)
	return &ConflictError{Message: "booking no longer accepts a deposit; the charge was reversed"}
}

// HandleWebhook applies a provider outcome looked up by psp_ref. Redelivery
// of the same outcome is a no-op success, not an error.
func (s *DefaultPaymentService) HandleWebhook(ctx context.Context, pspRef string, outcome PaymentOutcome) error {
	payment, err := s.Payments.GetByPSPRef(ctx, pspRef)
	if err != nil {
		return err
	}
	if payment == nil {
		return &NotFoundError{Resource: "payment", ID: pspRef}
	}

	// Already settled with the same verdict: acknowledge and move on.
	if payment.Status == models.PaymentPaid && outcome == OutcomeSucceeded {
		return nil
	}
	if payment.Status == models.PaymentFailed && outcome == OutcomeFailed {
		return nil
	}
	if payment.Status == models.PaymentRefunded {
		return nil
	}

	return s.applyOutcome(ctx, payment, outcome)
}

// GetReceipt backs the public receipt page.
func (s *DefaultPaymentService) GetReceipt(ctx context.Context, receiptID string) (*models.Payment, error) {
	payment, err := s.Payments.GetByReceiptID(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, &NotFoundError{Resource: "payment", ID: receiptID}
	}
	return payment, nil
}

func (s *DefaultPaymentService) notifyBooking(ctx context.Context, bookingID string, event string) {
	if s.Notifier == nil {
		return
	}
	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil || booking == nil {
		return
	}
	if err := s.Notifier.BookingEvent(context.Background(), booking, event); err != nil {
		s.Logger.Warn("notification dispatch failed",
			zap.String("booking_id", bookingID),
			zap.String("event", event),
			zap.Error(err),
		)
	}
}
