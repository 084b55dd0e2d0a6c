package admin

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingRepo "github.com/fannu/booking-server/database/repository/booking"
	eventlogRepo "github.com/fannu/booking-server/database/repository/eventlog"
	paymentRepo "github.com/fannu/booking-server/database/repository/payment"
	"github.com/fannu/booking-server/models"
	"github.com/fannu/booking-server/services/booking"
)

// DefaultAdminService is the canonical AdminService implementation. It is a
// separate code path from the guarded state machine; everything here is
// tagged ADMIN in the audit trail.
type DefaultAdminService struct {
	Bookings bookingRepo.BookingRepository
	Payments paymentRepo.PaymentRepository
	Events   eventlogRepo.EventLogRepository
	Logger   *zap.Logger
}

func (s *DefaultAdminService) loadBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, &booking.NotFoundError{Resource: "booking", ID: bookingID}
	}
	return b, nil
}

// ResolveDispute closes a dispute back into the target status. The target is
// explicit because a dispute opened from COMPLETED may legitimately resolve
// back to either state; CONFIRMED is the default.
func (s *DefaultAdminService) ResolveDispute(ctx context.Context, bookingID, adminID string, target models.BookingStatus) error {
	if target == "" {
		target = models.BookingConfirmed
	}
	if target != models.BookingConfirmed && target != models.BookingCompleted {
		return booking.NewValidationError("target", "must be CONFIRMED or COMPLETED")
	}

	b, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.Status != models.BookingDisputed {
		return &booking.InvalidStateTransitionError{From: b.Status, To: target, Event: "resolve_dispute"}
	}

	entry := &models.EventLogEntry{
		ID:        uuid.New().String(),
		BookingID: bookingID,
		EventType: models.EventDisputeResolved,
		ActorType: models.ActorAdmin,
		ActorID:   adminID,
		Metadata:  map[string]interface{}{"resolved_to": string(target)},
	}

	err = s.Bookings.TransitionStatus(ctx, bookingID,
		[]models.BookingStatus{models.BookingDisputed}, target, nil, entry)
	if err == bookingRepo.ErrStatusConflict {
		return &booking.InvalidStateTransitionError{From: b.Status, To: target, Event: "resolve_dispute"}
	}
	if err != nil {
		return err
	}

	s.Logger.Info("dispute resolved",
		zap.String("booking_id", bookingID),
		zap.String("admin_id", adminID),
		zap.String("target", string(target)),
	)
	return nil
}

// IssueRefund moves a disputed booking into REFUND_PENDING.
func (s *DefaultAdminService) IssueRefund(ctx context.Context, bookingID, adminID string, reason string) error {
	b, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.Status != models.BookingDisputed {
		return &booking.InvalidStateTransitionError{From: b.Status, To: models.BookingRefundPending, Event: "issue_refund"}
	}

	entry := &models.EventLogEntry{
		ID:        uuid.New().String(),
		BookingID: bookingID,
		EventType: models.EventRefundInitiated,
		ActorType: models.ActorAdmin,
		ActorID:   adminID,
	}
	if reason != "" {
		entry.Metadata = map[string]interface{}{"reason": reason}
	}

	err = s.Bookings.TransitionStatus(ctx, bookingID,
		[]models.BookingStatus{models.BookingDisputed}, models.BookingRefundPending, nil, entry)
	if err == bookingRepo.ErrStatusConflict {
		return &booking.InvalidStateTransitionError{From: b.Status, To: models.BookingRefundPending, Event: "issue_refund"}
	}
	if err != nil {
		return err
	}

	s.Logger.Info("refund initiated",
		zap.String("booking_id", bookingID),
		zap.String("admin_id", adminID),
	)
	return nil
}

// ProcessRefund flips the paid deposit to REFUNDED and the booking to
// CANCELLED, recording the refunded amount in the audit entry.
func (s *DefaultAdminService) ProcessRefund(ctx context.Context, bookingID, adminID string) error {
	b, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.Status != models.BookingRefundPending && b.Status != models.BookingCancelled {
		return &booking.InvalidStateTransitionError{From: b.Status, To: models.BookingCancelled, Event: "process_refund"}
	}

	payment, err := s.Payments.FindPaidDepositForBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if payment == nil {
		return &booking.NotFoundError{Resource: "paid deposit for booking", ID: bookingID}
	}

	entry := &models.EventLogEntry{
		ID:        uuid.New().String(),
		BookingID: bookingID,
		EventType: models.EventRefundProcessed,
		ActorType: models.ActorAdmin,
		ActorID:   adminID,
		Metadata: map[string]interface{}{
			"payment_id":      payment.ID,
			"refunded_amount": payment.Amount,
			"currency":        payment.Currency,
		},
	}

	if err := s.Payments.ProcessRefund(ctx, payment, entry); err != nil {
		return err
	}

	s.Logger.Info("refund processed",
		zap.String("booking_id", bookingID),
		zap.String("payment_id", payment.ID),
		zap.Int64("amount", payment.Amount),
	)
	return nil
}

// OverrideStatus force-sets a non-terminal booking to any status. This exists
// because the guarded machine cannot model every real-world exception; every
// use is tagged ADMIN with the target status in the event type.
func (s *DefaultAdminService) OverrideStatus(ctx context.Context, bookingID, adminID string, newStatus models.BookingStatus) error {
	if !newStatus.IsValid() {
		return booking.NewValidationError("status", "unknown booking status")
	}

	b, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.Status.IsTerminal() {
		return &booking.InvalidStateTransitionError{From: b.Status, To: newStatus, Event: "admin_override"}
	}

	entry := &models.EventLogEntry{
		ID:        uuid.New().String(),
		BookingID: bookingID,
		EventType: models.EventStatusOverriddenPrefix + string(newStatus),
		ActorType: models.ActorAdmin,
		ActorID:   adminID,
		Metadata: map[string]interface{}{
			"from": string(b.Status),
			"to":   string(newStatus),
		},
	}

	// Predicate on the observed status so a racing webhook or transition
	// cannot be silently clobbered.
	err = s.Bookings.TransitionStatus(ctx, bookingID,
		[]models.BookingStatus{b.Status}, newStatus, nil, entry)
	if err == bookingRepo.ErrStatusConflict {
		return &booking.ConflictError{Message: "booking changed concurrently, re-fetch and retry"}
	}
	if err != nil {
		return err
	}

	s.Logger.Warn("booking status overridden",
		zap.String("booking_id", bookingID),
		zap.String("admin_id", adminID),
		zap.String("from", string(b.Status)),
		zap.String("to", string(newStatus)),
	)
	return nil
}

// SaveAdminNotes stores moderation notes on the booking.
func (s *DefaultAdminService) SaveAdminNotes(ctx context.Context, bookingID, adminID, notes string) error {
	if strings.TrimSpace(notes) == "" {
		return booking.NewValidationError("notes", "required")
	}
	if _, err := s.loadBooking(ctx, bookingID); err != nil {
		return err
	}

	entry := &models.EventLogEntry{
		ID:        uuid.New().String(),
		BookingID: bookingID,
		EventType: models.EventNotesUpdated,
		ActorType: models.ActorAdmin,
		ActorID:   adminID,
	}

	err := s.Bookings.SetAdminNotes(ctx, bookingID, notes, entry)
	if err == bookingRepo.ErrStatusConflict {
		return &booking.NotFoundError{Resource: "booking", ID: bookingID}
	}
	return err
}
