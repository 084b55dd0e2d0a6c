package booking

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	bookingRepo "github.com/fannu/booking-server/database/repository/booking"
	creatorRepo "github.com/fannu/booking-server/database/repository/creator"
	eventlogRepo "github.com/fannu/booking-server/database/repository/eventlog"
	quoteRepo "github.com/fannu/booking-server/database/repository/quote"
	"github.com/fannu/booking-server/models"
	"github.com/fannu/booking-server/services/notification"
	"github.com/fannu/booking-server/utils"
)

// phoneRe matches E.164 phone numbers.
var phoneRe = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)

// DefaultBookingService is the canonical BookingService implementation.
type DefaultBookingService struct {
	Bookings bookingRepo.BookingRepository
	Quotes   quoteRepo.QuoteRepository
	Creators creatorRepo.CreatorRepository
	Events   eventlogRepo.EventLogRepository
	Notifier notification.NotificationService
	Logger   *zap.Logger
}

// CreateBooking validates the request and inserts a REQUESTED booking.
func (s *DefaultBookingService) CreateBooking(ctx context.Context, input models.CreateBookingInput) (*models.Booking, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	creator, err := s.Creators.GetBySlug(ctx, input.CreatorSlug)
	if err != nil {
		return nil, err
	}
	if creator == nil {
		return nil, &NotFoundError{Resource: "creator", ID: input.CreatorSlug}
	}

	refCode, err := utils.GenerateUniqueCode(utils.NewBookingCode, func(code string) (bool, error) {
		return s.Bookings.ReferenceCodeExists(ctx, code)
	})
	if err != nil {
		return nil, &ConflictError{Message: "could not allocate a booking reference code"}
	}

	booking := &models.Booking{
		ID:            uuid.New().String(),
		ReferenceCode: refCode,
		CreatorID:     creator.ID,
		BookerName:    strings.TrimSpace(input.BookerName),
		BookerPhone:   input.BookerPhone,
		BookerEmail:   strings.TrimSpace(input.BookerEmail),
		Type:          models.BookingType(input.Type),
		StartAt:       input.StartAt,
		EndAt:         input.EndAt,
		LocationCity:  strings.TrimSpace(input.LocationCity),
		LocationVenue: strings.TrimSpace(input.LocationVenue),
		BudgetMin:     input.BudgetMin,
		BudgetMax:     input.BudgetMax,
		Notes:         strings.TrimSpace(input.Notes),
		Attachments:   input.Attachments,
		Status:        models.BookingRequested,
	}

	entry := &models.EventLogEntry{
		ID:        uuid.New().String(),
		BookingID: booking.ID,
		EventType: models.EventRequested,
		ActorType: models.ActorBooker,
		Metadata: map[string]interface{}{
			"reference_code": refCode,
			"booking_type":   string(booking.Type),
		},
	}

	if err := s.Bookings.Create(ctx, booking, entry); err != nil {
		return nil, err
	}

	s.Logger.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("reference_code", refCode),
		zap.String("creator_id", creator.ID),
	)
	s.notify(booking, models.EventRequested)
	return booking, nil
}

func validateCreateInput(input models.CreateBookingInput) error {
	fields := map[string]string{}

	if strings.TrimSpace(input.CreatorSlug) == "" {
		fields["creator_slug"] = "required"
	}
	if strings.TrimSpace(input.BookerName) == "" {
		fields["booker_name"] = "required"
	}
	if !phoneRe.MatchString(input.BookerPhone) {
		fields["booker_phone"] = "must be an E.164 phone number"
	}
	if !models.BookingType(input.Type).IsValid() {
		fields["type"] = "unknown booking type"
	}
	now := time.Now()
	if !input.StartAt.After(now) {
		fields["start_at"] = "must be in the future"
	}
	if !input.EndAt.After(input.StartAt) {
		fields["end_at"] = "must be after start_at"
	}
	if strings.TrimSpace(input.LocationCity) == "" {
		fields["location_city"] = "required"
	}
	if input.BudgetMin <= 0 {
		fields["budget_min"] = "must be a positive amount"
	}
	if input.BudgetMax < input.BudgetMin {
		fields["budget_max"] = "must be at least budget_min"
	}
	if len(strings.TrimSpace(input.Notes)) < models.MinTermsLength {
		fields["notes"] = "must be at least 20 characters"
	}
	if len(input.Attachments) > models.MaxAttachments {
		fields["attachments"] = "at most 3 attachments"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// GetByID fetches a booking by internal id.
func (s *DefaultBookingService) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, &NotFoundError{Resource: "booking", ID: id}
	}
	return booking, nil
}

// GetByReferenceCode backs the public tracking page.
func (s *DefaultBookingService) GetByReferenceCode(ctx context.Context, code string) (*models.Booking, error) {
	booking, err := s.Bookings.GetByReferenceCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, &NotFoundError{Resource: "booking", ID: code}
	}
	return booking, nil
}

// transition runs one guarded state-machine edge. On a status-predicate miss
// it re-fetches the booking to report either not-found or the exact illegal
// transition.
func (s *DefaultBookingService) transition(
	ctx context.Context,
	bookingID string,
	event string,
	allowedFrom []models.BookingStatus,
	to models.BookingStatus,
	set bson.M,
	entry *models.EventLogEntry,
) (*models.Booking, error) {
	err := s.Bookings.TransitionStatus(ctx, bookingID, allowedFrom, to, set, entry)
	if err == nil {
		booking, ferr := s.Bookings.GetByID(ctx, bookingID)
		if ferr != nil {
			return nil, ferr
		}
		return booking, nil
	}
	if err != bookingRepo.ErrStatusConflict {
		return nil, err
	}

	booking, ferr := s.Bookings.GetByID(ctx, bookingID)
	if ferr != nil {
		return nil, ferr
	}
	if booking == nil {
		return nil, &NotFoundError{Resource: "booking", ID: bookingID}
	}
	return nil, &InvalidStateTransitionError{From: booking.Status, To: to, Event: event}
}

// DeclineBooking is the creator turning the request down. Allowed while the
// booking is still awaiting a booker decision.
func (s *DefaultBookingService) DeclineBooking(ctx context.Context, bookingID string, reason string) error {
	entry := &models.EventLogEntry{
		ID:        uuid.New().String(),
		BookingID: bookingID,
		EventType: models.EventBookingDeclined,
		ActorType: models.ActorCreator,
	}
	if reason != "" {
		entry.Metadata = map[string]interface{}{"reason": reason}
	}

	booking, err := s.transition(ctx, bookingID, "decline",
		[]models.BookingStatus{models.BookingRequested, models.BookingQuoted},
		models.BookingDeclined,
		bson.M{"decline_reason": reason},
		entry,
	)
	if err != nil {
		return err
	}
	s.notify(booking, models.EventBookingDeclined)
	return nil
}

// CancelBooking withdraws a booking before completion.
func (s *DefaultBookingService) CancelBooking(ctx context.Context, bookingID string, actor models.ActorType, reason string) error {
	entry := &models.EventLogEntry{
		ID:        uuid.New().String(),
		BookingID: bookingID,
		EventType: models.EventBookingCancelled,
		ActorType: actor,
	}
	if reason != "" {
		entry.Metadata = map[string]interface{}{"reason": reason}
	}

	booking, err := s.transition(ctx, bookingID, "cancel",
		[]models.BookingStatus{models.BookingRequested, models.BookingQuoted, models.BookingDepositPaid, models.BookingConfirmed},
		models.BookingCancelled,
		bson.M{"cancellation_reason": reason},
		entry,
	)
	if err != nil {
		return err
	}
	s.notify(booking, models.EventBookingCancelled)
	return nil
}

// ConfirmBooking moves a paid booking to CONFIRMED.
func (s *DefaultBookingService) ConfirmBooking(ctx context.Context, bookingID string) error {
	entry := &models.EventLogEntry{
		ID:        uuid.New().String(),
		BookingID: bookingID,
		EventType: models.EventBookingConfirmed,
		ActorType: models.ActorCreator,
	}

	booking, err := s.transition(ctx, bookingID, "confirm",
		[]models.BookingStatus{models.BookingDepositPaid},
		models.BookingConfirmed,
		nil,
		entry,
	)
	if err != nil {
		return err
	}
	s.notify(booking, models.EventBookingConfirmed)
	return nil
}

// CompleteBooking marks a confirmed booking COMPLETED.
func (s *DefaultBookingService) CompleteBooking(ctx context.Context, bookingID string) error {
	entry := &models.EventLogEntry{
		ID:        uuid.New().String(),
		BookingID: bookingID,
		EventType: models.EventBookingCompleted,
		ActorType: models.ActorCreator,
	}

	booking, err := s.transition(ctx, bookingID, "complete",
		[]models.BookingStatus{models.BookingConfirmed},
		models.BookingCompleted,
		nil,
		entry,
	)
	if err != nil {
		return err
	}
	s.notify(booking, models.EventBookingCompleted)
	return nil
}

// OpenDispute moves a CONFIRMED or COMPLETED booking into DISPUTED.
func (s *DefaultBookingService) OpenDispute(ctx context.Context, bookingID string, actor models.ActorType, actorID, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return NewValidationError("reason", "required")
	}

	entry := &models.EventLogEntry{
		ID:        uuid.New().String(),
		BookingID: bookingID,
		EventType: models.EventDisputeOpened,
		ActorType: actor,
		ActorID:   actorID,
		Metadata:  map[string]interface{}{"reason": reason},
	}

	booking, err := s.transition(ctx, bookingID, "open_dispute",
		[]models.BookingStatus{models.BookingConfirmed, models.BookingCompleted},
		models.BookingDisputed,
		nil,
		entry,
	)
	if err != nil {
		return err
	}
	s.notify(booking, models.EventDisputeOpened)
	return nil
}

// ListEvents returns the booking's audit trail in creation order.
func (s *DefaultBookingService) ListEvents(ctx context.Context, bookingID string) ([]models.EventLogEntry, error) {
	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, &NotFoundError{Resource: "booking", ID: bookingID}
	}
	return s.Events.ListForBooking(ctx, bookingID)
}

// notify fires a booking event at the notification collaborator without
// letting delivery failures surface into the state change.
func (s *DefaultBookingService) notify(booking *models.Booking, event string) {
	if s.Notifier == nil || booking == nil {
		return
	}
	if err := s.Notifier.BookingEvent(context.Background(), booking, event); err != nil {
		s.Logger.Warn("notification dispatch failed",
			zap.String("booking_id", booking.ID),
			zap.String("event", event),
			zap.Error(err),
		)
	}
}
