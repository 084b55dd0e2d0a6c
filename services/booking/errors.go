package booking

import (
	"fmt"
	"time"

	"github.com/fannu/booking-server/models"
)

// ValidationError reports malformed or out-of-range input with field-level
// detail. Never retried automatically.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Fields)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// NotFoundError reports an absent creator, booking, quote or payment.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError reports a duplicate subscription or an exhausted
// reference-code space, surfaced distinctly from validation failures.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// InvalidStateTransitionError reports a guard failure in the booking state
// machine. The caller must re-fetch current state and decide; transitions are
// never coerced.
type InvalidStateTransitionError struct {
	From  models.BookingStatus
	To    models.BookingStatus
	Event string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s: transition %s -> %s is not allowed", e.Event, e.From, e.To)
}

// QuoteNotActiveError reports a checkout attempt against a quote that is no
// longer ACTIVE (superseded, declined, accepted or swept).
type QuoteNotActiveError struct {
	QuoteID string
	Status  models.QuoteStatus
}

func (e *QuoteNotActiveError) Error() string {
	return fmt.Sprintf("quote %s is %s, not ACTIVE", e.QuoteID, e.Status)
}

// QuoteExpiredError reports a checkout attempt against a quote whose expiry
// has passed, even if the stored status still reads ACTIVE. The checkout UI
// distinguishes this from generic failure to prompt a re-quote.
type QuoteExpiredError struct {
	QuoteID   string
	ExpiredAt time.Time
}

func (e *QuoteExpiredError) Error() string {
	return fmt.Sprintf("quote %s expired at %s", e.QuoteID, e.ExpiredAt.Format(time.RFC3339))
}

// PaymentFailedError reports a charge the provider declined. The booking is
// left QUOTED so the booker can retry against the same quote.
type PaymentFailedError struct {
	PaymentID string
}

func (e *PaymentFailedError) Error() string {
	return fmt.Sprintf("payment %s failed", e.PaymentID)
}
