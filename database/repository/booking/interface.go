package bookingRepo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/fannu/booking-server/models"
)

// ErrStatusConflict is returned by TransitionStatus when the booking either
// does not exist or is no longer in one of the allowed source states. Callers
// re-fetch the booking to tell the two apart.
var ErrStatusConflict = errors.New("booking not found or not in an allowed status")

// BookingRepository defines the interface for booking data access.
type BookingRepository interface {
	// Create inserts the booking and its "requested" audit entry in one
	// transaction.
	Create(ctx context.Context, booking *models.Booking, entry *models.EventLogEntry) error
	// GetByID retrieves a booking by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// GetByReferenceCode retrieves a booking by its external reference code.
	GetByReferenceCode(ctx context.Context, code string) (*models.Booking, error)
	// ReferenceCodeExists reports whether a reference code is already taken.
	ReferenceCodeExists(ctx context.Context, code string) (bool, error)
	// ListForCreator returns a creator's bookings, newest first.
	ListForCreator(ctx context.Context, creatorID string) ([]models.Booking, error)
	// TransitionStatus atomically moves a booking from one of the allowed
	// source states to the target state, applies any extra field updates,
	// and appends the audit entry, all in one transaction. Moving to
	// DECLINED or CANCELLED also retires any ACTIVE quote so the closed
	// booking has nothing left to pay against. It returns ErrStatusConflict
	// when the status predicate matches no document.
	TransitionStatus(ctx context.Context, bookingID string, from []models.BookingStatus, to models.BookingStatus, set bson.M, entry *models.EventLogEntry) error
	// SetAdminNotes updates the admin notes and appends the audit entry in
	// one transaction.
	SetAdminNotes(ctx context.Context, bookingID string, notes string, entry *models.EventLogEntry) error
}
