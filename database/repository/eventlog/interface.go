package eventlogRepo

import (
	"context"

	"github.com/fannu/booking-server/models"
)

// EventLogRepository is the append-only audit trail. There is deliberately no
// update or delete operation on this interface.
type EventLogRepository interface {
	// Record appends a single entry.
	Record(ctx context.Context, entry *models.EventLogEntry) error
	// ListForBooking returns all entries for a booking in creation order.
	ListForBooking(ctx context.Context, bookingID string) ([]models.EventLogEntry, error)
}
