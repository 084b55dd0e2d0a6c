package quoteRepo

import (
	"context"
	"errors"
	"time"

	"github.com/fannu/booking-server/models"
)

// ErrBookingNotQuotable is returned by IssueExclusive when the booking is no
// longer in a state that accepts a quote.
var ErrBookingNotQuotable = errors.New("booking not found or not in a quotable status")

// ErrQuoteNotActive is returned by DeclineExclusive when the quote is no
// longer ACTIVE.
var ErrQuoteNotActive = errors.New("quote is not active")

// QuoteRepository defines the interface for quote data access.
type QuoteRepository interface {
	// GetByID retrieves a quote by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Quote, error)
	// GetActiveForBooking returns the booking's ACTIVE quote, if any.
	GetActiveForBooking(ctx context.Context, bookingID string) (*models.Quote, error)
	// ListForBooking returns the booking's full quote history, newest first.
	ListForBooking(ctx context.Context, bookingID string) ([]models.Quote, error)
	// IssueExclusive inserts the quote as the booking's single ACTIVE one:
	// it supersedes any prior ACTIVE quote, moves the booking to QUOTED and
	// appends the audit entry, all in one transaction. Returns
	// ErrBookingNotQuotable when the booking is not in an allowed state.
	IssueExclusive(ctx context.Context, quote *models.Quote, allowedFrom []models.BookingStatus, entry *models.EventLogEntry) error
	// DeclineExclusive flips the ACTIVE quote to DECLINED, moves the booking
	// from QUOTED to DECLINED and appends the audit entry, all in one
	// transaction. Returns ErrQuoteNotActive when the quote predicate
	// misses, and the booking package's ErrStatusConflict when the booking
	// one does; neither leaves a partial write behind.
	DeclineExclusive(ctx context.Context, quoteID, bookingID string, entry *models.EventLogEntry) error
	// ExpireStale flips ACTIVE quotes whose expiry has passed to EXPIRED and
	// returns how many were touched. Used by the background sweep only; the
	// point-of-payment check never relies on it.
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}
