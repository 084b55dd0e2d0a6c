package quoteRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fannu/booking-server/database"
	bookingRepo "github.com/fannu/booking-server/database/repository/booking"
	eventlogRepo "github.com/fannu/booking-server/database/repository/eventlog"
	"github.com/fannu/booking-server/models"
)

// QuoteCollection is the backing collection name.
const QuoteCollection = "booking_quotes"

// MongoQuoteRepo implements QuoteRepository using MongoDB. Issuing a quote
// touches the booking and the event log as well, so it holds those handles too.
type MongoQuoteRepo struct {
	coll        *mongo.Collection
	bookingColl *mongo.Collection
	eventColl   *mongo.Collection
}

// NewMongoQuoteRepo creates a new instance of QuoteRepository using MongoDB.
func NewMongoQuoteRepo() QuoteRepository {
	repo := &MongoQuoteRepo{
		coll:        database.Collection(QuoteCollection),
		bookingColl: database.Collection(bookingRepo.BookingCollection),
		eventColl:   database.Collection(eventlogRepo.EventLogCollection),
	}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create quote indexes: %v\n", err)
	}
	return repo
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoQuoteRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	// The partial unique index is the database-level guarantee behind "at
	// most one ACTIVE quote per booking"; IssueExclusive still supersedes
	// inside a transaction so racing writers fail cleanly instead of
	// stacking ACTIVE quotes.
	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"status": models.QuoteActive},
			),
		},
		{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// GetByID retrieves a quote by its unique ID. Returns (nil, nil) when absent.
func (r *MongoQuoteRepo) GetByID(ctx context.Context, id string) (*models.Quote, error) {
	var quote models.Quote
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&quote); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch quote with id %s: %w", id, err)
	}
	return &quote, nil
}

// GetActiveForBooking returns the booking's ACTIVE quote. Returns (nil, nil) when absent.
func (r *MongoQuoteRepo) GetActiveForBooking(ctx context.Context, bookingID string) (*models.Quote, error) {
	var quote models.Quote
	filter := bson.M{"booking_id": bookingID, "status": models.QuoteActive}
	if err := r.coll.FindOne(ctx, filter).Decode(&quote); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch active quote for booking %s: %w", bookingID, err)
	}
	return &quote, nil
}

// ListForBooking returns the booking's quote history, newest first.
func (r *MongoQuoteRepo) ListForBooking(ctx context.Context, bookingID string) ([]models.Quote, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"booking_id": bookingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes for booking %s: %w", bookingID, err)
	}
	defer cursor.Close(ctx)

	var quotes []models.Quote
	for cursor.Next(ctx) {
		var q models.Quote
		if err := cursor.Decode(&q); err != nil {
			return nil, fmt.Errorf("failed to decode quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

// IssueExclusive activates the new quote as the booking's only ACTIVE one.
func (r *MongoQuoteRepo) IssueExclusive(
	ctx context.Context,
	quote *models.Quote,
	allowedFrom []models.BookingStatus,
	entry *models.EventLogEntry,
) error {
	now := time.Now()
	quote.CreatedAt = now
	quote.UpdatedAt = now
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}

	err := database.WithTransaction(ctx, r.coll.Database().Client(), func(sc mongo.SessionContext) error {
		// Move the booking to QUOTED first; the status predicate is the
		// guard against concurrent transitions.
		res, err := r.bookingColl.UpdateOne(sc,
			bson.M{"id": quote.BookingID, "status": bson.M{"$in": allowedFrom}},
			bson.M{"$set": bson.M{"status": models.BookingQuoted, "updated_at": now}},
		)
		if err != nil {
			return fmt.Errorf("booking status update failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrBookingNotQuotable
		}

		// Supersede any prior ACTIVE quote before the insert so the partial
		// unique index never sees two ACTIVE rows.
		if _, err := r.coll.UpdateMany(sc,
			bson.M{"booking_id": quote.BookingID, "status": models.QuoteActive},
			bson.M{"$set": bson.M{"status": models.QuoteSuperseded, "updated_at": now}},
		); err != nil {
			return fmt.Errorf("superseding prior quote failed: %w", err)
		}

		if _, err := r.coll.InsertOne(sc, quote); err != nil {
			return fmt.Errorf("insert quote failed: %w", err)
		}
		if _, err := r.eventColl.InsertOne(sc, entry); err != nil {
			return fmt.Errorf("insert audit entry failed: %w", err)
		}
		return nil
	})
	if err == ErrBookingNotQuotable {
		return err
	}
	if err != nil {
		return fmt.Errorf("quote issue transaction failed: %w", err)
	}
	return nil
}

// DeclineExclusive records the booker turning the quote down. The quote and
// booking flips and the audit entry commit together or not at all.
func (r *MongoQuoteRepo) DeclineExclusive(ctx context.Context, quoteID, bookingID string, entry *models.EventLogEntry) error {
	now := time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}

	err := database.WithTransaction(ctx, r.coll.Database().Client(), func(sc mongo.SessionContext) error {
		res, err := r.coll.UpdateOne(sc,
			bson.M{"id": quoteID, "booking_id": bookingID, "status": models.QuoteActive},
			bson.M{"$set": bson.M{"status": models.QuoteDeclined, "updated_at": now}},
		)
		if err != nil {
			return fmt.Errorf("quote update failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrQuoteNotActive
		}

		res, err = r.bookingColl.UpdateOne(sc,
			bson.M{"id": bookingID, "status": models.BookingQuoted},
			bson.M{"$set": bson.M{"status": models.BookingDeclined, "updated_at": now}},
		)
		if err != nil {
			return fmt.Errorf("booking update failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return bookingRepo.ErrStatusConflict
		}

		if _, err := r.eventColl.InsertOne(sc, entry); err != nil {
			return fmt.Errorf("insert audit entry failed: %w", err)
		}
		return nil
	})
	if err == ErrQuoteNotActive || err == bookingRepo.ErrStatusConflict {
		return err
	}
	if err != nil {
		return fmt.Errorf("quote decline transaction failed: %w", err)
	}
	return nil
}

// ExpireStale relabels ACTIVE quotes whose expiry has passed.
func (r *MongoQuoteRepo) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"status": models.QuoteActive, "expires_at": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{"status": models.QuoteExpired, "updated_at": now}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale quotes: %w", err)
	}
	return res.ModifiedCount, nil
}
