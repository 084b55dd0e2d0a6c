package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fannu/booking-server/database"
	eventlogRepo "github.com/fannu/booking-server/database/repository/eventlog"
	"github.com/fannu/booking-server/models"
)

// BookingCollection is the backing collection name.
const BookingCollection = "bookings"

// quoteCollection matches quoteRepo.QuoteCollection; the quote package already
// imports this one, so the constant cannot be referenced directly.
const quoteCollection = "booking_quotes"

// MongoBookingRepo implements BookingRepository using MongoDB. It holds
// handles on the event log and quote collections as well: status changes
// commit together with their audit entries, and closing a booking retires its
// open quote in the same transaction.
type MongoBookingRepo struct {
	coll      *mongo.Collection
	eventColl *mongo.Collection
	quoteColl *mongo.Collection
}

// NewMongoBookingRepo creates a new instance of BookingRepository using MongoDB.
func NewMongoBookingRepo() BookingRepository {
	repo := &MongoBookingRepo{
		coll:      database.Collection(BookingCollection),
		eventColl: database.Collection(eventlogRepo.EventLogCollection),
		quoteColl: database.Collection(quoteCollection),
	}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create booking indexes: %v\n", err)
	}
	return repo
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoBookingRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "reference_code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "creator_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create inserts a new booking together with its first audit entry.
func (r *MongoBookingRepo) Create(ctx context.Context, booking *models.Booking, entry *models.EventLogEntry) error {
	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}

	err := database.WithTransaction(ctx, r.coll.Database().Client(), func(sc mongo.SessionContext) error {
		if _, err := r.coll.InsertOne(sc, booking); err != nil {
			return fmt.Errorf("insert booking failed: %w", err)
		}
		if _, err := r.eventColl.InsertOne(sc, entry); err != nil {
			return fmt.Errorf("insert audit entry failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by its unique ID. Returns (nil, nil) when absent.
func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&booking); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch booking with id %s: %w", id, err)
	}
	return &booking, nil
}

// GetByReferenceCode retrieves a booking by its external code. Returns (nil, nil) when absent.
func (r *MongoBookingRepo) GetByReferenceCode(ctx context.Context, code string) (*models.Booking, error) {
	var booking models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"reference_code": code}).Decode(&booking); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch booking with reference code %s: %w", code, err)
	}
	return &booking, nil
}

// ReferenceCodeExists reports whether a reference code is already taken.
func (r *MongoBookingRepo) ReferenceCodeExists(ctx context.Context, code string) (bool, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"reference_code": code})
	if err != nil {
		return false, fmt.Errorf("failed to check reference code %s: %w", code, err)
	}
	return count > 0, nil
}

// ListForCreator returns a creator's bookings, newest first.
func (r *MongoBookingRepo) ListForCreator(ctx context.Context, creatorID string) ([]models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"creator_id": creatorID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for creator %s: %w", creatorID, err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	for cursor.Next(ctx) {
		var b models.Booking
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("failed to decode booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}
