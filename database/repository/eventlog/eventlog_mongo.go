package eventlogRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fannu/booking-server/database"
	"github.com/fannu/booking-server/models"
)

// EventLogCollection is the backing collection name.
const EventLogCollection = "booking_event_log"

// MongoEventLogRepo implements EventLogRepository using MongoDB.
type MongoEventLogRepo struct {
	coll *mongo.Collection
}

// NewMongoEventLogRepo creates a new instance of EventLogRepository using MongoDB.
func NewMongoEventLogRepo() EventLogRepository {
	coll := database.Collection(EventLogCollection)
	repo := &MongoEventLogRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create event log indexes: %v\n", err)
	}
	return repo
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoEventLogRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "created_at", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Record appends a single audit entry.
func (r *MongoEventLogRepo) Record(ctx context.Context, entry *models.EventLogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to record event %s for booking %s: %w", entry.EventType, entry.BookingID, err)
	}
	return nil
}

// ListForBooking returns all entries for a booking, oldest first.
func (r *MongoEventLogRepo) ListForBooking(ctx context.Context, bookingID string) ([]models.EventLogEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"booking_id": bookingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for booking %s: %w", bookingID, err)
	}
	defer cursor.Close(ctx)

	var entries []models.EventLogEntry
	for cursor.Next(ctx) {
		var e models.EventLogEntry
		if err := cursor.Decode(&e); err != nil {
			return nil, fmt.Errorf("failed to decode event log entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
