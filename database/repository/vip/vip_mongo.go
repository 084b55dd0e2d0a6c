package vipRepo

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

// VIPCollection is the backing collection name.
const VIPCollection = "vip_subscriptions"

// VIPRepository defines the interface for VIP-list data access.
type VIPRepository interface {
	// GetByCreatorAndPhone returns the subscription for a (creator, phone)
	// pair, if any.
	GetByCreatorAndPhone(ctx context.Context, creatorID, fanPhone string) (*models.VIPSubscription, error)
	// Create inserts a new subscription.
	Create(ctx context.Context, sub *models.VIPSubscription) error
	// Reactivate flips an UNSUBSCRIBED subscription back to ACTIVE.
	Reactivate(ctx context.Context, id string, channel models.VIPChannel, source, sourceRef string) error
	// CountActiveForCreator returns the size of a creator's VIP list.
	CountActiveForCreator(ctx context.Context, creatorID string) (int64, error)
}

// MongoVIPRepo implements VIPRepository using MongoDB.
type MongoVIPRepo struct {
	coll *mongo.Collection
}

// NewMongoVIPRepo creates a new instance of VIPRepository using MongoDB.
func NewMongoVIPRepo() VIPRepository {
	repo := &MongoVIPRepo{coll: database.Collection(VIPCollection)}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create vip indexes: %v\n", err)
	}
	return repo
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoVIPRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys:    bson.D{{Key: "creator_id", Value: 1}, {Key: "fan_phone", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// GetByCreatorAndPhone returns the subscription for a (creator, phone) pair.
// Returns (nil, nil) when absent.
func (r *MongoVIPRepo) GetByCreatorAndPhone(ctx context.Context, creatorID, fanPhone string) (*models.VIPSubscription, error) {
	var sub models.VIPSubscription
	filter := bson.M{"creator_id": creatorID, "fan_phone": fanPhone}
	if err := r.coll.FindOne(ctx, filter).Decode(&sub); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch vip subscription: %w", err)
	}
	return &sub, nil
}

// Create inserts a new subscription.
func (r *MongoVIPRepo) Create(ctx context.Context, sub *models.VIPSubscription) error {
	now := time.Now()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, sub); err != nil {
		return fmt.Errorf("failed to create vip subscription: %w", err)
	}
	return nil
}

// Reactivate flips an UNSUBSCRIBED subscription back to ACTIVE, refreshing the
// capture source.
func (r *MongoVIPRepo) Reactivate(ctx context.Context, id string, channel models.VIPChannel, source, sourceRef string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "status": models.VIPUnsubscribed},
		bson.M{"$set": bson.M{
			"status":     models.VIPActive,
			"channel":    channel,
			"source":     source,
			"source_ref": sourceRef,
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to reactivate vip subscription %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("vip subscription %s is not unsubscribed", id)
	}
	return nil
}

// CountActiveForCreator returns the size of a creator's VIP list.
func (r *MongoVIPRepo) CountActiveForCreator(ctx context.Context, creatorID string) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"creator_id": creatorID, "status": models.VIPActive})
	if err != nil {
		return 0, fmt.Errorf("failed to count vip subscriptions: %w", err)
	}
	return count, nil
}
