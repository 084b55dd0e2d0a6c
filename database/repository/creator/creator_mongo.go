package creatorRepo

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

// CreatorCollection is the backing collection name.
const CreatorCollection = "creators"

// CreatorRepository defines the interface for creator data access.
type CreatorRepository interface {
	// GetByID retrieves a creator by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Creator, error)
	// GetBySlug retrieves a creator by its public slug.
	GetBySlug(ctx context.Context, slug string) (*models.Creator, error)
	// Create inserts a new creator record.
	Create(ctx context.Context, creator *models.Creator) error
}

// MongoCreatorRepo implements CreatorRepository using MongoDB.
type MongoCreatorRepo struct {
	coll *mongo.Collection
}

// NewMongoCreatorRepo creates a new instance of CreatorRepository using MongoDB.
func NewMongoCreatorRepo() CreatorRepository {
	repo := &MongoCreatorRepo{coll: database.Collection(CreatorCollection)}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create creator indexes: %v\n", err)
	}
	return repo
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoCreatorRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// GetByID retrieves a creator by its unique ID. Returns (nil, nil) when absent.
func (r *MongoCreatorRepo) GetByID(ctx context.Context, id string) (*models.Creator, error) {
	var creator models.Creator
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&creator); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch creator with id %s: %w", id, err)
	}
	return &creator, nil
}

// GetBySlug retrieves a creator by its public slug. Returns (nil, nil) when absent.
func (r *MongoCreatorRepo) GetBySlug(ctx context.Context, slug string) (*models.Creator, error) {
	var creator models.Creator
	if err := r.coll.FindOne(ctx, bson.M{"slug": slug}).Decode(&creator); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch creator with slug %s: %w", slug, err)
	}
	return &creator, nil
}

// Create inserts a new creator record.
func (r *MongoCreatorRepo) Create(ctx context.Context, creator *models.Creator) error {
	now := time.Now()
	creator.CreatedAt = now
	creator.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, creator); err != nil {
		return fmt.Errorf("failed to create creator: %w", err)
	}
	return nil
}
