package paymentRepo

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
	quoteRepo "github.com/fannu/booking-server/database/repository/quote"
	"github.com/fannu/booking-server/models"
)

// PaymentCollection is the backing collection name.
const PaymentCollection = "booking_payments"

// MongoPaymentRepo implements PaymentRepository using MongoDB. Resolving a
// payment cascades into the quote, booking and event log collections, so the
// repo holds handles on all four.
type MongoPaymentRepo struct {
	coll        *mongo.Collection
	quoteColl   *mongo.Collection
	bookingColl *mongo.Collection
	eventColl   *mongo.Collection
}

// NewMongoPaymentRepo creates a new instance of PaymentRepository using MongoDB.
func NewMongoPaymentRepo() PaymentRepository {
	repo := &MongoPaymentRepo{
		coll:        database.Collection(PaymentCollection),
		quoteColl:   database.Collection(quoteRepo.QuoteCollection),
		bookingColl: database.Collection(bookingRepo.BookingCollection),
		eventColl:   database.Collection(eventlogRepo.EventLogCollection),
	}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create payment indexes: %v\n", err)
	}
	return repo
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoPaymentRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	// The partial unique index enforces "at most one non-FAILED deposit per
	// (booking, quote)" at the database level; a racing second initiation
	// fails the insert instead of double-charging.
	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "receipt_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "psp_ref", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "quote_id", Value: 1}, {Key: "type", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"type": models.PaymentDeposit, "status": bson.M{"$ne": models.PaymentFailed}},
			),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create inserts a new payment record.
func (r *MongoPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	payment.CreatedAt = time.Now()
	if _, err := r.coll.InsertOne(ctx, payment); err != nil {
		return fmt.Errorf("failed to create payment for booking %s: %w", payment.BookingID, err)
	}
	return nil
}

func (r *MongoPaymentRepo) findOne(ctx context.Context, filter bson.M) (*models.Payment, error) {
	var payment models.Payment
	if err := r.coll.FindOne(ctx, filter).Decode(&payment); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch payment: %w", err)
	}
	return &payment, nil
}

// GetByID retrieves a payment by its unique ID. Returns (nil, nil) when absent.
func (r *MongoPaymentRepo) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

// GetByReceiptID retrieves a payment by receipt id. Returns (nil, nil) when absent.
func (r *MongoPaymentRepo) GetByReceiptID(ctx context.Context, receiptID string) (*models.Payment, error) {
	return r.findOne(ctx, bson.M{"receipt_id": receiptID})
}

// GetByPSPRef retrieves a payment by provider reference. Returns (nil, nil) when absent.
func (r *MongoPaymentRepo) GetByPSPRef(ctx context.Context, pspRef string) (*models.Payment, error) {
	return r.findOne(ctx, bson.M{"psp_ref": pspRef})
}

// FindDepositForQuote returns the non-FAILED deposit on a (booking, quote) pair.
func (r *MongoPaymentRepo) FindDepositForQuote(ctx context.Context, bookingID, quoteID string) (*models.Payment, error) {
	return r.findOne(ctx, bson.M{
		"booking_id": bookingID,
		"quote_id":   quoteID,
		"type":       models.PaymentDeposit,
		"status":     bson.M{"$ne": models.PaymentFailed},
	})
}

// FindPaidDepositForBooking returns the booking's PAID deposit, if any.
func (r *MongoPaymentRepo) FindPaidDepositForBooking(ctx context.Context, bookingID string) (*models.Payment, error) {
	return r.findOne(ctx, bson.M{
		"booking_id": bookingID,
		"type":       models.PaymentDeposit,
		"status":     models.PaymentPaid,
	})
}

// ReceiptIDExists reports whether a receipt id is already taken.
func (r *MongoPaymentRepo) ReceiptIDExists(ctx context.Context, receiptID string) (bool, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"receipt_id": receiptID})
	if err != nil {
		return false, fmt.Errorf("failed to check receipt id %s: %w", receiptID, err)
	}
	return count > 0, nil
}
