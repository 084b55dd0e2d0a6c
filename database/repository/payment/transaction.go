package paymentRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fannu/booking-server/database"
	"github.com/fannu/booking-server/models"
)

// ApplyDepositPaid commits the success cascade: payment PAID, quote ACCEPTED,
// booking DEPOSIT_PAID, plus the deposit_paid audit entry. The PENDING status
// predicate on the payment makes a redelivered success webhook a clean
// ErrAlreadyResolved instead of a double application; the ACTIVE and QUOTED
// predicates on the quote and booking abort the whole cascade when either
// side closed while the charge was in flight, so a settled charge can never
// revive a declined or cancelled booking.
func (r *MongoPaymentRepo) ApplyDepositPaid(ctx context.Context, payment *models.Payment, entry *models.EventLogEntry) error {
	now := time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}

	err := database.WithTransaction(ctx, r.coll.Database().Client(), func(sc mongo.SessionContext) error {
		res, err := r.coll.UpdateOne(sc,
			bson.M{"id": payment.ID, "status": models.PaymentPending},
			bson.M{"$set": bson.M{"status": models.PaymentPaid, "paid_at": now}},
		)
		if err != nil {
			return fmt.Errorf("payment update failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrAlreadyResolved
		}

		res, err = r.quoteColl.UpdateOne(sc,
			bson.M{"id": payment.QuoteID, "status": models.QuoteActive},
			bson.M{"$set": bson.M{"status": models.QuoteAccepted, "updated_at": now}},
		)
		if err != nil {
			return fmt.Errorf("quote update failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrNotPayable
		}

		res, err = r.bookingColl.UpdateOne(sc,
			bson.M{"id": payment.BookingID, "status": models.BookingQuoted},
			bson.M{"$set": bson.M{"status": models.BookingDepositPaid, "updated_at": now}},
		)
		if err != nil {
			return fmt.Errorf("booking update failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrNotPayable
		}

		if _, err := r.eventColl.InsertOne(sc, entry); err != nil {
			return fmt.Errorf("insert audit entry failed: %w", err)
		}
		return nil
	})
	if err == ErrAlreadyResolved || err == ErrNotPayable {
		return err
	}
	if err != nil {
		return fmt.Errorf("deposit apply transaction failed: %w", err)
	}
	return nil
}

// MarkFailed records a failed charge. The booking stays QUOTED so the booker
// can retry against the same quote.
func (r *MongoPaymentRepo) MarkFailed(ctx context.Context, payment *models.Payment, entry *models.EventLogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	err := database.WithTransaction(ctx, r.coll.Database().Client(), func(sc mongo.SessionContext) error {
		res, err := r.coll.UpdateOne(sc,
			bson.M{"id": payment.ID, "status": models.PaymentPending},
			bson.M{"$set": bson.M{"status": models.PaymentFailed}},
		)
		if err != nil {
			return fmt.Errorf("payment update failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrAlreadyResolved
		}
		if _, err := r.eventColl.InsertOne(sc, entry); err != nil {
			return fmt.Errorf("insert audit entry failed: %w", err)
		}
		return nil
	})
	if err == ErrAlreadyResolved {
		return err
	}
	if err != nil {
		return fmt.Errorf("payment failure transaction failed: %w", err)
	}
	return nil
}

// ProcessRefund flips a PAID deposit to REFUNDED and forces the booking to
// CANCELLED with the refund_processed audit entry.
func (r *MongoPaymentRepo) ProcessRefund(ctx context.Context, payment *models.Payment, entry *models.EventLogEntry) error {
	now := time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}

	err := database.WithTransaction(ctx, r.coll.Database().Client(), func(sc mongo.SessionContext) error {
		res, err := r.coll.UpdateOne(sc,
			bson.M{"id": payment.ID, "status": models.PaymentPaid},
			bson.M{"$set": bson.M{"status": models.PaymentRefunded}},
		)
		if err != nil {
			return fmt.Errorf("payment update failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrNotRefundable
		}

		if _, err := r.bookingColl.UpdateOne(sc,
			bson.M{"id": payment.BookingID},
			bson.M{"$set": bson.M{"status": models.BookingCancelled, "updated_at": now}},
		); err != nil {
			return fmt.Errorf("booking update failed: %w", err)
		}

		if _, err := r.eventColl.InsertOne(sc, entry); err != nil {
			return fmt.Errorf("insert audit entry failed: %w", err)
		}
		return nil
	})
	if err == ErrNotRefundable {
		return err
	}
	if err != nil {
		return fmt.Errorf("refund transaction failed: %w", err)
	}
	return nil
}
