package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fannu/booking-server/database"
	"github.com/fannu/booking-server/models"
)

// TransitionStatus moves a booking to the target status, guarded by a status
// predicate so concurrent writers cannot both win the same transition. The
// status update, any quote retirement and the audit entry commit in one
// transaction.
func (r *MongoBookingRepo) TransitionStatus(
	ctx context.Context,
	bookingID string,
	from []models.BookingStatus,
	to models.BookingStatus,
	set bson.M,
	entry *models.EventLogEntry,
) error {
	now := time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}

	update := bson.M{
		"status":     to,
		"updated_at": now,
	}
	for k, v := range set {
		update[k] = v
	}

	filter := bson.M{
		"id":     bookingID,
		"status": bson.M{"$in": from},
	}

	err := database.WithTransaction(ctx, r.coll.Database().Client(), func(sc mongo.SessionContext) error {
		res, err := r.coll.UpdateOne(sc, filter, bson.M{"$set": update})
		if err != nil {
			return fmt.Errorf("status update failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrStatusConflict
		}
		// An open quote cannot outlive its booking: once the booking is
		// declined or cancelled there must be nothing left to pay against.
		if to == models.BookingDeclined || to == models.BookingCancelled {
			if _, err := r.quoteColl.UpdateMany(sc,
				bson.M{"booking_id": bookingID, "status": models.QuoteActive},
				bson.M{"$set": bson.M{"status": models.QuoteSuperseded, "updated_at": now}},
			); err != nil {
				return fmt.Errorf("retiring active quote failed: %w", err)
			}
		}
		if _, err := r.eventColl.InsertOne(sc, entry); err != nil {
			return fmt.Errorf("insert audit entry failed: %w", err)
		}
		return nil
	})
	if err == ErrStatusConflict {
		return err
	}
	if err != nil {
		return fmt.Errorf("booking transition failed: %w", err)
	}
	return nil
}

// SetAdminNotes writes the moderation notes and appends the audit entry in
// one transaction. Notes do not touch the booking status.
func (r *MongoBookingRepo) SetAdminNotes(ctx context.Context, bookingID string, notes string, entry *models.EventLogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	err := database.WithTransaction(ctx, r.coll.Database().Client(), func(sc mongo.SessionContext) error {
		res, err := r.coll.UpdateOne(sc, bson.M{"id": bookingID}, bson.M{
			"$set": bson.M{"admin_notes": notes, "updated_at": time.Now()},
		})
		if err != nil {
			return fmt.Errorf("notes update failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrStatusConflict
		}
		if _, err := r.eventColl.InsertOne(sc, entry); err != nil {
			return fmt.Errorf("insert audit entry failed: %w", err)
		}
		return nil
	})
	if err == ErrStatusConflict {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to save admin notes: %w", err)
	}
	return nil
}
