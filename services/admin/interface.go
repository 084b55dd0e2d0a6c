package admin

import (
	"context"

	"github.com/fannu/booking-server/models"
)

// AdminService is the privileged moderation surface. Every operation bypasses
// the normal guard table but still validates the booking exists and appends
// an ADMIN-attributed audit entry.
type AdminService interface {
	// ResolveDispute closes a dispute back into target (CONFIRMED or
	// COMPLETED; CONFIRMED when empty).
	ResolveDispute(ctx context.Context, bookingID, adminID string, target models.BookingStatus) error
	// IssueRefund moves a disputed booking into REFUND_PENDING.
	IssueRefund(ctx context.Context, bookingID, adminID string, reason string) error
	// ProcessRefund flips the paid deposit to REFUNDED and the booking to
	// CANCELLED. Allowed from REFUND_PENDING, or from CANCELLED when a paid
	// deposit is still outstanding.
	ProcessRefund(ctx context.Context, bookingID, adminID string) error
	// OverrideStatus force-sets any non-terminal booking to any status.
	OverrideStatus(ctx context.Context, bookingID, adminID string, newStatus models.BookingStatus) error
	// SaveAdminNotes stores moderation notes on the booking.
	SaveAdminNotes(ctx context.Context, bookingID, adminID, notes string) error
}
