package paymentRepo

import (
	"context"
	"errors"

	"github.com/fannu/booking-server/models"
)

// ErrAlreadyResolved is returned by the resolution methods when the payment is
// no longer PENDING. Webhook redelivery hits this path; callers treat a
// matching prior outcome as success.
var ErrAlreadyResolved = errors.New("payment already resolved")

// ErrNotRefundable is returned by ProcessRefund when the deposit is not PAID.
var ErrNotRefundable = errors.New("payment is not in a refundable status")

// ErrNotPayable is returned by ApplyDepositPaid when the booking or quote
// left the payable state while the charge was in flight. The transaction is
// rolled back; the caller must reverse the charge.
var ErrNotPayable = errors.New("booking or quote no longer accepts a deposit")

// PaymentRepository defines the interface for payment data access.
type PaymentRepository interface {
	// Create inserts a new payment record.
	Create(ctx context.Context, payment *models.Payment) error
	// GetByID retrieves a payment by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	// GetByReceiptID retrieves a payment by its human-shareable receipt id.
	GetByReceiptID(ctx context.Context, receiptID string) (*models.Payment, error)
	// GetByPSPRef retrieves a payment by the provider transaction reference.
	GetByPSPRef(ctx context.Context, pspRef string) (*models.Payment, error)
	// FindDepositForQuote returns the non-FAILED deposit payment on a
	// (booking, quote) pair, if any.
	FindDepositForQuote(ctx context.Context, bookingID, quoteID string) (*models.Payment, error)
	// FindPaidDepositForBooking returns the booking's PAID deposit, if any.
	FindPaidDepositForBooking(ctx context.Context, bookingID string) (*models.Payment, error)
	// ReceiptIDExists reports whether a receipt id is already taken.
	ReceiptIDExists(ctx context.Context, receiptID string) (bool, error)
	// ApplyDepositPaid marks the payment PAID, the quote ACCEPTED and the
	// booking DEPOSIT_PAID, and appends the audit entry in one transaction.
	// All three updates carry status predicates: it returns
	// ErrAlreadyResolved when the payment is no longer PENDING, and
	// ErrNotPayable when the quote is no longer ACTIVE or the booking no
	// longer QUOTED.
	ApplyDepositPaid(ctx context.Context, payment *models.Payment, entry *models.EventLogEntry) error
	// MarkFailed marks the payment FAILED and appends the audit entry in
	// one transaction. The booking is left untouched so the booker can
	// retry against the same quote. Returns ErrAlreadyResolved when the
	// payment is no longer PENDING.
	MarkFailed(ctx context.Context, payment *models.Payment, entry *models.EventLogEntry) error
	// ProcessRefund flips a PAID deposit to REFUNDED, forces the booking to
	// CANCELLED and appends the audit entry in one transaction. Returns
	// ErrNotRefundable when the payment is not PAID.
	ProcessRefund(ctx context.Context, payment *models.Payment, entry *models.EventLogEntry) error
}
