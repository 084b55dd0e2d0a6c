package booking_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fannu/booking-server/models"
	"github.com/fannu/booking-server/services/booking"
)

func TestInitiateDepositPayment_Success(t *testing.T) {
	f := newFixture()
	creator := f.seedCreator("dj-test")
	b := f.seedBooking(creator.ID, models.BookingQuoted)
	q := f.seedQuote(b.ID, models.QuoteActive, time.Now().Add(48*time.Hour))

	p, err := f.pay.InitiateDepositPayment(context.Background(), b.ID, q.ID)

	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, models.PaymentPaid, p.Status)
	assert.Equal(t, q.DepositAmount, p.Amount)
	assert.Equal(t, "KES", p.Currency)
	assert.True(t, strings.HasPrefix(p.ReceiptID, "RC-"), "receipt id %q", p.ReceiptID)
	require.NotNil(t, p.PaidAt)

	assert.Equal(t, models.BookingDepositPaid, f.bookingStatus(b.ID))
	assert.Equal(t, models.QuoteAccepted, f.quoteStatus(q.ID))
	assert.Equal(t, 1, f.store.countEvents(b.ID, models.EventDepositPaid))
	assert.Equal(t, 1, f.gateway.calls)
}

func TestInitiateDepositPayment_IdempotentRetry(t *testing.T) {
	f := newFixture()
	creator := f.seedCreator("dj-test")
	b := f.seedBooking(creator.ID, models.BookingQuoted)
	q := f.seedQuote(b.ID, models.QuoteActive, time.Now().Add(48*time.Hour))

	first, err := f.pay.InitiateDepositPayment(context.Background(), b.ID, q.ID)
	require.NoError(t, err)

	second, err := f.pay.InitiateDepositPayment(context.Background(), b.ID, q.ID)
	require.NoError(t, err)

	// The retry returns the existing receipt: no second charge, no second
	// payment record, no second audit entry.
	assert.Equal(t, first.ReceiptID, second.ReceiptID)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.store.payments, 1)
	assert.Equal(t, 1, f.store.countEvents(b.ID, models.EventDepositPaid))
	assert.Equal(t, 1, f.gateway.calls)
}

func TestInitiateDepositPayment_DeclinedBookingRejected(t *testing.T) {
	f := newFixture()
	creator := f.seedCreator("dj-test")
	b := f.seedBooking(creator.ID, models.BookingQuoted)
	q := f.seedQuote(b.ID, models.QuoteActive, time.Now().Add(48*time.Hour))

	require.NoError(t, f.svc.DeclineBooking(context.Background(), b.ID, "not available"))

	_, err := f.pay.InitiateDepositPayment(context.Background(), b.ID, q.ID)

	// A closed booking takes no money: no charge, no payment row, and the
	// booking stays exactly where the decline left it.
	var tr *booking.InvalidStateTransitionError
	require.ErrorAs(t, err, &tr)
	assert.Equal(t, models.BookingDeclined, tr.From)
	assert.Equal(t, 0, f.gateway.calls)
	assert.Empty(t, f.store.payments)
	assert.Equal(t, models.BookingDeclined, f.bookingStatus(b.ID))
}

func TestInitiateDepositPayment_CancelledBookingRejected(t *testing.T) {
	f := newFixture()
	creator := f.seedCreator("dj-test")
	b := f.seedBooking(creator.ID, models.BookingQuoted)
	q := f.seedQuote(b.ID, models.QuoteActive, time.Now().Add(48*time.Hour))

	require.NoError(t, f.svc.CancelBooking(context.Background(), b.ID, models.ActorBooker, "changed plans"))

	_, err := f.pay.InitiateDepositPayment(context.Background(), b.ID, q.ID)

	var tr *booking.InvalidStateTransitionError
	require.ErrorAs(t, err, &tr)
	assert.Equal(t, models.BookingCancelled, tr.From)
	assert.Equal(t, 0, f.gateway.calls)
	assert.Empty(t, f.store.payments)
}

func TestInitiateDepositPayment_BookingClosesMidCharge(t *testing.T) {
	f := newFixture()
	creator := f.seedCreator("dj-test")
	b := f.seedBooking(creator.ID, models.BookingQuoted)
	q := f.seedQuote(b.ID, models.QuoteActive, time.Now().Add(48*time.Hour))

	// A concurrent cancellation lands while the provider holds the charge.
	f.gateway.onCharge = func() {
		require.NoError(t, f.svc.CancelBooking(context.Background(), b.ID, models.ActorBooker, "changed plans"))
	}

	_, err := f.pay.InitiateDepositPayment(context.Background(), b.ID, q.ID)

	// The cascade aborts, the charge is reversed, and the cancelled booking
	// never flips to DEPOSIT_PAID.
	var conflict *booking.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 1, f.gateway.refunds)
	assert.Equal(t, models.BookingCancelled, f.bookingStatus(b.ID))
	assert.Equal(t, 0, f.store.countEvents(b.ID, models.EventDepositPaid))
	assert.Equal(t, 1, f.store.countEvents(b.ID, models.EventPaymentFailed))

	require.Len(t, f.store.payments, 1)
	for _, row := range f.store.payments {
		assert.Equal(t, models.PaymentFailed, row.Status)
	}
}

func TestInitiateDepositPayment_ExpiredQuote(t *testing.T) {
	f := newFixture()
	creator := f.seedCreator("dj-test")
	b := f.seedBooking(creator.ID, models.BookingQuoted)
	// Still labeled ACTIVE: the sweep has not run yet. The checkout path must
	// reject it anyway.
	q := f.seedQuote(b.ID, models.QuoteActive, time.Now().Add(-time.Hour))

	_, err := f.pay.InitiateDepositPayment(context.Background(), b.ID, q.ID)

	var exp *booking.QuoteExpiredError
	require.ErrorAs(t, err, &exp)
	assert.Equal(t, q.ID, exp.QuoteID)
	assert.Empty(t, f.store.payments)
	assert.Equal(t, 0, f.gateway.calls)
	assert.Equal(t, models.BookingQuoted, f.bookingStatus(b.ID))
}

func TestInitiateDepositPayment_SupersededQuote(t *testing.T) {
	f := newFixture()
	creator := f.seedCreator("dj-test")
	b := f.seedBooking(creator.ID, models.BookingQuoted)
	q := f.seedQuote(b.ID, models.QuoteSuperseded, time.Now().Add(48*time.Hour))

	_, err := f.pay.InitiateDepositPayment(context.Background(), b.ID, q.ID)

	var na *booking.QuoteNotActiveError
	require.ErrorAs(t, err, &na)
	assert.Equal(t, models.QuoteSuperseded, na.Status)
	assert.Empty(t, f.store.payments)
}

func TestInitiateDepositPayment_QuoteFromOtherBooking(t *testing.T) {
	f := newFixture()
	creator := f.seedCreator("dj-test")
	b := f.seedBooking(creator.ID, models.BookingQuoted)
	other := f.seedBooking(creator.ID, models.BookingQuoted)
	q := f.seedQuote(other.ID, models.QuoteActive, time.Now().Add(48*time.Hour))

	_, err := f.pay.InitiateDepositPayment(context.Background(), b.ID, q.ID)

	var nf *booking.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "quote", nf.Resource)
}

func TestInitiateDepositPayment_GatewayDeclines(t *testing.T) {
	f := newFixture()
	creator := f.seedCreator("dj-test")
	b := f.seedBooking(creator.ID, models.BookingQuoted)
	q := f.seedQuote(b.ID, models.QuoteActive, time.Now().Add(48*time.Hour))
	f.gateway.outcomes = []booking.PaymentOutcome{booking.OutcomeFailed, booking.OutcomeSucceeded}

	_, err := f.pay.InitiateDepositPayment(context.Background(), b.ID, q.ID)

	var pf *booking.PaymentFailedError
	require.ErrorAs(t, err, &pf)

	// The booking stays QUOTED and the quote stays ACTIVE so the booker can
	// retry against the same quote.
	assert.Equal(t, models.BookingQuoted, f.bookingStatus(b.ID))
	assert.Equal(t, models.QuoteActive, f.quoteStatus(q.ID))
	assert.Equal(t, 1, f.store.countEvents(b.ID, models.EventPaymentFailed))

	// The retry opens a fresh payment record; the FAILED one stays behind as
	// a historical row.
	p, err := f.pay.InitiateDepositPayment(context.Background(), b.ID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, p.Status)
	assert.Equal(t, models.BookingDepositPaid, f.bookingStatus(b.ID))
	assert.Len(t, f.store.payments, 2)
}

func TestHandleWebhook_SucceededAppliesOnce(t *testing.T) {
	f := newFixture()
	creator := f.seedCreator("dj-test")
	b := f.seedBooking(creator.ID, models.BookingQuoted)
	q := f.seedQuote(b.ID, models.QuoteActive, time.Now().Add(48*time.Hour))

	p, err := f.pay.InitiateDepositPayment(context.Background(), b.ID, q.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentPaid, p.Status)

	// Redelivery with the same outcome acknowledges without a second entry.
	require.NoError(t, f.pay.HandleWebhook(context.Background(), p.PSPRef, booking.OutcomeSucceeded))
	require.NoError(t, f.pay.HandleWebhook(context.Background(), p.PSPRef, booking.OutcomeSucceeded))
	assert.Equal(t, 1, f.store.countEvents(b.ID, models.EventDepositPaid))

	// A contradictory outcome for a settled payment is an error, never a
	// silent overwrite.
	err = f.pay.HandleWebhook(context.Background(), p.PSPRef, booking.OutcomeFailed)
	assert.Error(t, err)
	assert.Equal(t, models.BookingDepositPaid, f.bookingStatus(b.ID))
}

func TestHandleWebhook_UnknownRef(t *testing.T) {
	f := newFixture()

	err := f.pay.HandleWebhook(context.Background(), "pp_UNKNOWN", booking.OutcomeSucceeded)

	var nf *booking.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "payment", nf.Resource)
}

func TestGetReceipt(t *testing.T) {
	f := newFixture()
	creator := f.seedCreator("dj-test")
	b := f.seedBooking(creator.ID, models.BookingQuoted)
	q := f.seedQuote(b.ID, models.QuoteActive, time.Now().Add(48*time.Hour))

	p, err := f.pay.InitiateDepositPayment(context.Background(), b.ID, q.ID)
	require.NoError(t, err)

	got, err := f.pay.GetReceipt(context.Background(), p.ReceiptID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = f.pay.GetReceipt(context.Background(), "RC-MISSING")
	var nf *booking.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

// TestDepositLifecycle walks the happy path end to end: request, quote,
// deposit, confirm, complete.
func TestDepositLifecycle(t *testing.T) {
	f := newFixture()
	f.seedCreator("dj-test")
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, validCreateInput("dj-test"))
	require.NoError(t, err)

	q, err := f.svc.IssueQuote(ctx, b.ID, validQuoteInput())
	require.NoError(t, err)

	p, err := f.pay.InitiateDepositPayment(ctx, b.ID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, p.Status)

	require.NoError(t, f.svc.ConfirmBooking(ctx, b.ID))
	require.NoError(t, f.svc.CompleteBooking(ctx, b.ID))
	assert.Equal(t, models.BookingCompleted, f.bookingStatus(b.ID))

	events, err := f.svc.ListEvents(ctx, b.ID)
	require.NoError(t, err)
	var types []string
	for _, e := range events {
		types = append(types, e.EventType)
	}
	assert.Equal(t, []string{
		models.EventRequested,
		models.EventQuoteSent,
		models.EventDepositPaid,
		models.EventBookingConfirmed,
		models.EventBookingCompleted,
	}, types)
}
