package booking_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/fannu/booking-server/config"
	bookingRepo "github.com/fannu/booking-server/database/repository/booking"
	paymentRepo "github.com/fannu/booking-server/database/repository/payment"
	quoteRepo "github.com/fannu/booking-server/database/repository/quote"
	"github.com/fannu/booking-server/models"
	"github.com/fannu/booking-server/services/booking"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// memStore is a single in-memory backing store shared by the fake repos, so
// the cross-document transactions behave like the real thing: one guarded
// status change plus its audit entry, applied together or not at all.
type memStore struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
	quotes   map[string]*models.Quote
	payments map[string]*models.Payment
	creators map[string]*models.Creator
	events   []models.EventLogEntry
}

func newMemStore() *memStore {
	return &memStore{
		bookings: map[string]*models.Booking{},
		quotes:   map[string]*models.Quote{},
		payments: map[string]*models.Payment{},
		creators: map[string]*models.Creator{},
	}
}

func (s *memStore) appendEventLocked(entry *models.EventLogEntry) {
	cp := *entry
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.events = append(s.events, cp)
}

func (s *memStore) eventsForBooking(bookingID string) []models.EventLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.EventLogEntry
	for _, e := range s.events {
		if e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	return out
}

func (s *memStore) countEvents(bookingID, eventType string) int {
	n := 0
	for _, e := range s.eventsForBooking(bookingID) {
		if e.EventType == eventType {
			n++
		}
	}
	return n
}

func containsStatus(list []models.BookingStatus, status models.BookingStatus) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}

type fakeBookingRepo struct{ store *memStore }

func (r *fakeBookingRepo) Create(ctx context.Context, b *models.Booking, entry *models.EventLogEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.bookings[b.ID]; ok {
		return errors.New("duplicate booking id")
	}
	for _, existing := range r.store.bookings {
		if existing.ReferenceCode == b.ReferenceCode {
			return errors.New("duplicate reference code")
		}
	}
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	cp := *b
	r.store.bookings[b.ID] = &cp
	r.store.appendEventLocked(entry)
	return nil
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) GetByReferenceCode(ctx context.Context, code string) (*models.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, b := range r.store.bookings {
		if b.ReferenceCode == code {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeBookingRepo) ReferenceCodeExists(ctx context.Context, code string) (bool, error) {
	b, err := r.GetByReferenceCode(ctx, code)
	return b != nil, err
}

func (r *fakeBookingRepo) ListForCreator(ctx context.Context, creatorID string) ([]models.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.Booking
	for _, b := range r.store.bookings {
		if b.CreatorID == creatorID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeBookingRepo) TransitionStatus(ctx context.Context, bookingID string, from []models.BookingStatus, to models.BookingStatus, set bson.M, entry *models.EventLogEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.bookings[bookingID]
	if !ok || !containsStatus(from, b.Status) {
		return bookingRepo.ErrStatusConflict
	}
	b.Status = to
	b.UpdatedAt = time.Now()
	if v, ok := set["decline_reason"].(string); ok {
		b.DeclineReason = v
	}
	if v, ok := set["cancellation_reason"].(string); ok {
		b.CancellationReason = v
	}
	if to == models.BookingDeclined || to == models.BookingCancelled {
		for _, q := range r.store.quotes {
			if q.BookingID == bookingID && q.Status == models.QuoteActive {
				q.Status = models.QuoteSuperseded
				q.UpdatedAt = time.Now()
			}
		}
	}
	r.store.appendEventLocked(entry)
	return nil
}

func (r *fakeBookingRepo) SetAdminNotes(ctx context.Context, bookingID string, notes string, entry *models.EventLogEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.bookings[bookingID]
	if !ok {
		return bookingRepo.ErrStatusConflict
	}
	b.AdminNotes = notes
	b.UpdatedAt = time.Now()
	r.store.appendEventLocked(entry)
	return nil
}

type fakeQuoteRepo struct{ store *memStore }

func (r *fakeQuoteRepo) GetByID(ctx context.Context, id string) (*models.Quote, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	q, ok := r.store.quotes[id]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (r *fakeQuoteRepo) GetActiveForBooking(ctx context.Context, bookingID string) (*models.Quote, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, q := range r.store.quotes {
		if q.BookingID == bookingID && q.Status == models.QuoteActive {
			cp := *q
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeQuoteRepo) ListForBooking(ctx context.Context, bookingID string) ([]models.Quote, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.Quote
	for _, q := range r.store.quotes {
		if q.BookingID == bookingID {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeQuoteRepo) IssueExclusive(ctx context.Context, quote *models.Quote, allowedFrom []models.BookingStatus, entry *models.EventLogEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.bookings[quote.BookingID]
	if !ok || !containsStatus(allowedFrom, b.Status) {
		return quoteRepo.ErrBookingNotQuotable
	}
	for _, q := range r.store.quotes {
		if q.BookingID == quote.BookingID && q.Status == models.QuoteActive {
			q.Status = models.QuoteSuperseded
			q.UpdatedAt = time.Now()
		}
	}
	now := time.Now()
	quote.CreatedAt = now
	quote.UpdatedAt = now
	cp := *quote
	r.store.quotes[quote.ID] = &cp
	b.Status = models.BookingQuoted
	b.UpdatedAt = now
	r.store.appendEventLocked(entry)
	return nil
}

func (r *fakeQuoteRepo) DeclineExclusive(ctx context.Context, quoteID, bookingID string, entry *models.EventLogEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	q, ok := r.store.quotes[quoteID]
	if !ok || q.BookingID != bookingID || q.Status != models.QuoteActive {
		return quoteRepo.ErrQuoteNotActive
	}
	b, ok := r.store.bookings[bookingID]
	if !ok || b.Status != models.BookingQuoted {
		return bookingRepo.ErrStatusConflict
	}
	now := time.Now()
	q.Status = models.QuoteDeclined
	q.UpdatedAt = now
	b.Status = models.BookingDeclined
	b.UpdatedAt = now
	r.store.appendEventLocked(entry)
	return nil
}

func (r *fakeQuoteRepo) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var count int64
	for _, q := range r.store.quotes {
		if q.Status == models.QuoteActive && !now.Before(q.ExpiresAt) {
			q.Status = models.QuoteExpired
			q.UpdatedAt = now
			count++
		}
	}
	return count, nil
}

type fakePaymentRepo struct{ store *memStore }

func (r *fakePaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.payments {
		if existing.BookingID == p.BookingID && existing.QuoteID == p.QuoteID &&
			existing.Type == models.PaymentDeposit && existing.Status != models.PaymentFailed {
			return errors.New("duplicate deposit payment")
		}
	}
	p.CreatedAt = time.Now()
	cp := *p
	r.store.payments[p.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) findOne(match func(*models.Payment) bool) (*models.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.payments {
		if match(p) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakePaymentRepo) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	return r.findOne(func(p *models.Payment) bool { return p.ID == id })
}

func (r *fakePaymentRepo) GetByReceiptID(ctx context.Context, receiptID string) (*models.Payment, error) {
	return r.findOne(func(p *models.Payment) bool { return p.ReceiptID == receiptID })
}

func (r *fakePaymentRepo) GetByPSPRef(ctx context.Context, pspRef string) (*models.Payment, error) {
	return r.findOne(func(p *models.Payment) bool { return p.PSPRef == pspRef })
}

func (r *fakePaymentRepo) FindDepositForQuote(ctx context.Context, bookingID, quoteID string) (*models.Payment, error) {
	return r.findOne(func(p *models.Payment) bool {
		return p.BookingID == bookingID && p.QuoteID == quoteID &&
			p.Type == models.PaymentDeposit && p.Status != models.PaymentFailed
	})
}

func (r *fakePaymentRepo) FindPaidDepositForBooking(ctx context.Context, bookingID string) (*models.Payment, error) {
	return r.findOne(func(p *models.Payment) bool {
		return p.BookingID == bookingID && p.Type == models.PaymentDeposit && p.Status == models.PaymentPaid
	})
}

func (r *fakePaymentRepo) ReceiptIDExists(ctx context.Context, receiptID string) (bool, error) {
	p, err := r.GetByReceiptID(ctx, receiptID)
	return p != nil, err
}

func (r *fakePaymentRepo) ApplyDepositPaid(ctx context.Context, payment *models.Payment, entry *models.EventLogEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.payments[payment.ID]
	if !ok || p.Status != models.PaymentPending {
		return paymentRepo.ErrAlreadyResolved
	}
	q, ok := r.store.quotes[p.QuoteID]
	if !ok || q.Status != models.QuoteActive {
		return paymentRepo.ErrNotPayable
	}
	b, ok := r.store.bookings[p.BookingID]
	if !ok || b.Status != models.BookingQuoted {
		return paymentRepo.ErrNotPayable
	}
	now := time.Now()
	p.Status = models.PaymentPaid
	p.PaidAt = &now
	q.Status = models.QuoteAccepted
	q.UpdatedAt = now
	b.Status = models.BookingDepositPaid
	b.UpdatedAt = now
	r.store.appendEventLocked(entry)
	return nil
}

func (r *fakePaymentRepo) MarkFailed(ctx context.Context, payment *models.Payment, entry *models.EventLogEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.payments[payment.ID]
	if !ok || p.Status != models.PaymentPending {
		return paymentRepo.ErrAlreadyResolved
	}
	p.Status = models.PaymentFailed
	r.store.appendEventLocked(entry)
	return nil
}

func (r *fakePaymentRepo) ProcessRefund(ctx context.Context, payment *models.Payment, entry *models.EventLogEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.payments[payment.ID]
	if !ok || p.Status != models.PaymentPaid {
		return paymentRepo.ErrNotRefundable
	}
	p.Status = models.PaymentRefunded
	if b, ok := r.store.bookings[p.BookingID]; ok {
		b.Status = models.BookingCancelled
		b.UpdatedAt = time.Now()
	}
	r.store.appendEventLocked(entry)
	return nil
}

type fakeCreatorRepo struct{ store *memStore }

func (r *fakeCreatorRepo) GetByID(ctx context.Context, id string) (*models.Creator, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.creators[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCreatorRepo) GetBySlug(ctx context.Context, slug string) (*models.Creator, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range r.store.creators {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeCreatorRepo) Create(ctx context.Context, creator *models.Creator) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *creator
	r.store.creators[creator.ID] = &cp
	return nil
}

type fakeEventLogRepo struct{ store *memStore }

func (r *fakeEventLogRepo) Record(ctx context.Context, entry *models.EventLogEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.appendEventLocked(entry)
	return nil
}

func (r *fakeEventLogRepo) ListForBooking(ctx context.Context, bookingID string) ([]models.EventLogEntry, error) {
	return r.store.eventsForBooking(bookingID), nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (n *fakeNotifier) BookingEvent(ctx context.Context, b *models.Booking, event string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, event)
	return nil
}

func (n *fakeNotifier) VIPWelcome(ctx context.Context, sub *models.VIPSubscription) error {
	return nil
}

type fakeGateway struct {
	mu       sync.Mutex
	outcomes []booking.PaymentOutcome
	err      error
	calls    int
	refunds  int
	onCharge func()
}

func (g *fakeGateway) Charge(ctx context.Context, req booking.ChargeRequest) (booking.PaymentOutcome, error) {
	g.mu.Lock()
	g.calls++
	hook := g.onCharge
	g.mu.Unlock()
	if hook != nil {
		hook()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	if len(g.outcomes) == 0 {
		return booking.OutcomeSucceeded, nil
	}
	out := g.outcomes[0]
	if len(g.outcomes) > 1 {
		g.outcomes = g.outcomes[1:]
	}
	return out, nil
}

func (g *fakeGateway) Refund(ctx context.Context, req booking.RefundRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunds++
	if g.err != nil {
		return g.err
	}
	return nil
}

// fixture wires the fakes into the services under test.
type fixture struct {
	store    *memStore
	bookings *fakeBookingRepo
	quotes   *fakeQuoteRepo
	payments *fakePaymentRepo
	creators *fakeCreatorRepo
	events   *fakeEventLogRepo
	notifier *fakeNotifier
	gateway  *fakeGateway
	svc      *booking.DefaultBookingService
	pay      *booking.DefaultPaymentService
}

func newFixture() *fixture {
	config.AppConfig.Currency = "KES"
	store := newMemStore()
	f := &fixture{
		store:    store,
		bookings: &fakeBookingRepo{store: store},
		quotes:   &fakeQuoteRepo{store: store},
		payments: &fakePaymentRepo{store: store},
		creators: &fakeCreatorRepo{store: store},
		events:   &fakeEventLogRepo{store: store},
		notifier: &fakeNotifier{},
		gateway:  &fakeGateway{},
	}
	logger := zap.NewNop()
	f.svc = &booking.DefaultBookingService{
		Bookings: f.bookings,
		Quotes:   f.quotes,
		Creators: f.creators,
		Events:   f.events,
		Notifier: f.notifier,
		Logger:   logger,
	}
	f.pay = &booking.DefaultPaymentService{
		Payments: f.payments,
		Quotes:   f.quotes,
		Bookings: f.bookings,
		Gateway:  f.gateway,
		Notifier: f.notifier,
		Logger:   logger,
	}
	return f
}

func (f *fixture) seedCreator(slug string) *models.Creator {
	c := &models.Creator{
		ID:          uuid.New().String(),
		Slug:        slug,
		DisplayName: "DJ Test",
		Phone:       "+254700000001",
		Active:      true,
	}
	f.store.mu.Lock()
	f.store.creators[c.ID] = c
	f.store.mu.Unlock()
	return c
}

func (f *fixture) seedBooking(creatorID string, status models.BookingStatus) *models.Booking {
	b := &models.Booking{
		ID:            uuid.New().String(),
		ReferenceCode: "BK-" + uuid.New().String()[:4],
		CreatorID:     creatorID,
		BookerName:    "Alice Otieno",
		BookerPhone:   "+254712345678",
		Type:          models.TypeLivePerformance,
		StartAt:       time.Now().Add(72 * time.Hour),
		EndAt:         time.Now().Add(76 * time.Hour),
		LocationCity:  "Nairobi",
		BudgetMin:     500000,
		BudgetMax:     1000000,
		Notes:         "Birthday party set, two hours, house and amapiano.",
		Status:        status,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	f.store.mu.Lock()
	f.store.bookings[b.ID] = b
	f.store.mu.Unlock()
	return b
}

func (f *fixture) seedQuote(bookingID string, status models.QuoteStatus, expiresAt time.Time) *models.Quote {
	q := &models.Quote{
		ID:                uuid.New().String(),
		BookingID:         bookingID,
		TotalAmount:       800000,
		DepositPercent:    30,
		DepositAmount:     models.DepositAmountFor(800000, 30),
		Currency:          "KES",
		DepositRefundable: true,
		ExpiresAt:         expiresAt,
		TermsText:         "Deposit is refundable if cancelled 24 hours ahead.",
		Status:            status,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	f.store.mu.Lock()
	f.store.quotes[q.ID] = q
	f.store.mu.Unlock()
	return q
}

func (f *fixture) bookingStatus(id string) models.BookingStatus {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.bookings[id].Status
}

func (f *fixture) quoteStatus(id string) models.QuoteStatus {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.quotes[id].Status
}

func validCreateInput(slug string) models.CreateBookingInput {
	return models.CreateBookingInput{
		CreatorSlug:  slug,
		BookerName:   "Alice Otieno",
		BookerPhone:  "+254712345678",
		BookerEmail:  "alice@example.com",
		Type:         string(models.TypeLivePerformance),
		StartAt:      time.Now().Add(72 * time.Hour),
		EndAt:        time.Now().Add(76 * time.Hour),
		LocationCity: "Nairobi",
		BudgetMin:    500000,
		BudgetMax:    1000000,
		Notes:        "Birthday party set, two hours, house and amapiano.",
	}
}
