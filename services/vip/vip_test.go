package vip_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fannu/booking-server/models"
	"github.com/fannu/booking-server/services/booking"
	"github.com/fannu/booking-server/services/vip"
)

type stubCreatorRepo struct{ creators map[string]*models.Creator }

func (r *stubCreatorRepo) GetByID(ctx context.Context, id string) (*models.Creator, error) {
	c, ok := r.creators[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *stubCreatorRepo) GetBySlug(ctx context.Context, slug string) (*models.Creator, error) {
	return nil, nil
}

func (r *stubCreatorRepo) Create(ctx context.Context, creator *models.Creator) error {
	r.creators[creator.ID] = creator
	return nil
}

type stubVIPRepo struct{ subs map[string]*models.VIPSubscription }

func (r *stubVIPRepo) GetByCreatorAndPhone(ctx context.Context, creatorID, fanPhone string) (*models.VIPSubscription, error) {
	for _, s := range r.subs {
		if s.CreatorID == creatorID && s.FanPhone == fanPhone {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *stubVIPRepo) Create(ctx context.Context, sub *models.VIPSubscription) error {
	now := time.Now()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	cp := *sub
	r.subs[sub.ID] = &cp
	return nil
}

func (r *stubVIPRepo) Reactivate(ctx context.Context, id string, channel models.VIPChannel, source, sourceRef string) error {
	s := r.subs[id]
	s.Status = models.VIPActive
	s.Channel = channel
	s.Source = source
	s.SourceRef = sourceRef
	return nil
}

func (r *stubVIPRepo) CountActiveForCreator(ctx context.Context, creatorID string) (int64, error) {
	var n int64
	for _, s := range r.subs {
		if s.CreatorID == creatorID && s.Status == models.VIPActive {
			n++
		}
	}
	return n, nil
}

type vipFixture struct {
	svc      *vip.DefaultVIPService
	creators *stubCreatorRepo
	subs     *stubVIPRepo
}

func newVIPFixture() *vipFixture {
	f := &vipFixture{
		creators: &stubCreatorRepo{creators: map[string]*models.Creator{}},
		subs:     &stubVIPRepo{subs: map[string]*models.VIPSubscription{}},
	}
	f.svc = &vip.DefaultVIPService{
		Subs:     f.subs,
		Creators: f.creators,
		Logger:   zap.NewNop(),
	}
	return f
}

func (f *vipFixture) seedCreator() *models.Creator {
	c := &models.Creator{ID: uuid.New().String(), Slug: "dj-test", DisplayName: "DJ Test", Active: true}
	f.creators.creators[c.ID] = c
	return c
}

func validSubscribeInput(creatorID string) models.VIPSubscribeInput {
	return models.VIPSubscribeInput{
		CreatorID: creatorID,
		FanPhone:  "+254712345678",
		FanName:   "Alice",
		Channel:   string(models.ChannelWhatsApp),
		Source:    "booking_confirmation",
	}
}

func TestSubscribe_Success(t *testing.T) {
	f := newVIPFixture()
	creator := f.seedCreator()

	sub, err := f.svc.Subscribe(context.Background(), validSubscribeInput(creator.ID))

	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, models.VIPActive, sub.Status)
	assert.Equal(t, models.ChannelWhatsApp, sub.Channel)
	assert.Len(t, f.subs.subs, 1)
}

func TestSubscribe_Validation(t *testing.T) {
	f := newVIPFixture()
	creator := f.seedCreator()

	input := validSubscribeInput(creator.ID)
	input.FanPhone = "0712345678"
	input.Channel = "CARRIER_PIGEON"
	input.Source = ""

	_, err := f.svc.Subscribe(context.Background(), input)

	var verr *booking.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "fan_phone")
	assert.Contains(t, verr.Fields, "channel")
	assert.Contains(t, verr.Fields, "source")
	assert.Empty(t, f.subs.subs)
}

func TestSubscribe_UnknownCreator(t *testing.T) {
	f := newVIPFixture()

	_, err := f.svc.Subscribe(context.Background(), validSubscribeInput(uuid.New().String()))

	var nf *booking.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "creator", nf.Resource)
}

func TestSubscribe_DuplicateActive(t *testing.T) {
	f := newVIPFixture()
	creator := f.seedCreator()

	_, err := f.svc.Subscribe(context.Background(), validSubscribeInput(creator.ID))
	require.NoError(t, err)

	_, err = f.svc.Subscribe(context.Background(), validSubscribeInput(creator.ID))

	var cerr *booking.ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Len(t, f.subs.subs, 1)
}

func TestSubscribe_ReactivatesUnsubscribed(t *testing.T) {
	f := newVIPFixture()
	creator := f.seedCreator()

	first, err := f.svc.Subscribe(context.Background(), validSubscribeInput(creator.ID))
	require.NoError(t, err)

	f.subs.subs[first.ID].Status = models.VIPUnsubscribed

	input := validSubscribeInput(creator.ID)
	input.Channel = string(models.ChannelTelegram)
	sub, err := f.svc.Subscribe(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, first.ID, sub.ID, "reactivation keeps the same subscription")
	assert.Equal(t, models.VIPActive, sub.Status)
	assert.Equal(t, models.ChannelTelegram, sub.Channel)
	assert.Len(t, f.subs.subs, 1)
}
