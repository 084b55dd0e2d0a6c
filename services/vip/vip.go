package vip

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	creatorRepo "github.com/fannu/booking-server/database/repository/creator"
	vipRepo "github.com/fannu/booking-server/database/repository/vip"
	"github.com/fannu/booking-server/models"
	"github.com/fannu/booking-server/services/booking"
	"github.com/fannu/booking-server/services/notification"
)

var phoneRe = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)

// VIPService captures fans onto creator VIP lists.
type VIPService interface {
	// Subscribe adds a fan to a creator's VIP list, reactivating a prior
	// unsubscribed entry. An already-ACTIVE subscriber is a conflict.
	Subscribe(ctx context.Context, input models.VIPSubscribeInput) (*models.VIPSubscription, error)
}

// DefaultVIPService is the canonical VIPService implementation.
type DefaultVIPService struct {
	Subs     vipRepo.VIPRepository
	Creators creatorRepo.CreatorRepository
	Notifier notification.NotificationService
	Logger   *zap.Logger
}

// Subscribe adds a fan to a creator's VIP list.
func (s *DefaultVIPService) Subscribe(ctx context.Context, input models.VIPSubscribeInput) (*models.VIPSubscription, error) {
	fields := map[string]string{}
	if strings.TrimSpace(input.CreatorID) == "" {
		fields["creator_id"] = "required"
	}
	if !phoneRe.MatchString(input.FanPhone) {
		fields["fan_phone"] = "must be an E.164 phone number"
	}
	channel := models.VIPChannel(input.Channel)
	if !channel.IsValid() {
		fields["channel"] = "must be TELEGRAM, WHATSAPP or SMS"
	}
	if strings.TrimSpace(input.Source) == "" {
		fields["source"] = "required"
	}
	if len(fields) > 0 {
		return nil, &booking.ValidationError{Fields: fields}
	}

	creator, err := s.Creators.GetByID(ctx, input.CreatorID)
	if err != nil {
		return nil, err
	}
	if creator == nil {
		return nil, &booking.NotFoundError{Resource: "creator", ID: input.CreatorID}
	}

	existing, err := s.Subs.GetByCreatorAndPhone(ctx, input.CreatorID, input.FanPhone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status == models.VIPActive {
			return nil, &booking.ConflictError{Message: "already an active VIP subscriber"}
		}
		if err := s.Subs.Reactivate(ctx, existing.ID, channel, input.Source, input.SourceRef); err != nil {
			return nil, err
		}
		existing.Status = models.VIPActive
		existing.Channel = channel
		s.Logger.Info("vip subscription reactivated",
			zap.String("creator_id", input.CreatorID),
			zap.String("subscription_id", existing.ID),
		)
		s.welcome(existing)
		return existing, nil
	}

	sub := &models.VIPSubscription{
		ID:        uuid.New().String(),
		CreatorID: input.CreatorID,
		FanPhone:  input.FanPhone,
		FanName:   strings.TrimSpace(input.FanName),
		Channel:   channel,
		Source:    input.Source,
		SourceRef: input.SourceRef,
		Status:    models.VIPActive,
	}
	if err := s.Subs.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.Info("vip subscription created",
		zap.String("creator_id", input.CreatorID),
		zap.String("subscription_id", sub.ID),
	)
	s.welcome(sub)
	return sub, nil
}

func (s *DefaultVIPService) welcome(sub *models.VIPSubscription) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.VIPWelcome(context.Background(), sub); err != nil {
		s.Logger.Warn("vip welcome dispatch failed",
			zap.String("subscription_id", sub.ID),
			zap.Error(err),
		)
	}
}
