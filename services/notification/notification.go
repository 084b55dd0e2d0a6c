package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/fannu/booking-server/models"
)

// TypeNotifySend is the asynq task type for outbound messages.
const TypeNotifySend = "notify:send"

// NotifyPayload is the queued message handed to the delivery worker.
type NotifyPayload struct {
	Recipient string `json:"recipient"`
	Channel   string `json:"channel"`
	Template  string `json:"template"`
	BookingID string `json:"booking_id,omitempty"`
	RefCode   string `json:"ref_code,omitempty"`
}

// DefaultNotificationService enqueues messages on asynq for the delivery
// worker; the actual provider integration lives behind that worker.
type DefaultNotificationService struct {
	Client *asynq.Client
	Logger *zap.Logger
}

func (s *DefaultNotificationService) enqueue(payload NotifyPayload) error {
	if s.Client == nil {
		s.Logger.Debug("notification queue disabled, dropping message",
			zap.String("template", payload.Template),
			zap.String("recipient", payload.Recipient),
		)
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}
	if _, err := s.Client.Enqueue(asynq.NewTask(TypeNotifySend, data)); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}

// BookingEvent queues a message to the booker about a lifecycle event.
func (s *DefaultNotificationService) BookingEvent(ctx context.Context, booking *models.Booking, event string) error {
	return s.enqueue(NotifyPayload{
		Recipient: booking.BookerPhone,
		Channel:   "SMS",
		Template:  event,
		BookingID: booking.ID,
		RefCode:   booking.ReferenceCode,
	})
}

// VIPWelcome queues a greeting on the fan's chosen channel.
func (s *DefaultNotificationService) VIPWelcome(ctx context.Context, sub *models.VIPSubscription) error {
	return s.enqueue(NotifyPayload{
		Recipient: sub.FanPhone,
		Channel:   string(sub.Channel),
		Template:  "vip_welcome",
	})
}
