package notification

import (
	"context"

	"github.com/fannu/booking-server/models"
)

// NotificationService is the boundary to the outbound messaging collaborator
// (SMS/WhatsApp/Telegram). Dispatch is fire-and-forget: a delivery failure
// must never roll back the state change that triggered it.
type NotificationService interface {
	// BookingEvent tells the booker and creator about a booking lifecycle event.
	BookingEvent(ctx context.Context, booking *models.Booking, event string) error
	// VIPWelcome greets a fan who just joined a creator's VIP list.
	VIPWelcome(ctx context.Context, sub *models.VIPSubscription) error
}
