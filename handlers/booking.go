package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fannu/booking-server/models"
	"github.com/fannu/booking-server/services/booking"
	"github.com/fannu/booking-server/utils"
)

// BookingHandler serves the booking lifecycle endpoints.
type BookingHandler struct {
	Svc    booking.BookingService
	Logger *zap.Logger
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc booking.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Svc: svc, Logger: logger}
}

// CreateBookingHandler handles POST /api/bookings.
func (h *BookingHandler) CreateBookingHandler(c *gin.Context) {
	var input models.CreateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "VALIDATION", "invalid request body", err.Error())
		return
	}

	created, err := h.Svc.CreateBooking(c.Request.Context(), input)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":             created.ID,
		"reference_code": created.ReferenceCode,
		"status":         created.Status,
	})
}

// TrackBookingHandler handles GET /api/bookings/track/:reference_code, the
// public tracking page. Lookups are cached briefly in Redis.
func (h *BookingHandler) TrackBookingHandler(c *gin.Context) {
	code := c.Param("reference_code")
	cacheKey := utils.TrackingCachePrefix + code
	cacheClient := utils.GetCacheClient()
	ctx := context.Background()

	if cached, err := cacheClient.Get(ctx, cacheKey).Result(); err == nil {
		var b models.Booking
		if json.Unmarshal([]byte(cached), &b) == nil {
			c.JSON(http.StatusOK, trackingView(&b))
			return
		}
	}

	b, err := h.Svc.GetByReferenceCode(c.Request.Context(), code)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	if data, err := json.Marshal(b); err == nil {
		cacheClient.Set(ctx, cacheKey, data, utils.TrackingCacheTTL)
	}
	c.JSON(http.StatusOK, trackingView(b))
}

// trackingView strips booker contact details from the public tracking page.
func trackingView(b *models.Booking) gin.H {
	return gin.H{
		"reference_code": b.ReferenceCode,
		"status":         b.Status,
		"type":           b.Type,
		"start_at":       b.StartAt.Format(time.RFC3339),
		"end_at":         b.EndAt.Format(time.RFC3339),
		"location_city":  b.LocationCity,
		"created_at":     b.CreatedAt.Format(time.RFC3339),
	}
}

// IssueQuoteHandler handles POST /api/bookings/:id/quote.
func (h *BookingHandler) IssueQuoteHandler(c *gin.Context) {
	var input models.IssueQuoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "VALIDATION", "invalid request body", err.Error())
		return
	}

	quote, err := h.Svc.IssueQuote(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"quote": quote})
}

// DeclineBookingHandler handles POST /api/bookings/:id/decline (creator).
func (h *BookingHandler) DeclineBookingHandler(c *gin.Context) {
	var input struct {
		Reason string `json:"reason,omitempty"`
	}
	_ = c.ShouldBindJSON(&input)

	if err := h.Svc.DeclineBooking(c.Request.Context(), c.Param("id"), input.Reason); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.BookingDeclined})
}

// DeclineQuoteHandler handles POST /api/bookings/:id/quotes/:quoteID/decline (booker).
func (h *BookingHandler) DeclineQuoteHandler(c *gin.Context) {
	var input struct {
		Reason string `json:"reason,omitempty"`
	}
	_ = c.ShouldBindJSON(&input)

	if err := h.Svc.DeclineQuote(c.Request.Context(), c.Param("id"), c.Param("quoteID"), input.Reason); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.BookingDeclined})
}

// CancelBookingHandler handles POST /api/bookings/:id/cancel.
func (h *BookingHandler) CancelBookingHandler(c *gin.Context) {
	var input struct {
		Reason string `json:"reason,omitempty"`
	}
	_ = c.ShouldBindJSON(&input)

	if err := h.Svc.CancelBooking(c.Request.Context(), c.Param("id"), models.ActorBooker, input.Reason); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.BookingCancelled})
}

// ConfirmBookingHandler handles POST /api/bookings/:id/confirm (creator).
func (h *BookingHandler) ConfirmBookingHandler(c *gin.Context) {
	if err := h.Svc.ConfirmBooking(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.BookingConfirmed})
}

// CompleteBookingHandler handles POST /api/bookings/:id/complete (creator).
func (h *BookingHandler) CompleteBookingHandler(c *gin.Context) {
	if err := h.Svc.CompleteBooking(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.BookingCompleted})
}

// DisputeBookingHandler handles POST /api/bookings/:id/dispute (booker).
func (h *BookingHandler) DisputeBookingHandler(c *gin.Context) {
	var input struct {
		Reason  string `json:"reason"`
		ActorID string `json:"actor_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "VALIDATION", "invalid request body", err.Error())
		return
	}

	if err := h.Svc.OpenDispute(c.Request.Context(), c.Param("id"), models.ActorBooker, input.ActorID, input.Reason); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.BookingDisputed})
}

// QuoteHistoryHandler handles GET /api/bookings/:id/quotes.
func (h *BookingHandler) QuoteHistoryHandler(c *gin.Context) {
	quotes, err := h.Svc.QuoteHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

// ListEventsHandler handles GET /api/admin/bookings/:id/events.
func (h *BookingHandler) ListEventsHandler(c *gin.Context) {
	events, err := h.Svc.ListEvents(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
