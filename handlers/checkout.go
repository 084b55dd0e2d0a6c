package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fannu/booking-server/services/booking"
	"github.com/fannu/booking-server/utils"
)

// CheckoutHandler serves checkout, receipt and provider webhook endpoints.
type CheckoutHandler struct {
	Payments booking.PaymentService
	Logger   *zap.Logger
}

// NewCheckoutHandler constructs a CheckoutHandler.
func NewCheckoutHandler(payments booking.PaymentService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{Payments: payments, Logger: logger}
}

// InitiateDepositHandler handles POST /api/checkout/deposit. Double-clicks
// and retries land on the same receipt.
func (h *CheckoutHandler) InitiateDepositHandler(c *gin.Context) {
	var input struct {
		BookingID string `json:"booking_id"`
		QuoteID   string `json:"quote_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "VALIDATION", "invalid request body", err.Error())
		return
	}
	if input.BookingID == "" || input.QuoteID == "" {
		utils.JSONError(c, http.StatusBadRequest, "VALIDATION", "booking_id and quote_id are required", nil)
		return
	}

	payment, err := h.Payments.InitiateDepositPayment(c.Request.Context(), input.BookingID, input.QuoteID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"receipt_id": payment.ReceiptID,
		"status":     payment.Status,
		"amount":     payment.Amount,
		"currency":   payment.Currency,
	})
}

// ReceiptHandler handles GET /api/checkout/receipt/:receipt_id.
func (h *CheckoutHandler) ReceiptHandler(c *gin.Context) {
	payment, err := h.Payments.GetReceipt(c.Request.Context(), c.Param("receipt_id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"receipt_id": payment.ReceiptID,
		"booking_id": payment.BookingID,
		"amount":     payment.Amount,
		"currency":   payment.Currency,
		"type":       payment.Type,
		"status":     payment.Status,
		"paid_at":    payment.PaidAt,
	})
}

// PSPWebhookHandler handles POST /api/webhooks/psp. Redelivery of an already
// applied outcome is acknowledged with 200.
func (h *CheckoutHandler) PSPWebhookHandler(c *gin.Context) {
	var input struct {
		PSPRef  string `json:"psp_ref"`
		Outcome string `json:"outcome"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "VALIDATION", "invalid request body", err.Error())
		return
	}

	outcome := booking.PaymentOutcome(input.Outcome)
	if outcome != booking.OutcomeSucceeded && outcome != booking.OutcomeFailed {
		utils.JSONError(c, http.StatusBadRequest, "VALIDATION", "outcome must be succeeded or failed", nil)
		return
	}

	if err := h.Payments.HandleWebhook(c.Request.Context(), input.PSPRef, outcome); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
