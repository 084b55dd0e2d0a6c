package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fannu/booking-server/services/booking"
	"github.com/fannu/booking-server/utils"
)

// writeServiceError maps the service error taxonomy onto HTTP responses with
// the shared {error:{code,message,details?}} envelope.
func writeServiceError(c *gin.Context, err error) {
	var (
		validationErr *booking.ValidationError
		notFoundErr   *booking.NotFoundError
		conflictErr   *booking.ConflictError
		stateErr      *booking.InvalidStateTransitionError
		notActiveErr  *booking.QuoteNotActiveError
		expiredErr    *booking.QuoteExpiredError
		payFailedErr  *booking.PaymentFailedError
	)

	switch {
	case errors.As(err, &validationErr):
		utils.JSONError(c, http.StatusBadRequest, "VALIDATION", "invalid input", validationErr.Fields)
	case errors.As(err, &notFoundErr):
		utils.JSONError(c, http.StatusNotFound, "NOT_FOUND", notFoundErr.Error(), nil)
	case errors.As(err, &conflictErr):
		utils.JSONError(c, http.StatusConflict, "CONFLICT", conflictErr.Error(), nil)
	case errors.As(err, &expiredErr):
		// Distinct code so the checkout UI can prompt for a re-quote.
		utils.JSONError(c, http.StatusConflict, "QUOTE_EXPIRED", expiredErr.Error(), nil)
	case errors.As(err, &notActiveErr):
		utils.JSONError(c, http.StatusConflict, "QUOTE_NOT_ACTIVE", notActiveErr.Error(), nil)
	case errors.As(err, &stateErr):
		utils.JSONError(c, http.StatusConflict, "INVALID_STATE_TRANSITION", stateErr.Error(), gin.H{
			"from": stateErr.From,
			"to":   stateErr.To,
		})
	case errors.As(err, &payFailedErr):
		utils.JSONError(c, http.StatusPaymentRequired, "PAYMENT_FAILED", payFailedErr.Error(), nil)
	default:
		utils.GetLogger().Error("internal error", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "INTERNAL", "An unexpected error occurred", nil)
	}
}
