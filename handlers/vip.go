package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fannu/booking-server/models"
	"github.com/fannu/booking-server/services/vip"
	"github.com/fannu/booking-server/utils"
)

// VIPHandler serves the VIP-list capture endpoint.
type VIPHandler struct {
	Svc    vip.VIPService
	Logger *zap.Logger
}

// NewVIPHandler constructs a VIPHandler.
func NewVIPHandler(svc vip.VIPService, logger *zap.Logger) *VIPHandler {
	return &VIPHandler{Svc: svc, Logger: logger}
}

// SubscribeHandler handles POST /api/vip.
func (h *VIPHandler) SubscribeHandler(c *gin.Context) {
	var input models.VIPSubscribeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "VALIDATION", "invalid request body", err.Error())
		return
	}

	sub, err := h.Svc.Subscribe(c.Request.Context(), input)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":     sub.ID,
		"status": sub.Status,
	})
}
