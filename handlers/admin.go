package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	bookingRepo "github.com/fannu/booking-server/database/repository/booking"
	vipRepo "github.com/fannu/booking-server/database/repository/vip"
	"github.com/fannu/booking-server/models"
	"github.com/fannu/booking-server/services/admin"
	"github.com/fannu/booking-server/utils"
)

// AdminHandler serves the privileged moderation endpoints. The routes are
// guarded by the admin auth middleware; actor attribution comes from there.
type AdminHandler struct {
	Svc      admin.AdminService
	Bookings bookingRepo.BookingRepository
	VIPSubs  vipRepo.VIPRepository
	Logger   *zap.Logger
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(svc admin.AdminService, bookings bookingRepo.BookingRepository, vipSubs vipRepo.VIPRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{Svc: svc, Bookings: bookings, VIPSubs: vipSubs, Logger: logger}
}

func adminID(c *gin.Context) string {
	return c.GetString("adminID")
}

// ResolveDisputeHandler handles POST /api/admin/bookings/:id/resolve-dispute.
func (h *AdminHandler) ResolveDisputeHandler(c *gin.Context) {
	var input struct {
		Target string `json:"target,omitempty"`
	}
	_ = c.ShouldBindJSON(&input)

	err := h.Svc.ResolveDispute(c.Request.Context(), c.Param("id"), adminID(c), models.BookingStatus(input.Target))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": true})
}

// IssueRefundHandler handles POST /api/admin/bookings/:id/issue-refund.
func (h *AdminHandler) IssueRefundHandler(c *gin.Context) {
	var input struct {
		Reason string `json:"reason,omitempty"`
	}
	_ = c.ShouldBindJSON(&input)

	if err := h.Svc.IssueRefund(c.Request.Context(), c.Param("id"), adminID(c), input.Reason); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.BookingRefundPending})
}

// ProcessRefundHandler handles POST /api/admin/bookings/:id/process-refund.
func (h *AdminHandler) ProcessRefundHandler(c *gin.Context) {
	if err := h.Svc.ProcessRefund(c.Request.Context(), c.Param("id"), adminID(c)); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.BookingCancelled})
}

// OverrideStatusHandler handles POST /api/admin/bookings/:id/override-status.
func (h *AdminHandler) OverrideStatusHandler(c *gin.Context) {
	var input struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "VALIDATION", "invalid request body", err.Error())
		return
	}

	if err := h.Svc.OverrideStatus(c.Request.Context(), c.Param("id"), adminID(c), models.BookingStatus(input.Status)); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": input.Status})
}

// CreatorOverviewHandler handles GET /api/admin/creators/:id/bookings, a
// support view: the creator's bookings newest first plus the VIP list size.
func (h *AdminHandler) CreatorOverviewHandler(c *gin.Context) {
	creatorID := c.Param("id")

	bookings, err := h.Bookings.ListForCreator(c.Request.Context(), creatorID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	vipCount, err := h.VIPSubs.CountActiveForCreator(c.Request.Context(), creatorID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings":  bookings,
		"vip_count": vipCount,
	})
}

// SaveNotesHandler handles PUT /api/admin/bookings/:id/notes.
func (h *AdminHandler) SaveNotesHandler(c *gin.Context) {
	var input struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "VALIDATION", "invalid request body", err.Error())
		return
	}

	if err := h.Svc.SaveAdminNotes(c.Request.Context(), c.Param("id"), adminID(c), input.Notes); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true})
}
