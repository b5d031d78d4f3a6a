package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "tillpoint/internal/errors"
	"tillpoint/internal/models"
	"tillpoint/internal/pagination"
	"tillpoint/internal/services"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AdminHandler serves the back-office approval routes.
type AdminHandler struct {
	approvals services.ApprovalServicer
	audit     services.AuditServicer
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(approvals services.ApprovalServicer, audit services.AuditServicer) *AdminHandler {
	return &AdminHandler{approvals: approvals, audit: audit}
}

// UserResponse wraps a single user.
type UserResponse struct {
	User *models.Snapshot `json:"user"`
}

// AuditResponse lists audit rows.
type AuditResponse struct {
	Entries []models.AuditLog `json:"entries"`
}

// ListRegistrations lists accounts awaiting approval
// @Summary     Pending registrations
// @Description List owner and admin accounts that have not been approved yet
// @Tags        admin
// @Produce     json
// @Security    AdminKey
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.Page[models.Snapshot] "Pending users"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /admin/registrations [get]
func (h *AdminHandler) ListRegistrations(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.approvals.ListPending(c.Request.Context(), page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Approve lets a user into the private preview
// @Summary     Approve a user
// @Tags        admin
// @Produce     json
// @Security    AdminKey
// @Param       id path int true "User ID"
// @Success     200 {object} UserResponse "Approved"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /admin/users/{id}/approve [post]
func (h *AdminHandler) Approve(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	snap, err := h.approvals.Approve(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, UserResponse{User: snap})
}

// Deactivate turns a user off
// @Summary     Deactivate a user
// @Tags        admin
// @Produce     json
// @Security    AdminKey
// @Param       id path int true "User ID"
// @Success     200 {object} UserResponse "Deactivated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /admin/users/{id}/deactivate [post]
func (h *AdminHandler) Deactivate(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	snap, err := h.approvals.Deactivate(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, UserResponse{User: snap})
}

// Audit returns the newest audit rows of this terminal
// @Summary     Terminal audit trail
// @Tags        admin
// @Produce     json
// @Security    AdminKey
// @Param       limit query int false "Maximum rows (default 50, max 500)"
// @Success     200 {object} AuditResponse "Audit rows"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /admin/audit [get]
func (h *AdminHandler) Audit(c *gin.Context) {
	limit := defaultAuditLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid limit"))
			return
		}
		limit = min(n, maxAuditLimit)
	}

	rows, err := h.audit.Recent(c.Request.Context(), limit)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	if rows == nil {
		rows = []models.AuditLog{}
	}
	c.JSON(http.StatusOK, AuditResponse{Entries: rows})
}
