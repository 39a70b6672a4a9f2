package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/guest-risk-scorer/internal/logger"
	"github.com/ajharbinger/guest-risk-scorer/internal/models"
	"github.com/ajharbinger/guest-risk-scorer/internal/scoring"
	"github.com/ajharbinger/guest-risk-scorer/internal/services"
)

const refreshTimeout = 30 * time.Second

// ReservationHandler serves the booking webhook and the reservation endpoints
type ReservationHandler struct {
	reservations services.ReservationService
	logger       logger.Logger
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(reservations services.ReservationService, log logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		reservations: reservations,
		logger:       log,
	}
}

// GuestRequest is the body of create and update calls
type GuestRequest struct {
	Guest *models.NormalizedGuest `json:"guest"`
}

// BookingWebhook scores and stores the reservation in a booking webhook
func (h *ReservationHandler) BookingWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large or unreadable"})
		return
	}

	result, err := h.reservations.IngestWebhook(body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateReservation scores a guest entered by hand and stores it as a manual reservation
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	guest, ok := h.bindGuest(c)
	if !ok {
		return
	}

	stored, err := h.reservations.Create(*guest)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, stored)
}

// ListReservations returns every stored reservation, newest first
func (h *ReservationHandler) ListReservations(c *gin.Context) {
	list, err := h.reservations.List()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// GetReservation returns one stored reservation with its report
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	stored, err := h.reservations.Get(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, stored)
}

// UpdateReservation replaces the guest of a stored reservation and rescores it
func (h *ReservationHandler) UpdateReservation(c *gin.Context) {
	guest, ok := h.bindGuest(c)
	if !ok {
		return
	}

	scored, err := h.reservations.UpdateGuest(c.Param("id"), *guest)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, scored)
}

// RefreshReservation re-fetches the reservation from the booking platform and rescores it
func (h *ReservationHandler) RefreshReservation(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), refreshTimeout)
	defer cancel()

	scored, err := h.reservations.Refresh(ctx, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, scored)
}

// ExportReservations downloads stored reservations as JSON or CSV.
// Query: format=json|csv, min_level=low|medium|high, limit=N.
func (h *ReservationHandler) ExportReservations(c *gin.Context) {
	format := services.ExportFormat(c.DefaultQuery("format", string(services.FormatCSV)))
	filter := services.ExportFilter{MinLevel: scoring.Level(c.Query("min_level"))}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		filter.Limit = limit
	}

	data, err := h.reservations.Export(filter, format)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	contentType := "application/json"
	if format == services.FormatCSV {
		contentType = "text/csv; charset=utf-8"
	}
	filename := fmt.Sprintf("reservations-%s.%s", time.Now().UTC().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

func (h *ReservationHandler) bindGuest(c *gin.Context) (*models.NormalizedGuest, bool) {
	var req GuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return nil, false
	}
	if req.Guest == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Guest data is required"})
		return nil, false
	}
	return req.Guest, true
}
