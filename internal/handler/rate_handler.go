package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/univ-dsi/accessplan-api/internal/models"
	"github.com/univ-dsi/accessplan-api/internal/service"
	appErrors "github.com/univ-dsi/accessplan-api/pkg/errors"
	"github.com/univ-dsi/accessplan-api/pkg/response"
)

// RateHandler handles pay-rate endpoints.
type RateHandler struct {
	service *service.RateService
}

// NewRateHandler creates a new rate handler.
func NewRateHandler(svc *service.RateService) *RateHandler {
	return &RateHandler{service: svc}
}

// Timeline godoc
// @Summary Rate timeline
// @Description List all rate entries of an event type in insertion order
// @Tags Rates
// @Produce json
// @Param eventTypeId path string true "Event type ID"
// @Success 200 {object} response.Envelope
// @Router /rates/{eventTypeId} [get]
func (h *RateHandler) Timeline(c *gin.Context) {
	entries, err := h.service.Timeline(c.Request.Context(), c.Param("eventTypeId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, entries, nil)
}

// Current godoc
// @Summary Current rate
// @Description Resolve the rate applying at a date; the entry's end date is excluded
// @Tags Rates
// @Produce json
// @Param eventTypeId path string true "Event type ID"
// @Param at query string false "Resolution date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rates/{eventTypeId}/current [get]
func (h *RateHandler) Current(c *gin.Context) {
	at, err := parseDateParam(c.Query("at"))
	if err != nil {
		response.Error(c, err)
		return
	}
	resolveAt := time.Now().UTC()
	if at != nil {
		resolveAt = *at
	}

	entry, err := h.service.Current(c.Request.Context(), c.Param("eventTypeId"), resolveAt)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, entry, nil)
}

// Create godoc
// @Summary Create rate entry
// @Description Append a rate entry; an open-ended predecessor is closed at the new entry's start date
// @Tags Rates
// @Accept json
// @Produce json
// @Param payload body models.CreateRateRequest true "Rate payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /rates [post]
func (h *RateHandler) Create(c *gin.Context) {
	var req models.CreateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	entry, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, entry)
}
