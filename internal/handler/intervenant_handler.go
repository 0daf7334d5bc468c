package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/univ-dsi/accessplan-api/internal/models"
	"github.com/univ-dsi/accessplan-api/internal/service"
	appErrors "github.com/univ-dsi/accessplan-api/pkg/errors"
	"github.com/univ-dsi/accessplan-api/pkg/response"
)

// IntervenantHandler handles support-intervenant endpoints.
type IntervenantHandler struct {
	service *service.IntervenantService
}

// NewIntervenantHandler creates a new intervenant handler.
func NewIntervenantHandler(svc *service.IntervenantService) *IntervenantHandler {
	return &IntervenantHandler{service: svc}
}

// List godoc
// @Summary List intervenants
// @Tags Intervenants
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param user_id query string false "User filter"
// @Param archived query bool false "Archived filter"
// @Success 200 {object} response.Envelope
// @Router /intervenants [get]
func (h *IntervenantHandler) List(c *gin.Context) {
	var filter models.IntervenantFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	if raw := c.Query("archived"); raw != "" {
		if val, err := strconv.ParseBool(raw); err == nil {
			filter.Archived = &val
		}
	}
	filter.UserID = c.Query("user_id")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	intervenants, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, intervenants, pagination)
}

// Get godoc
// @Summary Get intervenant
// @Description Get an intervenant with event types and forfait periods
// @Tags Intervenants
// @Produce json
// @Param id path string true "Intervenant ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /intervenants/{id} [get]
func (h *IntervenantHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create intervenant
// @Tags Intervenants
// @Accept json
// @Produce json
// @Param payload body models.CreateIntervenantRequest true "Create intervenant payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /intervenants [post]
func (h *IntervenantHandler) Create(c *gin.Context) {
	var req models.CreateIntervenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	intervenant, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, intervenant)
}

// ReplaceEventTypes godoc
// @Summary Replace event types
// @Description Replace the set of event types the intervenant can serve
// @Tags Intervenants
// @Accept json
// @Produce json
// @Param id path string true "Intervenant ID"
// @Param payload body map[string][]string true "Event type IDs"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /intervenants/{id}/event-types [put]
func (h *IntervenantHandler) ReplaceEventTypes(c *gin.Context) {
	var payload struct {
		EventTypeIDs []string `json:"event_type_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.ReplaceEventTypes(c.Request.Context(), c.Param("id"), payload.EventTypeIDs); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ListEventTypes godoc
// @Summary List event types
// @Description List the event type catalogue
// @Tags Intervenants
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /event-types [get]
func (h *IntervenantHandler) ListEventTypes(c *gin.Context) {
	types, err := h.service.ListEventTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, types, nil)
}

// AddForfaitPeriod godoc
// @Summary Add forfait period
// @Description Open an hour-budget period for the intervenant
// @Tags Intervenants
// @Accept json
// @Produce json
// @Param id path string true "Intervenant ID"
// @Param payload body models.CreateForfaitPeriodRequest true "Forfait payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /intervenants/{id}/forfaits [post]
func (h *IntervenantHandler) AddForfaitPeriod(c *gin.Context) {
	var req models.CreateForfaitPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	forfait, err := h.service.AddForfaitPeriod(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, forfait)
}

// ScheduleEvent godoc
// @Summary Schedule support event
// @Description Schedule a support event for a beneficiary period; the event date must fall inside the period
// @Tags Intervenants
// @Accept json
// @Produce json
// @Param id path string true "Intervenant ID"
// @Param payload body models.ScheduleEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /intervenants/{id}/events [post]
func (h *IntervenantHandler) ScheduleEvent(c *gin.Context) {
	var req models.ScheduleEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	event, err := h.service.ScheduleEvent(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, event)
}

// CompatibleForfaits godoc
// @Summary Compatible forfait periods
// @Description List the intervenant's forfait periods that overlap the given beneficiary period
// @Tags Intervenants
// @Produce json
// @Param id path string true "Intervenant ID"
// @Param periodId path string true "Beneficiary period ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /intervenants/{id}/forfaits/compatible/{periodId} [get]
func (h *IntervenantHandler) CompatibleForfaits(c *gin.Context) {
	forfaits, err := h.service.CompatibleForfaits(c.Request.Context(), c.Param("id"), c.Param("periodId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, forfaits, nil)
}

// Archive godoc
// @Summary Archive intervenant
// @Description Close the intervenant's activity by setting an end date
// @Tags Intervenants
// @Accept json
// @Produce json
// @Param id path string true "Intervenant ID"
// @Param payload body map[string]string true "End date"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /intervenants/{id}/archive [post]
func (h *IntervenantHandler) Archive(c *gin.Context) {
	var payload struct {
		EndDate time.Time `json:"end_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	intervenant, err := h.service.Archive(c.Request.Context(), c.Param("id"), payload.EndDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, intervenant, nil)
}
