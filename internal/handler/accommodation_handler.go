package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/univ-dsi/accessplan-api/internal/models"
	"github.com/univ-dsi/accessplan-api/internal/service"
	appErrors "github.com/univ-dsi/accessplan-api/pkg/errors"
	"github.com/univ-dsi/accessplan-api/pkg/response"
)

// AccommodationHandler handles accommodation-grant endpoints.
type AccommodationHandler struct {
	service *service.AccommodationService
}

// NewAccommodationHandler creates a new accommodation handler.
func NewAccommodationHandler(svc *service.AccommodationService) *AccommodationHandler {
	return &AccommodationHandler{service: svc}
}

// List godoc
// @Summary List accommodation grants
// @Description List grants with their activity flag at the current date
// @Tags Accommodations
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param type_id query string false "Accommodation type filter"
// @Param semester1 query bool false "First-semester filter"
// @Param semester2 query bool false "Second-semester filter"
// @Success 200 {object} response.Envelope
// @Router /accommodations [get]
func (h *AccommodationHandler) List(c *gin.Context) {
	var filter models.AccommodationFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	if raw := c.Query("semester1"); raw != "" {
		if val, err := strconv.ParseBool(raw); err == nil {
			filter.Semester1 = &val
		}
	}
	if raw := c.Query("semester2"); raw != "" {
		if val, err := strconv.ParseBool(raw); err == nil {
			filter.Semester2 = &val
		}
	}
	filter.TypeID = c.Query("type_id")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	grants, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, grants, pagination)
}

// Get godoc
// @Summary Get accommodation grant
// @Tags Accommodations
// @Produce json
// @Param id path string true "Grant ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /accommodations/{id} [get]
func (h *AccommodationHandler) Get(c *gin.Context) {
	grant, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, grant, nil)
}

// Create godoc
// @Summary Create accommodation grant
// @Tags Accommodations
// @Accept json
// @Produce json
// @Param payload body models.CreateGrantRequest true "Create grant payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /accommodations [post]
func (h *AccommodationHandler) Create(c *gin.Context) {
	var req models.CreateGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	grant, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, grant)
}

// Update godoc
// @Summary Update accommodation grant
// @Tags Accommodations
// @Accept json
// @Produce json
// @Param id path string true "Grant ID"
// @Param payload body models.UpdateGrantRequest true "Update grant payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /accommodations/{id} [put]
func (h *AccommodationHandler) Update(c *gin.Context) {
	var req models.UpdateGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	grant, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, grant, nil)
}

// Delete godoc
// @Summary Delete accommodation grant
// @Description Delete a grant; refused while beneficiary periods still reference it
// @Tags Accommodations
// @Produce json
// @Param id path string true "Grant ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /accommodations/{id} [delete]
func (h *AccommodationHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ListTypes godoc
// @Summary List accommodation types
// @Tags Accommodations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /accommodations/types [get]
func (h *AccommodationHandler) ListTypes(c *gin.Context) {
	types, err := h.service.ListTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, types, nil)
}
