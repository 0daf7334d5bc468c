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

// ParameterHandler handles configuration-parameter endpoints.
type ParameterHandler struct {
	service *service.ParameterService
}

// NewParameterHandler creates a new parameter handler.
func NewParameterHandler(svc *service.ParameterService) *ParameterHandler {
	return &ParameterHandler{service: svc}
}

// Keys godoc
// @Summary List parameter keys
// @Tags Parameters
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /parameters [get]
func (h *ParameterHandler) Keys(c *gin.Context) {
	keys, err := h.service.Keys(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, keys, nil)
}

// Timeline godoc
// @Summary Parameter timeline
// @Description List all values recorded for a key in insertion order
// @Tags Parameters
// @Produce json
// @Param key path string true "Parameter key"
// @Success 200 {object} response.Envelope
// @Router /parameters/{key} [get]
func (h *ParameterHandler) Timeline(c *gin.Context) {
	values, err := h.service.Timeline(c.Request.Context(), c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, values, nil)
}

// Current godoc
// @Summary Current parameter value
// @Description Resolve the value applying at a date; both interval bounds are excluded
// @Tags Parameters
// @Produce json
// @Param key path string true "Parameter key"
// @Param at query string false "Resolution date (YYYY-MM-DD), defaults to today"
// @Param all query bool false "Return every applicable value instead of the first"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /parameters/{key}/current [get]
func (h *ParameterHandler) Current(c *gin.Context) {
	at, err := parseDateParam(c.Query("at"))
	if err != nil {
		response.Error(c, err)
		return
	}
	resolveAt := time.Now().UTC()
	if at != nil {
		resolveAt = *at
	}

	if c.Query("all") == "true" {
		values, listErr := h.service.CurrentAll(c.Request.Context(), c.Param("key"), resolveAt)
		if listErr != nil {
			response.Error(c, listErr)
			return
		}
		response.JSON(c, http.StatusOK, values, nil)
		return
	}

	value, err := h.service.Current(c.Request.Context(), c.Param("key"), resolveAt)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, value, nil)
}

// Create godoc
// @Summary Create parameter value
// @Description Append a value to a key's timeline and invalidate its cache
// @Tags Parameters
// @Accept json
// @Produce json
// @Param payload body models.CreateParameterValueRequest true "Parameter payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /parameters [post]
func (h *ParameterHandler) Create(c *gin.Context) {
	var req models.CreateParameterValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	value, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, value)
}
