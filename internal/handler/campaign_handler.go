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

// CampaignHandler handles campaign endpoints.
type CampaignHandler struct {
	service *service.CampaignService
}

// NewCampaignHandler creates a new campaign handler.
func NewCampaignHandler(svc *service.CampaignService) *CampaignHandler {
	return &CampaignHandler{service: svc}
}

// List godoc
// @Summary List campaigns
// @Description List campaigns with their openness flags at the current date
// @Tags Campaigns
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param request_type query string false "Request type filter"
// @Success 200 {object} response.Envelope
// @Router /campaigns [get]
func (h *CampaignHandler) List(c *gin.Context) {
	var filter models.CampaignFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	filter.RequestType = c.Query("request_type")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	campaigns, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, campaigns, pagination)
}

// Get godoc
// @Summary Get campaign
// @Description Get a campaign with its openness flags
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /campaigns/{id} [get]
func (h *CampaignHandler) Get(c *gin.Context) {
	campaign, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, campaign, nil)
}

// Create godoc
// @Summary Create campaign
// @Description Create a new request campaign
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param payload body models.CreateCampaignRequest true "Create campaign payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /campaigns [post]
func (h *CampaignHandler) Create(c *gin.Context) {
	var req models.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	campaign, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, campaign)
}

// Update godoc
// @Summary Update campaign
// @Description Update a campaign's window or committee date
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param id path string true "Campaign ID"
// @Param payload body models.UpdateCampaignRequest true "Update campaign payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /campaigns/{id} [put]
func (h *CampaignHandler) Update(c *gin.Context) {
	var req models.UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	campaign, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, campaign, nil)
}
