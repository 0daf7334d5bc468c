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

// BeneficiaryHandler handles beneficiary-period endpoints.
type BeneficiaryHandler struct {
	service *service.BeneficiaryService
}

// NewBeneficiaryHandler creates a new beneficiary handler.
func NewBeneficiaryHandler(svc *service.BeneficiaryService) *BeneficiaryHandler {
	return &BeneficiaryHandler{service: svc}
}

// List godoc
// @Summary List beneficiary periods
// @Description List beneficiary periods with their activity flag at the current date
// @Tags Beneficiaries
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param student_id query string false "Student filter"
// @Param profile_id query string false "Profile filter"
// @Param manager_id query string false "Manager filter"
// @Param with_support query bool false "Require at least one attached grant"
// @Success 200 {object} response.Envelope
// @Router /beneficiaries [get]
func (h *BeneficiaryHandler) List(c *gin.Context) {
	var filter models.BeneficiaryFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	if raw := c.Query("with_support"); raw != "" {
		if val, err := strconv.ParseBool(raw); err == nil {
			filter.WithSupport = &val
		}
	}
	filter.StudentID = c.Query("student_id")
	filter.ProfileID = c.Query("profile_id")
	filter.ManagerID = c.Query("manager_id")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	periods, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, periods, pagination)
}

// Get godoc
// @Summary Get beneficiary period
// @Description Get a beneficiary period with its grants and health-service opinions
// @Tags Beneficiaries
// @Produce json
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /beneficiaries/{id} [get]
func (h *BeneficiaryHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// InWindow godoc
// @Summary Periods overlapping a window
// @Description List a student's beneficiary periods overlapping the given window
// @Tags Beneficiaries
// @Produce json
// @Param student_id query string true "Student ID"
// @Param from query string true "Window start (YYYY-MM-DD)"
// @Param to query string false "Window end (YYYY-MM-DD)"
// @Param with_support query bool false "Require at least one attached grant"
// @Success 200 {object} response.Envelope
// @Router /beneficiaries/window [get]
func (h *BeneficiaryHandler) InWindow(c *gin.Context) {
	studentID := c.Query("student_id")
	if studentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "student_id is required"))
		return
	}

	from, err := parseDateParam(c.Query("from"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if from == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from is required"))
		return
	}
	to, err := parseDateParam(c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}

	requireSupport := false
	if raw := c.Query("with_support"); raw != "" {
		if val, parseErr := strconv.ParseBool(raw); parseErr == nil {
			requireSupport = val
		}
	}

	periods, err := h.service.PeriodsInWindow(c.Request.Context(), studentID, *from, to, requireSupport)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, periods, nil)
}

// Create godoc
// @Summary Create beneficiary period
// @Description Open a beneficiary period for a student
// @Tags Beneficiaries
// @Accept json
// @Produce json
// @Param payload body models.CreateBeneficiaryPeriodRequest true "Create period payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /beneficiaries [post]
func (h *BeneficiaryHandler) Create(c *gin.Context) {
	var req models.CreateBeneficiaryPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	period, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, period)
}

// Update godoc
// @Summary Update beneficiary period
// @Description Update a beneficiary period's bounds or manager
// @Tags Beneficiaries
// @Accept json
// @Produce json
// @Param id path string true "Period ID"
// @Param payload body models.UpdateBeneficiaryPeriodRequest true "Update period payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /beneficiaries/{id} [put]
func (h *BeneficiaryHandler) Update(c *gin.Context) {
	var req models.UpdateBeneficiaryPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	period, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, period, nil)
}

// AttachGrant godoc
// @Summary Attach grant
// @Description Attach an accommodation grant to a period; allowed up to and including the period end date
// @Tags Beneficiaries
// @Produce json
// @Param id path string true "Period ID"
// @Param grantId path string true "Grant ID"
// @Success 204 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /beneficiaries/{id}/grants/{grantId} [put]
func (h *BeneficiaryHandler) AttachGrant(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.AttachGrant(c.Request.Context(), c.Param("id"), c.Param("grantId"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// DetachGrant godoc
// @Summary Detach grant
// @Description Detach an accommodation grant from a period
// @Tags Beneficiaries
// @Produce json
// @Param id path string true "Period ID"
// @Param grantId path string true "Grant ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /beneficiaries/{id}/grants/{grantId} [delete]
func (h *BeneficiaryHandler) DetachGrant(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.DetachGrant(c.Request.Context(), c.Param("id"), c.Param("grantId"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// AddOpinion godoc
// @Summary Add health-service opinion
// @Description Record a health-service opinion on a beneficiary period
// @Tags Beneficiaries
// @Accept json
// @Produce json
// @Param id path string true "Period ID"
// @Param payload body models.CreateOpinionRequest true "Opinion payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /beneficiaries/{id}/opinions [post]
func (h *BeneficiaryHandler) AddOpinion(c *gin.Context) {
	var req models.CreateOpinionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	opinion, err := h.service.AddOpinion(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, opinion)
}
