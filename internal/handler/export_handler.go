package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/univ-dsi/accessplan-api/internal/service"
	appErrors "github.com/univ-dsi/accessplan-api/pkg/errors"
	"github.com/univ-dsi/accessplan-api/pkg/response"
)

// ExportHandler serves CSV and PDF exports.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new export handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// BeneficiaryPeriods godoc
// @Summary Export beneficiary periods
// @Description Export beneficiary periods overlapping a window as CSV or PDF
// @Tags Exports
// @Produce octet-stream
// @Param from query string true "Window start (YYYY-MM-DD)"
// @Param to query string false "Window end (YYYY-MM-DD)"
// @Param with_support query bool false "Require at least one attached grant"
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Router /exports/beneficiaries [get]
func (h *ExportHandler) BeneficiaryPeriods(c *gin.Context) {
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

	result, err := h.service.BeneficiaryPeriods(c.Request.Context(), *from, to, requireSupport, service.ExportFormat(c.Query("format")))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

// PeriodGrants godoc
// @Summary Export period grants
// @Description Export the grants of a beneficiary period active inside a window as CSV or PDF
// @Tags Exports
// @Produce octet-stream
// @Param id path string true "Period ID"
// @Param from query string true "Window start (YYYY-MM-DD)"
// @Param to query string true "Window end (YYYY-MM-DD)"
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Router /exports/beneficiaries/{id}/grants [get]
func (h *ExportHandler) PeriodGrants(c *gin.Context) {
	from, err := parseDateParam(c.Query("from"))
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := parseDateParam(c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if from == nil || to == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from and to are required"))
		return
	}

	result, err := h.service.PeriodGrants(c.Request.Context(), c.Param("id"), *from, *to, service.ExportFormat(c.Query("format")))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
