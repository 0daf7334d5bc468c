package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/univ-dsi/accessplan-api/internal/middleware"
	"github.com/univ-dsi/accessplan-api/internal/models"
)

func TestRequestHandlerSubmitRequiresAuthentication(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRequestHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(models.SubmitRequestRequest{CampaignID: "c1"})
	req, _ := http.NewRequest(http.MethodPost, "/requests", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Submit(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestHandlerTransitionInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRequestHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/requests/r1/transition", bytes.NewReader([]byte(`invalid`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin"})

	handler.Transition(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerMeReturnsTokenRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/auth/me", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{
		UserID: "u1",
		Email:  "u1@univ.fr",
		Roles:  []models.UserRole{models.RoleDemandeur, models.RoleBeneficiaire},
	})

	handler.Me(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.UserInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "u1", envelope.Data.ID)
	assert.Equal(t, []models.UserRole{models.RoleDemandeur, models.RoleBeneficiaire}, envelope.Data.Roles)
}

func TestExportHandlerRequiresWindowStart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewExportHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/exports/beneficiaries?to=2025-06-30", nil)
	c.Request = req

	handler.BeneficiaryPeriods(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateHandlerCurrentRejectsBadDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRateHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/rates/et1/current?at=30-06-2025", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "eventTypeId", Value: "et1"}}

	handler.Current(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
