package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futebagres/pelada-api/internal/dto"
	"github.com/futebagres/pelada-api/internal/middleware"
	"github.com/futebagres/pelada-api/internal/models"
)

type fakeDashboardSrv struct {
	view       *dto.DashboardView
	hit        bool
	err        error
	lastUser   string
	lastSearch string
}

func (f *fakeDashboardSrv) Get(_ context.Context, userID, search string) (*dto.DashboardView, bool, error) {
	f.lastUser = userID
	f.lastSearch = search
	return f.view, f.hit, f.err
}

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error map[string]interface{} `json:"error"`
}

func authedContext(rec *httptest.ResponseRecorder, method, target string, body []byte) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, bytesReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Email: "rafa@bagres.com"})
	return c
}

func TestDashboardHandlerRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	handler.Get(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardHandlerSuccess(t *testing.T) {
	srv := &fakeDashboardSrv{
		view: &dto.DashboardView{Search: "quinta", Owned: []models.Event{{ID: "e1"}}},
		hit:  true,
	}
	handler := NewDashboardHandler(srv)

	rec := httptest.NewRecorder()
	c := authedContext(rec, http.MethodGet, "/dashboard?search=%20quinta%20", nil)

	handler.Get(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Equal(t, "quinta", envelope.Data["search"])
	assert.Equal(t, "user-1", srv.lastUser)
	assert.Equal(t, "quinta", srv.lastSearch)
}

func TestDashboardHandlerError(t *testing.T) {
	handler := NewDashboardHandler(&fakeDashboardSrv{err: errors.New("boom")})

	rec := httptest.NewRecorder()
	c := authedContext(rec, http.MethodGet, "/dashboard", nil)

	handler.Get(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
