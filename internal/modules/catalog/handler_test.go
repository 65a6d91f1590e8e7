package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"bikeworkshop/internal/database"
	"bikeworkshop/internal/domain"
	"bikeworkshop/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRouter(t *testing.T) (*gin.Engine, *domain.Workshop) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(fmt.Sprintf("file:catalog_%s?mode=memory&cache=shared", uuid.NewString()), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))

	repo := repository.NewWorkshopRepository(db)
	w := &domain.Workshop{Name: "Thamel Bikes", Address: "Thamel, Kathmandu", PickupDropoffAvailable: true, PickupDropoffCostPerKm: 25}
	require.NoError(t, repo.Create(context.Background(), w))
	require.NoError(t, repo.CreateService(context.Background(), &domain.Service{WorkshopID: w.ID, Name: "Full Service", Price: 1000}))
	require.NoError(t, repo.CreateService(context.Background(), &domain.Service{WorkshopID: w.ID, Name: "Chain Cleaning", Price: 300}))

	router := gin.New()
	NewHandler(NewService(repo)).RegisterRoutes(router.Group("/api/v1"))
	return router, w
}

func TestGetWorkshops(t *testing.T) {
	router, w := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/workshops", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data WorkshopListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Workshops, 1)
	assert.Equal(t, w.ID, body.Data.Workshops[0].ID)
	assert.True(t, body.Data.Workshops[0].PickupDropoffAvailable)
}

func TestGetServices(t *testing.T) {
	router, w := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/workshops/%d/services", w.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data ServiceListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data.Services, 2)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/workshops/999/services", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/workshops/x/services", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
