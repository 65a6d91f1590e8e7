package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"bikeworkshop/internal/database"
	"bikeworkshop/internal/domain"
	"bikeworkshop/internal/middleware"
	"bikeworkshop/internal/modules/auth"
	"bikeworkshop/internal/modules/booking"
	"bikeworkshop/internal/modules/catalog"
	"bikeworkshop/internal/modules/invoice"
	"bikeworkshop/internal/modules/loyalty"
	"bikeworkshop/internal/modules/notification"
	"bikeworkshop/internal/modules/payment"
	jwtsvc "bikeworkshop/internal/pkg/jwt"
	"bikeworkshop/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type E2ETestSuite struct {
	router     *gin.Engine
	db         *gorm.DB
	jwtService *jwtsvc.Service
	dispatcher *notification.Dispatcher
	workshop   *domain.Workshop
	service    *domain.Service
}

type TestResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorDetail    `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// nullMailer and nullEmitter accept every notification.
type nullMailer struct{}

func (nullMailer) Send(context.Context, string, string, string) error { return nil }

type nullEmitter struct{}

func (nullEmitter) EmitToUser(context.Context, int64, string, any) error { return nil }

func setupTestSuite(t *testing.T) *E2ETestSuite {
	dsn := fmt.Sprintf("file:e2e_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Connect(dsn, zap.NewNop())
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, repository.AutoMigrate(db))

	// Setup repositories
	userRepo := repository.NewUserRepository(db)
	workshopRepo := repository.NewWorkshopRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	loyaltyRepo := repository.NewLoyaltyRepository(db)
	attemptRepo := repository.NewPaymentAttemptRepository(db)

	// Setup services
	jwtService := jwtsvc.New("test_secret_key_32_characters_min", 24*time.Hour)
	dispatcher := notification.NewDispatcher(nullMailer{}, nullEmitter{}, time.Second, zap.NewNop())

	authHandler := auth.NewHandler(auth.NewService(userRepo, jwtService, zap.NewNop()))
	catalogHandler := catalog.NewHandler(catalog.NewService(workshopRepo))
	loyaltyService := loyalty.NewService(loyaltyRepo, zap.NewNop())
	loyaltyHandler := loyalty.NewHandler(loyaltyService)
	bookingHandler := booking.NewHandler(
		booking.NewService(bookingRepo, userRepo, workshopRepo, loyaltyService, zap.NewNop()),
		dispatcher,
	)
	paymentHandler := payment.NewHandler(
		payment.NewService(bookingRepo, attemptRepo, userRepo, nil, nil, 10, zap.NewNop()),
		dispatcher,
	)
	invoiceHandler := invoice.NewHandler(invoice.NewService(bookingRepo, userRepo, workshopRepo, zap.NewNop()))

	// Setup router
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorLogger(zap.NewNop()))

	v1 := r.Group("/api/v1")
	authHandler.RegisterPublicRoutes(v1)
	catalogHandler.RegisterRoutes(v1)

	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(jwtService))
	{
		authHandler.RegisterProtectedRoutes(protected)
		bookingHandler.RegisterRoutes(protected)
		paymentHandler.RegisterRoutes(protected)
		loyaltyHandler.RegisterRoutes(protected)

		admin := protected.Group("/admin")
		admin.Use(middleware.AdminOnly())
		{
			bookingHandler.RegisterAdminRoutes(admin)
			invoiceHandler.RegisterAdminRoutes(admin)
		}
	}

	ctx := context.Background()
	workshop := &domain.Workshop{Name: "Thamel Bike Care", Address: "Thamel", Lat: 27.7154, Lng: 85.3123}
	require.NoError(t, workshopRepo.Create(ctx, workshop))
	svc := &domain.Service{WorkshopID: workshop.ID, Name: "Full Service", Price: 1000}
	require.NoError(t, workshopRepo.CreateService(ctx, svc))

	// Admin accounts come only from seeding.
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, userRepo.Create(ctx, &domain.User{
		Email:        "admin@test.com",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		Name:         "Admin User",
		WorkshopID:   &workshop.ID,
	}))

	t.Cleanup(dispatcher.Wait)

	return &E2ETestSuite{
		router:     r,
		db:         db,
		jwtService: jwtService,
		dispatcher: dispatcher,
		workshop:   workshop,
		service:    svc,
	}
}

func (s *E2ETestSuite) makeRequest(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, data interface{}) *TestResponse {
	var resp TestResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		log.Printf("Failed to parse response. Status: %d, Body: %s", w.Code, w.Body.String())
		t.FailNow()
	}
	if data != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return &resp
}

func (s *E2ETestSuite) login(t *testing.T, email, password string) string {
	w := s.makeRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": email, "password": password,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	parseResponse(t, w, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func (s *E2ETestSuite) createBooking(t *testing.T, token string) domain.Booking {
	w := s.makeRequest(http.MethodPost, "/api/v1/bookings", map[string]any{
		"service_id": s.service.ID,
		"bike_model": "Pulsar 150",
		"date":       time.Now().AddDate(0, 0, 7).Format("2006-01-02"),
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var b domain.Booking
	parseResponse(t, w, &b)
	return b
}

func (s *E2ETestSuite) balance(t *testing.T, token string) int64 {
	w := s.makeRequest(http.MethodGet, "/api/v1/loyalty/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		LoyaltyPoints int64 `json:"loyaltyPoints"`
	}
	parseResponse(t, w, &out)
	return out.LoyaltyPoints
}

// =============================================================================
// Flow 1: registration and login
// =============================================================================

func TestFlow1_RegistrationAndAuth(t *testing.T) {
	suite := setupTestSuite(t)

	w := suite.makeRequest(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": "Ram", "email": "ram@test.com", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = suite.makeRequest(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": "Ram", "email": "RAM@test.com", "password": "secret1",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := parseResponse(t, w, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "EMAIL_EXISTS", resp.Error.Code)

	w = suite.makeRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "ram@test.com", "password": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := suite.login(t, "ram@test.com", "secret1")
	w = suite.makeRequest(http.MethodGet, "/api/v1/auth/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var me auth.UserResponse
	parseResponse(t, w, &me)
	assert.Equal(t, "ram@test.com", me.Email)
	assert.Equal(t, int64(0), me.LoyaltyPoints)

	w = suite.makeRequest(http.MethodGet, "/api/v1/bookings", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = suite.makeRequest(http.MethodGet, "/api/v1/admin/bookings", nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// =============================================================================
// Flow 2: earn, redeem, admin cancel with refund
// =============================================================================

func TestFlow2_LoyaltyLifecycle(t *testing.T) {
	suite := setupTestSuite(t)

	w := suite.makeRequest(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": "Sita", "email": "sita@test.com", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	customer := suite.login(t, "sita@test.com", "secret1")
	admin := suite.login(t, "admin@test.com", "admin123")

	// Paying cash for a 1000 booking earns 100 points.
	first := suite.createBooking(t, customer)
	assert.Equal(t, 1000.0, first.FinalAmount)
	w = suite.makeRequest(http.MethodPut, fmt.Sprintf("/api/v1/bookings/%d/pay", first.ID),
		map[string]string{"paymentMethod": "COD"}, customer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := parseResponse(t, w, nil)
	assert.Equal(t, "Payment confirmed. You earned 100 loyalty points.", resp.Message)
	assert.Equal(t, int64(100), suite.balance(t, customer))

	// The points buy a 20% discount on the next booking.
	second := suite.createBooking(t, customer)
	w = suite.makeRequest(http.MethodPut, fmt.Sprintf("/api/v1/bookings/%d/apply-discount", second.ID), nil, customer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var discounted booking.DiscountResponse
	parseResponse(t, w, &discounted)
	assert.Equal(t, int64(0), discounted.LoyaltyPoints)
	assert.True(t, discounted.Booking.DiscountApplied)
	assert.Equal(t, 200.0, discounted.Booking.DiscountAmount)
	assert.Equal(t, 800.0, discounted.Booking.FinalAmount)

	w = suite.makeRequest(http.MethodPut, fmt.Sprintf("/api/v1/bookings/%d/apply-discount", second.ID), nil, customer)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Admin cancellation returns the redeemed points and archives the booking.
	w = suite.makeRequest(http.MethodDelete, fmt.Sprintf("/api/v1/admin/bookings/%d", second.ID), nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cancelled domain.Booking
	parseResponse(t, w, &cancelled)
	assert.Equal(t, domain.BookingCancelled, cancelled.Status)
	assert.True(t, cancelled.ArchivedByAdmin)
	assert.Equal(t, int64(100), suite.balance(t, customer))

	// The archived booking stays visible to its customer.
	w = suite.makeRequest(http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", second.ID), nil, customer)
	require.Equal(t, http.StatusOK, w.Code)

	// Only the paid booking has an invoice.
	w = suite.makeRequest(http.MethodGet, fmt.Sprintf("/api/v1/admin/bookings/%d/invoice", first.ID), nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = suite.makeRequest(http.MethodGet, fmt.Sprintf("/api/v1/admin/bookings/%d/invoice", second.ID), nil, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// Flow 4: an admin-cancelled booking is closed to the customer
// =============================================================================

func TestFlow4_AdminCancelLocksBooking(t *testing.T) {
	suite := setupTestSuite(t)

	w := suite.makeRequest(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": "Hari", "email": "hari@test.com", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	customer := suite.login(t, "hari@test.com", "secret1")
	admin := suite.login(t, "admin@test.com", "admin123")

	paid := suite.createBooking(t, customer)
	w = suite.makeRequest(http.MethodPut, fmt.Sprintf("/api/v1/bookings/%d/pay", paid.ID),
		map[string]string{"paymentMethod": "COD"}, customer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, int64(100), suite.balance(t, customer))

	target := suite.createBooking(t, customer)
	w = suite.makeRequest(http.MethodDelete, fmt.Sprintf("/api/v1/admin/bookings/%d", target.ID), nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Cash payment would earn points on a booking that will never be serviced.
	w = suite.makeRequest(http.MethodPut, fmt.Sprintf("/api/v1/bookings/%d/pay", target.ID),
		map[string]string{"paymentMethod": "COD"}, customer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := parseResponse(t, w, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Cannot pay for a cancelled booking", resp.Error.Message)
	assert.Equal(t, int64(100), suite.balance(t, customer))

	w = suite.makeRequest(http.MethodPut, fmt.Sprintf("/api/v1/bookings/%d/apply-discount", target.ID), nil, customer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp = parseResponse(t, w, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Cannot apply a discount to a completed or cancelled booking", resp.Error.Message)
	assert.Equal(t, int64(100), suite.balance(t, customer))

	// Removing the archived booking moves no points.
	w = suite.makeRequest(http.MethodDelete, fmt.Sprintf("/api/v1/bookings/%d", target.ID), nil, customer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = suite.makeRequest(http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", target.ID), nil, customer)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, int64(100), suite.balance(t, customer))

	// A discount taken before the admin cancel comes back exactly once.
	discounted := suite.createBooking(t, customer)
	w = suite.makeRequest(http.MethodPut, fmt.Sprintf("/api/v1/bookings/%d/apply-discount", discounted.ID), nil, customer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, int64(0), suite.balance(t, customer))

	w = suite.makeRequest(http.MethodDelete, fmt.Sprintf("/api/v1/admin/bookings/%d", discounted.ID), nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(100), suite.balance(t, customer))

	w = suite.makeRequest(http.MethodDelete, fmt.Sprintf("/api/v1/bookings/%d", discounted.ID), nil, customer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(100), suite.balance(t, customer))
}

// =============================================================================
// Flow 3: catalog browsing
// =============================================================================

func TestFlow3_Catalog(t *testing.T) {
	suite := setupTestSuite(t)

	w := suite.makeRequest(http.MethodGet, "/api/v1/workshops", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.makeRequest(http.MethodGet, fmt.Sprintf("/api/v1/workshops/%d/services", suite.workshop.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Full Service")

	w = suite.makeRequest(http.MethodGet, "/api/v1/workshops/9999/services", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}
