package invoice

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bikeworkshop/internal/domain"
	"bikeworkshop/internal/pkg/apperr"
	"bikeworkshop/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBookings map[int64]*domain.Booking

func (f fakeBookings) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	if b, ok := f[id]; ok {
		return b, nil
	}
	return nil, repository.ErrNotFound
}

type fakeUsers map[int64]*domain.User

func (f fakeUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

type fakeWorkshops map[int64]*domain.Workshop

func (f fakeWorkshops) GetByID(_ context.Context, id int64) (*domain.Workshop, error) {
	if w, ok := f[id]; ok {
		return w, nil
	}
	return nil, repository.ErrNotFound
}

func newTestService() *Service {
	ws := int64(1)
	other := int64(2)
	paid := &domain.Booking{
		ID: 10, CustomerID: 3, WorkshopID: &ws, CustomerName: "Ram", BikeModel: "Pulsar 220",
		ServiceType: "Full Service", Date: time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC),
		TotalCost: 1000, RequestedPickupDropoff: true, PickupDropoffCost: 120, DiscountApplied: true,
		IsPaid: true, PaymentStatus: domain.PaymentPaid, PaymentMethod: domain.MethodKhalti,
		PointsAwarded: 92, Status: domain.BookingCompleted,
	}
	paid.Reprice()
	unpaid := &domain.Booking{ID: 11, CustomerID: 3, WorkshopID: &ws, TotalCost: 500, Status: domain.BookingPending}
	unpaid.Reprice()

	users := fakeUsers{
		1: {ID: 1, Role: domain.RoleAdmin, WorkshopID: &ws},
		2: {ID: 2, Role: domain.RoleAdmin, WorkshopID: &other},
		3: {ID: 3, Role: domain.RoleCustomer, Email: "ram@example.com"},
	}
	return NewService(fakeBookings{10: paid, 11: unpaid}, users, fakeWorkshops{1: {ID: 1, Name: "Thamel Bikes", Address: "Thamel"}}, nil)
}

func TestRender(t *testing.T) {
	svc := newTestService()

	data, name, err := svc.Render(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "invoice-10.pdf", name)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRender_Guards(t *testing.T) {
	svc := newTestService()

	_, _, err := svc.Render(context.Background(), 1, 11)
	assert.ErrorIs(t, err, ErrNotPaid)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, _, err = svc.Render(context.Background(), 2, 10)
	assert.ErrorIs(t, err, ErrForbiddenWorkshop)

	_, _, err = svc.Render(context.Background(), 1, 99)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	admin := router.Group("/admin", func(c *gin.Context) {
		c.Set("user_id", int64(1))
		c.Next()
	})
	NewHandler(newTestService()).RegisterAdminRoutes(admin)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/bookings/10/invoice", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "invoice-10.pdf")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/bookings/11/invoice", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
