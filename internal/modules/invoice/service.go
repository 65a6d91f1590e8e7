// Package invoice renders PDF invoices for paid bookings.
package invoice

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"bikeworkshop/internal/domain"
	"bikeworkshop/internal/pkg/apperr"
	"bikeworkshop/internal/repository"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

var (
	ErrBookingNotFound   = apperr.NotFound("Booking not found")
	ErrNotPaid           = apperr.Conflict("Invoice is available only for paid bookings")
	ErrForbiddenWorkshop = apperr.Forbidden("This booking belongs to another workshop")
)

type BookingReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type WorkshopReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Workshop, error)
}

type Service struct {
	bookings  BookingReader
	users     UserReader
	workshops WorkshopReader
	log       *zap.Logger
}

func NewService(bookings BookingReader, users UserReader, workshops WorkshopReader, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{bookings: bookings, users: users, workshops: workshops, log: log.With(zap.String("module", "invoice"))}
}

// Render returns the PDF for booking id and a file name for it.
func (s *Service) Render(ctx context.Context, adminID, id int64) ([]byte, string, error) {
	admin, err := s.users.GetByID(ctx, adminID)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.Internal("failed to load admin"), err)
	}
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrBookingNotFound
		}
		return nil, "", apperr.Wrap(apperr.Internal("failed to load booking"), err)
	}
	if !admin.CanManage(b) {
		return nil, "", ErrForbiddenWorkshop
	}
	if !b.IsPaid {
		return nil, "", ErrNotPaid
	}

	var w *domain.Workshop
	if b.WorkshopID != nil {
		w, err = s.workshops.GetByID(ctx, *b.WorkshopID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, "", apperr.Wrap(apperr.Internal("failed to load workshop"), err)
		}
	}
	var customer *domain.User
	if c, err := s.users.GetByID(ctx, b.CustomerID); err == nil {
		customer = c
	}

	data, err := render(b, w, customer)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.Internal("failed to render invoice"), err)
	}
	s.log.Info("invoice rendered", zap.Int64("booking_id", b.ID), zap.Int64("admin_id", adminID), zap.Int("bytes", len(data)))
	return data, fmt.Sprintf("invoice-%d.pdf", b.ID), nil
}

func render(b *domain.Booking, w *domain.Workshop, customer *domain.User) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Invoice #%d", b.ID), false)
	pdf.SetCreator("bikeworkshop", false)
	pdf.AddPage()

	workshopName := "Workshop"
	if w != nil {
		workshopName = w.Name
	}
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, workshopName, "", 1, "L", false, 0, "")
	if w != nil && w.Address != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, w.Address, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, fmt.Sprintf("Invoice #%d", b.ID), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	customerLine := b.CustomerName
	if customer != nil && customer.Email != "" {
		customerLine = fmt.Sprintf("%s <%s>", b.CustomerName, customer.Email)
	}
	details := [][2]string{
		{"Customer", customerLine},
		{"Bike", b.BikeModel},
		{"Service", b.ServiceType},
		{"Date", b.Date.Format("02 Jan 2006")},
		{"Status", string(b.Status)},
		{"Payment method", string(b.PaymentMethod)},
	}
	pdf.SetFont("Helvetica", "", 11)
	for _, row := range details {
		pdf.CellFormat(50, 7, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, row[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(130, 8, "Item", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, "Amount (Rs.)", "1", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	lines := [][2]string{{"Service cost", money(b.TotalCost)}}
	if b.RequestedPickupDropoff {
		lines = append(lines, [2]string{"Pickup and dropoff", money(b.PickupDropoffCost)})
	}
	if b.DiscountApplied {
		lines = append(lines, [2]string{"Loyalty discount (20%)", "-" + money(b.DiscountAmount)})
	}
	for _, l := range lines {
		pdf.CellFormat(130, 8, l[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 8, l[1], "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(130, 8, "Total paid", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, money(b.FinalAmount), "1", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Loyalty points earned: %d", b.PointsAwarded), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
