package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bikeworkshop/internal/domain"
	"bikeworkshop/internal/modules/loyalty"
	"bikeworkshop/internal/modules/notification"
	"bikeworkshop/internal/pkg/apperr"
	"bikeworkshop/internal/pkg/utils"
	"bikeworkshop/internal/pkg/validator"
	"bikeworkshop/internal/repository"

	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type Service struct {
	bookings BookingRepository
	users    UserRepository
	catalog  CatalogRepository
	points   PointsReader
	log      *zap.Logger
	now      func() time.Time
}

func NewService(bookings BookingRepository, users UserRepository, catalog CatalogRepository, points PointsReader, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		bookings: bookings,
		users:    users,
		catalog:  catalog,
		points:   points,
		log:      log.With(zap.String("module", "booking")),
		now:      time.Now,
	}
}

func (s *Service) Create(ctx context.Context, customerID int64, req CreateBookingRequest) (*domain.Booking, []notification.Effect, error) {
	if errs := validator.Validate(&req); errs != nil {
		return nil, nil, apperr.Validation(validator.Summary(errs))
	}
	date, err := s.parseFutureDate(req.Date)
	if err != nil {
		return nil, nil, err
	}

	customer, err := s.users.GetByID(ctx, customerID)
	if err != nil {
		return nil, nil, mapLookupError(err, ErrUserNotFound)
	}
	svc, err := s.catalog.GetServiceByID(ctx, req.ServiceID)
	if err != nil {
		return nil, nil, mapLookupError(err, ErrServiceNotFound)
	}
	workshop, err := s.catalog.GetByID(ctx, svc.WorkshopID)
	if err != nil {
		return nil, nil, mapLookupError(err, ErrWorkshopNotFound)
	}

	b := &domain.Booking{
		CustomerID:    customer.ID,
		ServiceID:     svc.ID,
		WorkshopID:    &workshop.ID,
		CustomerName:  customer.Name,
		BikeModel:     strings.TrimSpace(req.BikeModel),
		ServiceType:   svc.Name,
		Date:          date,
		Notes:         strings.TrimSpace(req.Notes),
		TotalCost:     svc.Price,
		PaymentStatus: domain.PaymentPending,
		PaymentMethod: domain.MethodNotSelected,
		Status:        domain.BookingPending,
	}

	if req.RequestedPickupDropoff {
		cost, err := pickupCost(workshop, req.Pickup.toDomain(), req.Dropoff.toDomain())
		if err != nil {
			return nil, nil, err
		}
		b.RequestedPickupDropoff = true
		b.Pickup = req.Pickup.toDomain()
		b.Dropoff = req.Dropoff.toDomain()
		b.PickupDropoffCost = cost
	}
	b.Reprice()

	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, nil, apperr.Wrap(apperr.Internal("failed to create booking"), err)
	}

	s.log.Info("booking created",
		zap.Int64("booking_id", b.ID),
		zap.Int64("customer_id", b.CustomerID),
		zap.Float64("final_amount", b.FinalAmount),
	)
	return b, []notification.Effect{
		notification.PushEffect(b.CustomerID, notification.EventBookingCreated, b),
	}, nil
}

func (s *Service) Get(ctx context.Context, actorID, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, ErrBookingNotFound)
	}
	if b.CustomerID == actorID {
		return b, nil
	}
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, mapLookupError(err, ErrUserNotFound)
	}
	if !actor.CanManage(b) {
		return nil, ErrNotOwner
	}
	return b, nil
}

func (s *Service) MyBookings(ctx context.Context, customerID int64) ([]domain.Booking, error) {
	list, err := s.bookings.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal("failed to list bookings"), err)
	}
	return list, nil
}

func (s *Service) UserEdit(ctx context.Context, customerID, id int64, req UpdateBookingRequest) (*domain.Booking, error) {
	if errs := validator.Validate(&req); errs != nil {
		return nil, apperr.Validation(validator.Summary(errs))
	}
	var date *time.Time
	if req.Date != nil {
		d, err := s.parseFutureDate(*req.Date)
		if err != nil {
			return nil, err
		}
		date = &d
	}

	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, ErrBookingNotFound)
	}
	if current.CustomerID != customerID {
		return nil, ErrNotOwner
	}
	var workshop *domain.Workshop
	if current.WorkshopID != nil {
		workshop, err = s.catalog.GetByID(ctx, *current.WorkshopID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Wrap(apperr.Internal("failed to load workshop"), err)
		}
	}

	updated, err := s.bookings.Mutate(ctx, id, func(b *domain.Booking) (*domain.BookingPlan, error) {
		if err := editable(b, customerID); err != nil {
			return nil, err
		}

		if req.BikeModel != nil {
			b.BikeModel = strings.TrimSpace(*req.BikeModel)
		}
		if date != nil {
			b.Date = *date
		}
		if req.Notes != nil {
			b.Notes = strings.TrimSpace(*req.Notes)
		}

		wantPickup := b.RequestedPickupDropoff
		if req.RequestedPickupDropoff != nil {
			wantPickup = *req.RequestedPickupDropoff
		}

		switch {
		case !wantPickup:
			b.ClearPickup()
		case !b.RequestedPickupDropoff || req.Pickup != nil || req.Dropoff != nil:
			pickup, dropoff := b.Pickup, b.Dropoff
			if req.Pickup != nil {
				pickup = req.Pickup.toDomain()
			}
			if req.Dropoff != nil {
				dropoff = req.Dropoff.toDomain()
			}
			if workshop == nil {
				return nil, ErrPickupUnavailable
			}
			cost, err := pickupCost(workshop, pickup, dropoff)
			if err != nil {
				return nil, err
			}
			b.RequestedPickupDropoff = true
			b.Pickup, b.Dropoff = pickup, dropoff
			b.PickupDropoffCost = cost
		}

		b.Reprice()
		return nil, nil
	})
	if err != nil {
		return nil, mapMutateError(err)
	}
	return updated, nil
}

// UserCancel deletes an unpaid booking and returns its loyalty changes.
func (s *Service) UserCancel(ctx context.Context, customerID, id int64) (*CancelResult, error) {
	result := &CancelResult{BookingID: id}

	_, err := s.bookings.Mutate(ctx, id, func(b *domain.Booking) (*domain.BookingPlan, error) {
		if b.CustomerID != customerID {
			return nil, ErrNotOwner
		}
		if b.IsPaid {
			return nil, ErrCancelPaid
		}

		plan := &domain.BookingPlan{Delete: true}
		// An admin cancellation already settled the points.
		if b.Status == domain.BookingCancelled {
			return plan, nil
		}
		plan.Ledger = refundEntries(b, "cancelled by customer")
		result.ReversedPoints, result.RefundedPoints = ledgerTotals(plan.Ledger)
		return plan, nil
	})
	if err != nil {
		return nil, mapMutateError(err)
	}

	s.log.Info("booking cancelled by customer",
		zap.Int64("booking_id", id),
		zap.Int64("refunded_points", result.RefundedPoints),
		zap.Int64("reversed_points", result.ReversedPoints),
	)
	return result, nil
}

func (s *Service) ApplyDiscount(ctx context.Context, customerID, id int64) (*DiscountResponse, []notification.Effect, error) {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, nil, mapLookupError(err, ErrBookingNotFound)
	}
	if err := discountable(current, customerID); err != nil {
		return nil, nil, err
	}

	ok, err := s.points.HasAtLeast(ctx, customerID, domain.DiscountPointsCost)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrNotEnoughPoints
	}

	var plan *domain.BookingPlan
	updated, err := s.bookings.Mutate(ctx, id, func(b *domain.Booking) (*domain.BookingPlan, error) {
		if err := discountable(b, customerID); err != nil {
			return nil, err
		}
		b.DiscountApplied = true
		b.Reprice()
		plan = &domain.BookingPlan{Ledger: []domain.LedgerEntry{{
			UserID:    b.CustomerID,
			BookingID: &b.ID,
			Points:    domain.DiscountPointsCost,
			Type:      domain.LoyaltyRedeem,
			Note:      "discount applied",
		}}}
		return plan, nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientPoints) {
			return nil, nil, ErrNotEnoughPoints
		}
		return nil, nil, mapMutateError(err)
	}

	balance := plan.Balance
	s.log.Info("discount applied", zap.Int64("booking_id", updated.ID), zap.Int64("balance", balance))

	effects := []notification.Effect{
		notification.PushEffect(updated.CustomerID, notification.EventDiscountApplied, updated),
	}
	if email, name, ok := s.contact(ctx, updated.CustomerID); ok {
		effects = append(effects, notification.DiscountAppliedEmail(email, name, updated, balance))
	}
	return &DiscountResponse{Booking: updated, LoyaltyPoints: balance}, effects, nil
}

func (s *Service) AdminUpdate(ctx context.Context, adminID, id int64, req AdminUpdateRequest) (*domain.Booking, []notification.Effect, error) {
	admin, err := s.admin(ctx, adminID)
	if err != nil {
		return nil, nil, err
	}

	var target *domain.BookingStatus
	if req.Status != nil {
		st, ok := domain.ParseBookingStatus(*req.Status)
		if !ok {
			return nil, nil, ErrInvalidStatus
		}
		target = &st
	}
	if req.TotalCost != nil && *req.TotalCost < 0 {
		return nil, nil, ErrNegativeCost
	}

	var statusChanged bool
	updated, err := s.bookings.Mutate(ctx, id, func(b *domain.Booking) (*domain.BookingPlan, error) {
		if !admin.CanManage(b) {
			return nil, ErrForbiddenWorkshop
		}
		if target != nil && *target != b.Status {
			if !b.Status.CanTransitionTo(*target) {
				return nil, apperr.Wrap(ErrInvalidTransition, fmt.Errorf("%s -> %s", b.Status, *target))
			}
			b.Status = *target
			statusChanged = true
		}
		// Pickup cost is never recomputed here.
		if req.TotalCost != nil && *req.TotalCost != b.TotalCost {
			b.TotalCost = *req.TotalCost
		}
		b.Reprice()
		return nil, nil
	})
	if err != nil {
		return nil, nil, mapMutateError(err)
	}

	var effects []notification.Effect
	if statusChanged {
		s.log.Info("booking status changed",
			zap.Int64("booking_id", updated.ID),
			zap.String("status", string(updated.Status)),
			zap.Int64("admin_id", adminID),
		)
		effects = append(effects, statusPush(updated))
		if updated.Status == domain.BookingCompleted {
			if email, name, ok := s.contact(ctx, updated.CustomerID); ok {
				effects = append(effects, notification.BookingCompletedEmail(email, name, updated))
			}
		}
	}
	return updated, effects, nil
}

// AdminDelete cancels and archives an open booking, or only archives a
// finished one. The row is never removed.
func (s *Service) AdminDelete(ctx context.Context, adminID, id int64) (*domain.Booking, []notification.Effect, error) {
	admin, err := s.admin(ctx, adminID)
	if err != nil {
		return nil, nil, err
	}

	var cancelled bool
	updated, err := s.bookings.Mutate(ctx, id, func(b *domain.Booking) (*domain.BookingPlan, error) {
		if !admin.CanManage(b) {
			return nil, ErrForbiddenWorkshop
		}
		b.ArchivedByAdmin = true
		if !b.Status.IsOpen() {
			return nil, nil
		}
		b.Status = domain.BookingCancelled
		cancelled = true
		return &domain.BookingPlan{Ledger: refundEntries(b, "cancelled by workshop")}, nil
	})
	if err != nil {
		return nil, nil, mapMutateError(err)
	}

	if !cancelled {
		return updated, nil, nil
	}

	s.log.Info("booking cancelled by admin", zap.Int64("booking_id", updated.ID), zap.Int64("admin_id", adminID))
	effects := []notification.Effect{statusPush(updated)}
	if email, name, ok := s.contact(ctx, updated.CustomerID); ok {
		refund := updated.IsPaid && updated.PaymentMethod != domain.MethodCOD
		effects = append(effects, notification.BookingCancelledEmail(email, name, updated, refund))
	}
	return updated, effects, nil
}

func (s *Service) AdminList(ctx context.Context, adminID int64, q AdminListQuery) (*AdminListResponse, error) {
	admin, err := s.admin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	page, limit := utils.NormalizePage(q.Page, q.Limit)
	filter := domain.BookingFilter{Search: q.Search, Page: page, Limit: limit}
	if admin.Role != domain.RoleSuperAdmin {
		filter.WorkshopID = admin.WorkshopID
	}

	list, total, err := s.bookings.ListForAdmin(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal("failed to list bookings"), err)
	}
	return &AdminListResponse{
		Bookings:   list,
		Pagination: utils.NewPagination(page, limit, total),
	}, nil
}

func (s *Service) admin(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapLookupError(err, ErrUserNotFound)
	}
	switch u.Role {
	case domain.RoleSuperAdmin:
		return u, nil
	case domain.RoleAdmin:
		if u.WorkshopID == nil {
			return nil, ErrAdminNoWorkshop
		}
		return u, nil
	default:
		return nil, ErrAdminOnly
	}
}

// contact looks up where to email the customer. A failure only costs the
// email, so it is logged and reported as !ok.
func (s *Service) contact(ctx context.Context, userID int64) (string, string, bool) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.log.Warn("customer lookup for email failed", zap.Int64("user_id", userID), zap.Error(err))
		return "", "", false
	}
	if u.Email == "" {
		return "", "", false
	}
	return u.Email, u.Name, true
}

func (s *Service) parseFutureDate(raw string) (time.Time, error) {
	d, err := parseDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	if d.Before(today) {
		return time.Time{}, ErrDateInPast
	}
	return d, nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339 and keeps the UTC calendar day.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t.UTC().Truncate(24 * time.Hour), nil
}

func pickupCost(w *domain.Workshop, pickup, dropoff domain.Location) (float64, error) {
	if !pickup.Complete() || !dropoff.Complete() {
		return 0, ErrIncompletePickup
	}
	if w == nil || !w.PickupDropoffAvailable {
		return 0, ErrPickupUnavailable
	}
	km := domain.RouteDistanceKm(w, pickup, dropoff)
	return domain.PickupDropoffCost(km, w.PickupDropoffCostPerKm), nil
}

func editable(b *domain.Booking, customerID int64) error {
	switch {
	case b.CustomerID != customerID:
		return ErrNotOwner
	case b.IsPaid:
		return ErrEditPaid
	case b.Status != domain.BookingPending:
		return ErrEditLocked
	case b.DiscountApplied:
		return ErrEditDiscounted
	}
	return nil
}

func discountable(b *domain.Booking, customerID int64) error {
	switch {
	case b.CustomerID != customerID:
		return ErrNotOwner
	case b.IsPaid:
		return ErrDiscountPaid
	case b.Status.IsTerminal():
		return ErrDiscountClosed
	case b.DiscountApplied:
		return ErrDiscountApplied
	}
	return nil
}

// refundEntries takes back awarded points and returns redeemed ones.
func refundEntries(b *domain.Booking, note string) []domain.LedgerEntry {
	var entries []domain.LedgerEntry
	if b.PointsAwarded > 0 {
		entries = append(entries, domain.LedgerEntry{
			UserID: b.CustomerID, BookingID: &b.ID, Points: b.PointsAwarded,
			Type: domain.LoyaltyReversal, Note: note,
		})
	}
	if b.DiscountApplied {
		entries = append(entries, domain.LedgerEntry{
			UserID: b.CustomerID, BookingID: &b.ID, Points: domain.DiscountPointsCost,
			Type: domain.LoyaltyRefund, Note: note,
		})
	}
	return entries
}

func ledgerTotals(entries []domain.LedgerEntry) (reversed, refunded int64) {
	for _, e := range entries {
		if e.Type.IsCredit() {
			refunded += e.Points
		} else {
			reversed += e.Points
		}
	}
	return reversed, refunded
}

func statusPush(b *domain.Booking) notification.Effect {
	return notification.PushEffect(b.CustomerID, notification.EventBookingStatus, map[string]any{
		"booking_id": b.ID,
		"status":     b.Status,
		"archived":   b.ArchivedByAdmin,
	})
}

func mapLookupError(err error, notFound *apperr.Error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Wrap(apperr.Internal("lookup failed"), err)
}

func mapMutateError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrBookingNotFound
	case errors.Is(err, repository.ErrInsufficientPoints), errors.Is(err, repository.ErrInvalidPoints):
		return loyalty.MapLedgerError(err)
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Wrap(apperr.Internal("failed to update booking"), err)
}
