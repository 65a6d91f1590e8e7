package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bikeworkshop/internal/domain"
	"bikeworkshop/internal/modules/notification"
	"bikeworkshop/internal/pkg/apperr"
	"bikeworkshop/internal/pkg/esewa"
	"bikeworkshop/internal/pkg/khalti"
	"bikeworkshop/internal/pkg/validator"
	"bikeworkshop/internal/repository"

	"go.uber.org/zap"
)

// noAmountCheck skips the paisa comparison for cash confirmations.
const noAmountCheck = -1

type Service struct {
	bookings     BookingRepository
	attempts     AttemptRepository
	users        UserRepository
	khalti       KhaltiVerifier
	esewa        EsewaChecker
	awardPercent int
	log          *zap.Logger
	now          func() time.Time
}

func NewService(
	bookings BookingRepository,
	attempts AttemptRepository,
	users UserRepository,
	khaltiClient KhaltiVerifier,
	esewaClient EsewaChecker,
	awardPercent int,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		bookings:     bookings,
		attempts:     attempts,
		users:        users,
		khalti:       khaltiClient,
		esewa:        esewaClient,
		awardPercent: awardPercent,
		log:          log.With(zap.String("module", "payment")),
		now:          time.Now,
	}
}

// ConfirmCOD marks a booking as paid in cash and awards its points.
func (s *Service) ConfirmCOD(ctx context.Context, customerID, bookingID int64, req PayRequest) (*PaymentResult, []notification.Effect, error) {
	if errs := validator.Validate(&req); errs != nil {
		return nil, nil, apperr.Validation(validator.Summary(errs))
	}
	if !strings.EqualFold(strings.TrimSpace(req.PaymentMethod), string(domain.MethodCOD)) {
		return nil, nil, ErrUnsupportedMethod
	}

	ref := fmt.Sprintf("cod:%d", bookingID)
	attempt := &domain.PaymentAttempt{
		BookingID:  bookingID,
		Gateway:    domain.MethodCOD,
		Reference:  ref,
		SettledRef: &ref,
	}
	return s.settle(ctx, customerID, bookingID, domain.MethodCOD, attempt, noAmountCheck)
}

// VerifyKhalti checks the token with Khalti and settles the booking when
// the gateway reports a completed payment of the booking's final amount.
func (s *Service) VerifyKhalti(ctx context.Context, customerID int64, req KhaltiVerifyRequest) (*PaymentResult, []notification.Effect, error) {
	if errs := validator.Validate(&req); errs != nil {
		return nil, nil, apperr.Validation(validator.Summary(errs))
	}

	attempt := &domain.PaymentAttempt{
		BookingID: req.BookingID,
		Gateway:   domain.MethodKhalti,
		Reference: req.Token,
		Amount:    float64(req.Amount) / 100,
	}
	b, err := s.payable(ctx, customerID, req.BookingID)
	if err != nil {
		return nil, nil, err
	}
	if domain.ToMinorUnits(b.FinalAmount) != req.Amount {
		s.recordFailure(ctx, attempt, "claimed amount differs from booking total")
		return nil, nil, ErrAmountMismatch
	}

	v, err := s.khalti.Verify(ctx, req.Token, req.Amount)
	if v != nil {
		attempt.RawResponse = v.Raw
	}
	if err != nil {
		return nil, nil, s.gatewayFailure(ctx, attempt, err, khalti.ErrAmountMismatch, khalti.ErrNotCompleted, khalti.ErrRejected, khalti.ErrUnexpectedResponse)
	}

	attempt.Reference = v.IDX
	ref := "khalti:" + v.IDX
	attempt.SettledRef = &ref
	return s.settle(ctx, customerID, req.BookingID, domain.MethodKhalti, attempt, req.Amount)
}

// VerifyEsewa asks eSewa for the transaction status and settles the
// booking when it is COMPLETE for the booking's final amount.
func (s *Service) VerifyEsewa(ctx context.Context, customerID int64, req EsewaVerifyRequest) (*PaymentResult, []notification.Effect, error) {
	if errs := validator.Validate(&req); errs != nil {
		return nil, nil, apperr.Validation(validator.Summary(errs))
	}

	attempt := &domain.PaymentAttempt{
		BookingID: req.BookingID,
		Gateway:   domain.MethodEsewa,
		Reference: req.TransactionUUID,
		Amount:    req.TotalAmount,
	}
	b, err := s.payable(ctx, customerID, req.BookingID)
	if err != nil {
		return nil, nil, err
	}
	paisa := domain.ToMinorUnits(req.TotalAmount)
	if domain.ToMinorUnits(b.FinalAmount) != paisa {
		s.recordFailure(ctx, attempt, "claimed amount differs from booking total")
		return nil, nil, ErrAmountMismatch
	}

	st, err := s.esewa.CheckStatus(ctx, req.TransactionUUID, req.TotalAmount)
	if st != nil {
		attempt.RawResponse = st.Raw
	}
	if err != nil {
		return nil, nil, s.gatewayFailure(ctx, attempt, err, esewa.ErrAmountMismatch, esewa.ErrNotComplete, esewa.ErrUnexpectedResponse)
	}

	ref := "esewa:" + req.TransactionUUID
	if st.RefID != "" {
		ref = "esewa:" + st.RefID
	}
	attempt.SettledRef = &ref
	return s.settle(ctx, customerID, req.BookingID, domain.MethodEsewa, attempt, paisa)
}

// payable runs the cheap checks before a gateway is called.
func (s *Service) payable(ctx context.Context, customerID, bookingID int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, mapError(err)
	}
	if b.CustomerID != customerID {
		return nil, ErrNotOwner
	}
	if b.IsPaid {
		return nil, ErrAlreadyPaid
	}
	if b.Status == domain.BookingCancelled {
		return nil, ErrBookingCancelled
	}
	return b, nil
}

// settle commits the payment flags, the EARN entry and the verified attempt
// together. paisa is compared with the locked row unless it is noAmountCheck.
func (s *Service) settle(ctx context.Context, customerID, bookingID int64, method domain.PaymentMethod, attempt *domain.PaymentAttempt, paisa int64) (*PaymentResult, []notification.Effect, error) {
	var points int64
	updated, err := s.bookings.Mutate(ctx, bookingID, func(b *domain.Booking) (*domain.BookingPlan, error) {
		if b.CustomerID != customerID {
			return nil, ErrNotOwner
		}
		if b.IsPaid {
			return nil, ErrAlreadyPaid
		}
		if b.Status == domain.BookingCancelled {
			return nil, ErrBookingCancelled
		}
		if paisa != noAmountCheck && domain.ToMinorUnits(b.FinalAmount) != paisa {
			return nil, ErrAmountMismatch
		}

		points = domain.LoyaltyPointsFor(b.FinalAmount, s.awardPercent)
		b.IsPaid = true
		b.PaymentStatus = domain.PaymentPaid
		b.PaymentMethod = method
		b.PointsAwarded = points

		verifiedAt := s.now().UTC()
		attempt.Amount = b.FinalAmount
		attempt.Status = domain.AttemptVerified
		attempt.VerifiedAt = &verifiedAt

		plan := &domain.BookingPlan{Attempt: attempt}
		if points > 0 {
			plan.Ledger = []domain.LedgerEntry{{
				UserID:    b.CustomerID,
				BookingID: &b.ID,
				Points:    points,
				Type:      domain.LoyaltyEarn,
				Note:      "payment via " + string(method),
			}}
		}
		return plan, nil
	})
	if err != nil {
		err = mapError(err)
		if method != domain.MethodCOD {
			failed := *attempt
			failed.ID = 0
			failed.SettledRef = nil
			failed.VerifiedAt = nil
			s.recordFailure(ctx, &failed, err.Error())
		}
		return nil, nil, err
	}

	s.log.Info("booking paid",
		zap.Int64("booking_id", updated.ID),
		zap.String("method", string(method)),
		zap.Float64("amount", updated.FinalAmount),
		zap.Int64("points_awarded", points),
	)

	effects := []notification.Effect{
		notification.PushEffect(updated.CustomerID, notification.EventBookingPaid, updated),
	}
	if u, err := s.users.GetByID(ctx, updated.CustomerID); err != nil {
		s.log.Warn("customer lookup for email failed", zap.Int64("user_id", updated.CustomerID), zap.Error(err))
	} else if u.Email != "" {
		effects = append(effects, notification.BookingConfirmedEmail(u.Email, u.Name, updated))
	}
	return &PaymentResult{Booking: updated, PointsAwarded: points}, effects, nil
}

// gatewayFailure records the attempt and picks the client error. Errors not
// in rejected mean the outcome is unknown, so the attempt stays initiated
// until the cleanup job expires it.
func (s *Service) gatewayFailure(ctx context.Context, attempt *domain.PaymentAttempt, err error, amountErr error, rejected ...error) error {
	s.log.Warn("payment verification failed",
		zap.Int64("booking_id", attempt.BookingID),
		zap.String("gateway", string(attempt.Gateway)),
		zap.Error(err),
	)

	if errors.Is(err, amountErr) {
		s.recordFailure(ctx, attempt, err.Error())
		return apperr.Wrap(ErrAmountMismatch, err)
	}
	for _, r := range rejected {
		if errors.Is(err, r) {
			s.recordFailure(ctx, attempt, err.Error())
			return apperr.Wrap(ErrVerificationFailed, err)
		}
	}

	attempt.Status = domain.AttemptInitiated
	attempt.FailureReason = err.Error()
	if cerr := s.attempts.Create(ctx, attempt); cerr != nil {
		s.log.Error("failed to record payment attempt", zap.Int64("booking_id", attempt.BookingID), zap.Error(cerr))
	}
	return apperr.Wrap(ErrGatewayUnavailable, err)
}

func (s *Service) recordFailure(ctx context.Context, attempt *domain.PaymentAttempt, reason string) {
	attempt.Status = domain.AttemptFailed
	attempt.FailureReason = reason
	if err := s.attempts.Create(ctx, attempt); err != nil {
		s.log.Error("failed to record payment attempt", zap.Int64("booking_id", attempt.BookingID), zap.Error(err))
	}
}

func mapError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrBookingNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrReferenceUsed
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Wrap(apperr.Internal("failed to settle payment"), err)
}
