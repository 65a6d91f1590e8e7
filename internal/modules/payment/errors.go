package payment

import "bikeworkshop/internal/pkg/apperr"

var (
	ErrBookingNotFound = apperr.NotFound("Booking not found")
	ErrNotOwner        = apperr.Forbidden("You can only pay for your own bookings")

	ErrUnsupportedMethod = apperr.Validation("Only COD can be confirmed directly; online payments must be verified")
	ErrAlreadyPaid       = apperr.Conflict("Booking is already paid")
	ErrBookingCancelled  = apperr.Conflict("Cannot pay for a cancelled booking")

	ErrAmountMismatch     = apperr.New(apperr.KindPaymentVerification, "Payment amount does not match the booking total")
	ErrVerificationFailed = apperr.New(apperr.KindPaymentVerification, "Payment verification failed")
	ErrGatewayUnavailable = apperr.New(apperr.KindPaymentVerification, "Payment gateway is unavailable, please try again")
	ErrReferenceUsed      = apperr.New(apperr.KindPaymentVerification, "Payment reference already used")
)
