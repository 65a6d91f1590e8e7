package booking

import "bikeworkshop/internal/pkg/apperr"

var (
	ErrBookingNotFound  = apperr.NotFound("Booking not found")
	ErrServiceNotFound  = apperr.NotFound("Service not found")
	ErrWorkshopNotFound = apperr.NotFound("Workshop not found")
	ErrUserNotFound     = apperr.NotFound("User not found")

	ErrNotOwner          = apperr.Forbidden("You can only manage your own bookings")
	ErrAdminOnly         = apperr.Forbidden("Admin access required")
	ErrAdminNoWorkshop   = apperr.Forbidden("Admin is not linked to a workshop")
	ErrForbiddenWorkshop = apperr.Forbidden("This booking belongs to another workshop")

	ErrInvalidDate       = apperr.Validation("Invalid date, expected YYYY-MM-DD")
	ErrDateInPast        = apperr.Validation("Booking date cannot be in the past")
	ErrIncompletePickup  = apperr.Validation("Please provide complete pickup and dropoff details")
	ErrPickupUnavailable = apperr.Validation("This workshop does not offer pickup and dropoff service")
	ErrInvalidStatus     = apperr.Validation("Invalid status value")
	ErrNegativeCost      = apperr.Validation("Total cost cannot be negative")

	ErrInvalidTransition = apperr.Conflict("This status change is not allowed")
	ErrCancelPaid        = apperr.Conflict("Cannot cancel a booking that has been paid for")
	ErrEditPaid          = apperr.Conflict("Cannot edit a booking that has been paid for")
	ErrEditLocked        = apperr.Conflict("This booking can no longer be edited")
	ErrEditDiscounted    = apperr.Conflict("Cannot edit a booking after a discount has been applied")
	ErrDiscountPaid      = apperr.Conflict("Cannot apply a discount to a paid booking")
	ErrDiscountClosed    = apperr.Conflict("Cannot apply a discount to a completed or cancelled booking")

	ErrDiscountApplied = apperr.New(apperr.KindAlreadyApplied, "Discount already applied to this booking")
	ErrNotEnoughPoints = apperr.New(apperr.KindInsufficientPoints, "You need at least 100 loyalty points to apply a discount")
)
