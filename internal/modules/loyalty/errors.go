package loyalty

import "bikeworkshop/internal/pkg/apperr"

var (
	ErrUserNotFound       = apperr.NotFound("User not found")
	ErrInsufficientPoints = apperr.New(apperr.KindInsufficientPoints, "Insufficient loyalty points")
	ErrInvalidPoints      = apperr.Validation("Points must be a positive whole number")
	ErrWrongEntryType     = apperr.Internal("ledger entry type does not match operation")
)
