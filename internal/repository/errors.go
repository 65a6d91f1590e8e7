package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicate          = errors.New("duplicate record")
	ErrInsufficientPoints = errors.New("insufficient loyalty points")
	ErrInvalidPoints      = errors.New("points must be positive")
)

const pgUniqueViolation = "23505"

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique failed") || strings.Contains(msg, "duplicate key")
}
