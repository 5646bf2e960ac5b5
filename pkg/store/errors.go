package store

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"chatbase/pkg/domain"
)

// Postgres SQLSTATE codes surfaced by constraint failures.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.TrimSpace(pgErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	if pgCode(err) == pgUniqueViolation {
		return true
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isForeignKeyViolation(err error) bool {
	if pgCode(err) == pgForeignKeyViolation {
		return true
	}
	return errors.Is(err, gorm.ErrForeignKeyViolated)
}

func isCheckViolation(err error) bool {
	return pgCode(err) == pgCheckViolation
}

// translate maps a storage-engine failure onto the domain taxonomy, using
// onUnique/onFK as the call site's interpretation of those violations.
// Anything else constraint-shaped collapses into ErrConstraintViolation so
// engine codes never leak to callers.
func translate(err error, onUnique, onFK error) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return onUnique
	case isForeignKeyViolation(err):
		return onFK
	case isCheckViolation(err):
		return domain.ErrConstraintViolation
	}
	return err
}
