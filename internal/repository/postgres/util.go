package postgres

import (
	"errors"

	"github.com/NordCoder/Postboard/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound   = domain.ErrNotFound
	ErrConflict   = domain.ErrConflict
	ErrConstraint = domain.ErrConstraint
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// classify maps integrity violations to package errors and returns other
// errors untouched.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return ErrConflict
	case codeForeignKeyViolation, codeCheckViolation:
		return ErrConstraint
	}
	return err
}
