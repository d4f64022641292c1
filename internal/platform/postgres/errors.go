package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/srujana-egov/pgr-on-digit3.0/internal/store"
)

// SQLSTATE codes from the integrity constraint violation class.
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

type constraintKind struct {
	sentinel error
	label    string
	subject  func(*pgconn.PgError) string
}

func constraintName(e *pgconn.PgError) string { return e.ConstraintName }

var constraintKinds = map[string]constraintKind{
	uniqueViolationCode:     {store.ErrDuplicate, "unique violation", constraintName},
	foreignKeyViolationCode: {store.ErrInvalidEntity, "foreign key violation", constraintName},
	checkViolationCode:      {store.ErrInvalidEntity, "check constraint violation", constraintName},
	notNullViolationCode: {store.ErrInvalidEntity, "not null violation", func(e *pgconn.PgError) string {
		return e.ColumnName
	}},
}

// MapError translates driver errors into store sentinels. The driver error
// stays in the message for logging but is not wrapped, so pgconn types do
// not leak past the store boundary. Unrecognised errors are returned as is.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	kind, ok := constraintKinds[pgErr.Code]
	if !ok {
		return err
	}
	return fmt.Errorf("%w: %s (%s): %v", kind.sentinel, kind.label, kind.subject(pgErr), err)
}

// IsUniqueViolation reports whether err carries SQLSTATE 23505.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// CheckRowsAffected turns a zero-row result into notFound, or
// store.ErrNotFound when notFound is nil.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return errors.New("postgres: nil sql.Result")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	if notFound == nil {
		notFound = store.ErrNotFound
	}
	return notFound
}
