package integrity

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes we classify.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgQueryCanceled        = "57014"
	pgConnectionClass      = "08"
)

// Translate converts a store error into a typed *Error. Errors that are
// already typed are returned unchanged and nil stays nil. The original error
// is kept as the cause.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound.WithCause(err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey.WithCause(err)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrReferentialConstraint.WithCause(err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return translateSQLite(sqliteErr, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return translatePostgres(pgErr, err)
	}

	if isTransient(err) {
		return ErrTransientIO.WithCause(err)
	}

	return ErrUnknown.WithCause(err)
}

func translateSQLite(sqliteErr sqlite3.Error, err error) error {
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		e := ErrDuplicateKey.WithCause(err)
		e.Constraint = sqliteConstraint(sqliteErr.Error())
		return e
	case sqlite3.ErrConstraintForeignKey:
		return ErrReferentialConstraint.WithCause(err)
	}

	switch sqliteErr.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrIoErr,
		sqlite3.ErrCantOpen, sqlite3.ErrFull, sqlite3.ErrProtocol:
		return ErrTransientIO.WithCause(err)
	}

	return ErrUnknown.WithCause(err)
}

// sqliteConstraint extracts "table.column" from messages such as
// "UNIQUE constraint failed: books.isbn".
func sqliteConstraint(msg string) string {
	const marker = "constraint failed: "
	if i := strings.Index(msg, marker); i >= 0 {
		return strings.TrimSpace(msg[i+len(marker):])
	}
	return ""
}

func translatePostgres(pgErr *pgconn.PgError, err error) error {
	switch {
	case pgErr.Code == pgUniqueViolation:
		e := ErrDuplicateKey.WithCause(err)
		e.Constraint = pgErr.ConstraintName
		return e
	case pgErr.Code == pgForeignKeyViolation:
		e := ErrReferentialConstraint.WithCause(err)
		e.Constraint = pgErr.ConstraintName
		return e
	case pgErr.Code == pgSerializationFailure,
		pgErr.Code == pgDeadlockDetected,
		pgErr.Code == pgQueryCanceled,
		strings.HasPrefix(pgErr.Code, pgConnectionClass):
		return ErrTransientIO.WithCause(err)
	}
	return ErrUnknown.WithCause(err)
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
