// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers to distinguish
// between failure scenarios without inspecting driver errors.
package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an update cannot be applied because the row
// is no longer in the expected state.
var ErrConflict = errors.New("conflict")

// ErrEmailExists and ErrPhoneExists are returned on unique key violations.
var (
	ErrEmailExists = errors.New("email already exists")
	ErrPhoneExists = errors.New("phone already exists")
)

// ErrPrimaryAdminExists is returned when a second primary admin is inserted.
var ErrPrimaryAdminExists = errors.New("primary admin already exists")

// ErrAlreadyProcessed is returned when an approval request was resolved before.
var ErrAlreadyProcessed = errors.New("approval request already processed")

// ErrAlreadyCheckedIn and ErrNotCheckedIn guard the attendance state machine.
var (
	ErrAlreadyCheckedIn = errors.New("user already checked in")
	ErrNotCheckedIn     = errors.New("user is not checked in")
)

// ErrInsufficientStock is returned when an order line exceeds available stock.
// The whole order is rolled back.
var ErrInsufficientStock = errors.New("insufficient stock")

// mysqlDuplicate is the server error number for unique key violations.
const mysqlDuplicate = 1062

// duplicateKey returns the index name of a unique key violation, or "" when
// err is something else.
func duplicateKey(err error) (string, bool) {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicate {
		return "", false
	}
	// Duplicate entry 'x' for key 'users.uq_users_email'
	msg := me.Message
	if i := strings.LastIndex(msg, "key '"); i >= 0 {
		key := strings.TrimSuffix(msg[i+5:], "'")
		if j := strings.LastIndex(key, "."); j >= 0 {
			key = key[j+1:]
		}
		return key, true
	}
	return "", true
}

// notFound converts sql.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
