package database

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrAlreadyRegistered  = errors.New("already registered for this event")
	ErrEventFull          = errors.New("event is fully booked")
	ErrRegistrationClosed = errors.New("event does not accept registrations")
	ErrDuplicate          = errors.New("duplicate value")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type InvitationReason string

const (
	ReasonMissing      InvitationReason = "missing"
	ReasonUnknown      InvitationReason = "unknown"
	ReasonInactive     InvitationReason = "inactive"
	ReasonExhausted    InvitationReason = "exhausted"
	ReasonExpired      InvitationReason = "expired"
	ReasonEventPast    InvitationReason = "event_past"
	ReasonNameMismatch InvitationReason = "name_mismatch"
)

// InvitationError explains why an invitation code was rejected.
type InvitationError struct {
	Reason InvitationReason
}

func (e *InvitationError) Error() string {
	return "invitation code rejected: " + string(e.Reason)
}

// MessageKey is the i18n key of the user facing message.
func (e *InvitationError) MessageKey() string {
	return "invitation." + string(e.Reason)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// wrap maps driver errors onto the package sentinels.
func wrap(err error, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("failed to %s: %w", action, ErrDuplicate)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
