package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/AlexTLDR/lesezirkel/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RegistrationInput is a validated registration form.
type RegistrationInput struct {
	FirstName         string
	LastName          string
	Email             string
	Phone             string
	Message           string
	PrivacyConsent    bool
	NewsletterConsent bool
	PhotoConsent      bool
	InvitationCode    string
}

// lockEvent loads the event and, on PostgreSQL, locks its row until the
// transaction ends. SQLite already allows only one writer.
func (db *DB) lockEvent(tx *gorm.DB, eventID uint) (*Event, error) {
	if db.dialect == Postgres {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var event Event
	if err := tx.First(&event, eventID).Error; err != nil {
		return nil, wrap(err, "load event")
	}
	return &event, nil
}

// RegisterForEvent creates a registration for eventID. All checks and the
// insert run in one transaction so capacity and code usage stay consistent
// under concurrent submissions.
func (db *DB) RegisterForEvent(ctx context.Context, eventID uint, in RegistrationInput, now time.Time) (*EventRegistration, error) {
	var created *EventRegistration

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := db.lockEvent(tx, eventID)
		if err != nil {
			return err
		}
		if !event.AcceptsRegistrations(now) {
			return ErrRegistrationClosed
		}

		var code *InvitationCode
		if event.InvitationOnly {
			code, err = checkInvitation(tx, event, in, now)
			if err != nil {
				return err
			}
		}

		email := strings.ToLower(strings.TrimSpace(in.Email))

		var existing int64
		err = tx.Model(&EventRegistration{}).
			Where("event_id = ? AND email = ?", event.ID, email).
			Count(&existing).Error
		if err != nil {
			return wrap(err, "check existing registration")
		}
		if existing > 0 {
			return ErrAlreadyRegistered
		}

		if event.MaxParticipants != nil {
			var confirmed int64
			err = tx.Model(&EventRegistration{}).
				Where("event_id = ? AND is_confirmed = ?", event.ID, true).
				Count(&confirmed).Error
			if err != nil {
				return wrap(err, "count confirmed registrations")
			}
			if confirmed >= int64(*event.MaxParticipants) {
				return ErrEventFull
			}
		}

		reg := EventRegistration{
			EventID:           event.ID,
			FirstName:         strings.TrimSpace(in.FirstName),
			LastName:          strings.TrimSpace(in.LastName),
			Email:             email,
			Phone:             utils.CleanPhone(in.Phone),
			Message:           strings.TrimSpace(in.Message),
			PrivacyConsent:    in.PrivacyConsent,
			NewsletterConsent: in.NewsletterConsent,
			PhotoConsent:      in.PhotoConsent,
		}
		if code != nil {
			reg.InvitationCodeID = &code.ID
		}

		if err := tx.Omit(clause.Associations).Create(&reg).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyRegistered
			}
			return fmt.Errorf("failed to create registration: %w", err)
		}

		if code != nil {
			res := tx.Model(&InvitationCode{}).
				Where("id = ? AND times_used < max_uses", code.ID).
				Update("times_used", gorm.Expr("times_used + 1"))
			if res.Error != nil {
				return fmt.Errorf("failed to use invitation code: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return &InvitationError{Reason: ReasonExhausted}
			}
		}

		reg.Event = *event
		reg.InvitationCode = code
		created = &reg
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func checkInvitation(tx *gorm.DB, event *Event, in RegistrationInput, now time.Time) (*InvitationCode, error) {
	value := NormalizeCode(in.InvitationCode)
	if value == "" {
		return nil, &InvitationError{Reason: ReasonMissing}
	}

	var code InvitationCode
	err := tx.Where("code = ?", value).First(&code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &InvitationError{Reason: ReasonUnknown}
	}
	if err != nil {
		return nil, wrap(err, "load invitation code")
	}
	if code.EventID != event.ID {
		return nil, &InvitationError{Reason: ReasonUnknown}
	}

	if err := code.Check(*event, now); err != nil {
		return nil, err
	}

	if strings.TrimSpace(code.InvitedName) != "" && !utils.NamesMatch(code.InvitedName, in.FirstName, in.LastName) {
		return nil, &InvitationError{Reason: ReasonNameMismatch}
	}

	return &code, nil
}

// SetConfirmed confirms or unconfirms the registrations in ids. Confirming
// never pushes an event past max_participants; registrations that would
// are skipped and counted in refused.
func (db *DB) SetConfirmed(ctx context.Context, ids []uint, confirmed bool) (updated, refused int, err error) {
	if len(ids) == 0 {
		return 0, 0, nil
	}

	if !confirmed {
		n, err := UpdateColumn[EventRegistration](ctx, db, ids, "is_confirmed", false)
		return int(n), 0, err
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending []EventRegistration
		err := tx.Where("id IN ? AND is_confirmed = ?", ids, false).
			Order("created_at ASC, id ASC").
			Find(&pending).Error
		if err != nil {
			return wrap(err, "load registrations")
		}

		byEvent := make(map[uint][]EventRegistration)
		var eventIDs []uint
		for _, reg := range pending {
			if _, ok := byEvent[reg.EventID]; !ok {
				eventIDs = append(eventIDs, reg.EventID)
			}
			byEvent[reg.EventID] = append(byEvent[reg.EventID], reg)
		}
		// lock in a stable order
		sort.Slice(eventIDs, func(i, j int) bool { return eventIDs[i] < eventIDs[j] })

		for _, eventID := range eventIDs {
			event, err := db.lockEvent(tx, eventID)
			if err != nil {
				return err
			}

			var count int64
			err = tx.Model(&EventRegistration{}).
				Where("event_id = ? AND is_confirmed = ?", eventID, true).
				Count(&count).Error
			if err != nil {
				return wrap(err, "count confirmed registrations")
			}

			for _, reg := range byEvent[eventID] {
				if event.MaxParticipants != nil && count >= int64(*event.MaxParticipants) {
					refused++
					continue
				}
				err := tx.Model(&EventRegistration{}).Where("id = ?", reg.ID).Update("is_confirmed", true).Error
				if err != nil {
					return wrap(err, "confirm registration")
				}
				count++
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	return updated, refused, nil
}

// SaveRegistration updates reg. When the update confirms a registration
// that was not confirmed before, the event is locked and the confirmation
// is refused with ErrEventFull once max_participants is reached.
func (db *DB) SaveRegistration(ctx context.Context, reg *EventRegistration) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if reg.IsConfirmed {
			event, err := db.lockEvent(tx, reg.EventID)
			if err != nil {
				return err
			}

			var stored EventRegistration
			if err := tx.Select("is_confirmed").First(&stored, reg.ID).Error; err != nil {
				return wrap(err, "load registration")
			}

			if !stored.IsConfirmed && event.MaxParticipants != nil {
				var count int64
				err := tx.Model(&EventRegistration{}).
					Where("event_id = ? AND is_confirmed = ?", reg.EventID, true).
					Count(&count).Error
				if err != nil {
					return wrap(err, "count confirmed registrations")
				}
				if count >= int64(*event.MaxParticipants) {
					return ErrEventFull
				}
			}
		}

		return wrap(tx.Omit(clause.Associations).Save(reg).Error, "save registration")
	})
}

// RegistrationsForExport returns registrations with their events, ordered
// by event date, last name and first name. Exactly one of registrationIDs
// and eventIDs should be set.
func (db *DB) RegistrationsForExport(ctx context.Context, registrationIDs, eventIDs []uint) ([]EventRegistration, error) {
	query := db.WithContext(ctx).
		Joins("Event").
		Order(`"Event".starts_at ASC, event_registrations.last_name ASC, event_registrations.first_name ASC`)

	switch {
	case len(registrationIDs) > 0:
		query = query.Where("event_registrations.id IN ?", registrationIDs)
	case len(eventIDs) > 0:
		query = query.Where("event_registrations.event_id IN ?", eventIDs)
	default:
		return nil, nil
	}

	var regs []EventRegistration
	if err := query.Find(&regs).Error; err != nil {
		return nil, wrap(err, "load registrations for export")
	}
	return regs, nil
}
