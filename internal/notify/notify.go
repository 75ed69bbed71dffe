// Package notify tells staff and participants about new registrations and
// contact messages.
package notify

import (
	"context"
	"time"

	"github.com/AlexTLDR/lesezirkel/internal/database"
	"go.uber.org/multierr"
)

type Notifier interface {
	NotifyRegistration(ctx context.Context, event database.Event, reg database.EventRegistration) error
	NotifyContact(ctx context.Context, msg database.ContactMessage) error
}

// Nop discards every notification.
type Nop struct{}

func (Nop) NotifyRegistration(context.Context, database.Event, database.EventRegistration) error {
	return nil
}

func (Nop) NotifyContact(context.Context, database.ContactMessage) error { return nil }

// Multi fans out to several notifiers. Every notifier is tried; the
// errors are combined.
type Multi []Notifier

func (m Multi) NotifyRegistration(ctx context.Context, event database.Event, reg database.EventRegistration) error {
	var err error
	for _, n := range m {
		err = multierr.Append(err, n.NotifyRegistration(ctx, event, reg))
	}
	return err
}

func (m Multi) NotifyContact(ctx context.Context, msg database.ContactMessage) error {
	var err error
	for _, n := range m {
		err = multierr.Append(err, n.NotifyContact(ctx, msg))
	}
	return err
}

// New combines the given notifiers, skipping nils.
func New(notifiers ...Notifier) Notifier {
	var m Multi
	for _, n := range notifiers {
		if n != nil {
			m = append(m, n)
		}
	}
	switch len(m) {
	case 0:
		return Nop{}
	case 1:
		return m[0]
	}
	return m
}

func formatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("02.01.2006 um 15:04")
}
