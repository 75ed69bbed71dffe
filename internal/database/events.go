package database

import (
	"context"
	"time"
)

func (db *DB) GetEvent(ctx context.Context, id uint) (*Event, error) {
	return Get[Event](ctx, db, id)
}

// UpcomingEvents returns events starting at or after now, soonest first.
func (db *DB) UpcomingEvents(ctx context.Context, now time.Time, limit int) ([]Event, error) {
	var events []Event
	err := db.WithContext(ctx).
		Where("starts_at >= ?", now.UTC()).
		Order("starts_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, wrap(err, "get upcoming events")
	}
	return events, nil
}

// EventsBetween returns events with start <= date < end in date order.
func (db *DB) EventsBetween(ctx context.Context, start, end time.Time) ([]Event, error) {
	var events []Event
	err := db.WithContext(ctx).
		Where("starts_at >= ? AND starts_at < ?", start.UTC(), end.UTC()).
		Order("starts_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, wrap(err, "get events between dates")
	}
	return events, nil
}

// RelatedEvents returns other events, newest first.
func (db *DB) RelatedEvents(ctx context.Context, id uint, limit int) ([]Event, error) {
	var events []Event
	err := db.WithContext(ctx).
		Where("id <> ?", id).
		Order("starts_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, wrap(err, "get related events")
	}
	return events, nil
}

type RegistrationCount struct {
	EventID   uint
	Total     int64
	Confirmed int64
}

// RegistrationCounts returns total and confirmed registrations per event.
// Events without registrations are missing from the map.
func (db *DB) RegistrationCounts(ctx context.Context, eventIDs []uint) (map[uint]RegistrationCount, error) {
	counts := make(map[uint]RegistrationCount, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}

	var rows []RegistrationCount
	err := db.WithContext(ctx).
		Model(&EventRegistration{}).
		Select("event_id, COUNT(*) AS total, SUM(CASE WHEN is_confirmed THEN 1 ELSE 0 END) AS confirmed").
		Where("event_id IN ?", eventIDs).
		Group("event_id").
		Scan(&rows).Error
	if err != nil {
		return nil, wrap(err, "count registrations")
	}

	for _, row := range rows {
		counts[row.EventID] = row
	}
	return counts, nil
}

func (db *DB) ConfirmedCount(ctx context.Context, eventID uint) (int64, error) {
	return Count[EventRegistration](ctx, db, Where("event_id = ? AND is_confirmed = ?", eventID, true))
}
