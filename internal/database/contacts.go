package database

import (
	"context"
	"strings"
)

func (db *DB) CreateContactMessage(ctx context.Context, msg *ContactMessage) error {
	msg.Email = strings.ToLower(strings.TrimSpace(msg.Email))
	return Create(ctx, db, msg)
}

func (db *DB) UnreadContactMessages(ctx context.Context, limit int) ([]ContactMessage, error) {
	return List[ContactMessage](ctx, db, Where("is_read = ?", false), OrderBy("created_at DESC"), Limit(limit))
}

func (db *DB) UnreadContactCount(ctx context.Context) (int64, error) {
	return Count[ContactMessage](ctx, db, Where("is_read = ?", false))
}
