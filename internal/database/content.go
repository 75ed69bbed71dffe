package database

import (
	"context"
	"time"
)

const (
	NewsPerPage    = 9
	GalleryPerPage = 12
)

func publishedBy(now time.Time) Scope {
	return Where("published_date <= ?", now.UTC())
}

// PublishedNews pages through news that are published at now, newest first.
func (db *DB) PublishedNews(ctx context.Context, now time.Time, page int) (Page[News], error) {
	return Paginate[News](ctx, db, page, NewsPerPage, nil, publishedBy(now), OrderBy("published_date DESC"))
}

func (db *DB) FeaturedNews(ctx context.Context, now time.Time, limit int) ([]News, error) {
	return List[News](ctx, db,
		publishedBy(now),
		Where("is_featured = ?", true),
		OrderBy("published_date DESC"),
		Limit(limit),
	)
}

// PublishedNewsItem returns a news item unless it is scheduled for later.
func (db *DB) PublishedNewsItem(ctx context.Context, id uint, now time.Time) (*News, error) {
	return Get[News](ctx, db, id, publishedBy(now))
}

func (db *DB) RelatedNews(ctx context.Context, id uint, now time.Time, limit int) ([]News, error) {
	return List[News](ctx, db,
		publishedBy(now),
		Where("id <> ?", id),
		OrderBy("published_date DESC"),
		Limit(limit),
	)
}

func (db *DB) TeamMembers(ctx context.Context) ([]TeamMember, error) {
	return List[TeamMember](ctx, db, OrderBy("sort_order ASC, name ASC"))
}

func (db *DB) GalleryPage(ctx context.Context, page int) (Page[GalleryItem], error) {
	return Paginate[GalleryItem](ctx, db, page, GalleryPerPage, nil, OrderBy("created_at DESC, id DESC"))
}

func (db *DB) LatestGallery(ctx context.Context, limit int) ([]GalleryItem, error) {
	return List[GalleryItem](ctx, db, OrderBy("created_at DESC, id DESC"), Limit(limit))
}

// CurrentAnnouncement returns the most recently started announcement that
// is active at now, or ErrNotFound.
func (db *DB) CurrentAnnouncement(ctx context.Context, now time.Time) (*Announcement, error) {
	var a Announcement
	err := db.WithContext(ctx).
		Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, now.UTC(), now.UTC()).
		Order("start_date DESC").
		First(&a).Error
	if err != nil {
		return nil, wrap(err, "get current announcement")
	}
	return &a, nil
}
