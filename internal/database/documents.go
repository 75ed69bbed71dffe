package database

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

const DocumentsPerPage = 12

func publicDocuments(tx *gorm.DB) *gorm.DB {
	return tx.Where("is_public = ?", true)
}

// PublicDocuments pages through public documents, featured ones first.
// An empty category lists all of them.
func (db *DB) PublicDocuments(ctx context.Context, category string, page int) (Page[Document], error) {
	scopes := []Scope{publicDocuments, OrderBy("is_featured DESC, created_at DESC, id DESC")}
	if category != "" {
		scopes = append(scopes, Where("category = ?", category))
	}
	return Paginate[Document](ctx, db, page, DocumentsPerPage, nil, scopes...)
}

func (db *DB) PublicDocument(ctx context.Context, id uint) (*Document, error) {
	return Get[Document](ctx, db, id, publicDocuments)
}

// RelatedDocuments returns public documents from the same category.
func (db *DB) RelatedDocuments(ctx context.Context, doc *Document, limit int) ([]Document, error) {
	return List[Document](ctx, db,
		publicDocuments,
		Where("category = ? AND id <> ?", doc.Category, doc.ID),
		OrderBy("is_featured DESC, created_at DESC"),
		Limit(limit),
	)
}

func (db *DB) IncrementDownloadCount(ctx context.Context, id uint) error {
	err := db.WithContext(ctx).
		Model(&Document{}).
		Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + 1")).Error
	return wrap(err, "increment download count")
}

// FindCertificate looks a certificate up by participant number and checks
// the names case-insensitively.
func (db *DB) FindCertificate(ctx context.Context, firstName, lastName, participantNumber string) (*Certificate, error) {
	var cert Certificate
	err := db.WithContext(ctx).
		Where("participant_number = ?", strings.TrimSpace(participantNumber)).
		First(&cert).Error
	if err != nil {
		return nil, wrap(err, "find certificate")
	}

	if !strings.EqualFold(cert.FirstName, strings.TrimSpace(firstName)) ||
		!strings.EqualFold(cert.LastName, strings.TrimSpace(lastName)) {
		return nil, ErrNotFound
	}
	return &cert, nil
}
