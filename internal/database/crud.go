package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Scope narrows a query, see gorm.DB.Scopes.
type Scope = func(*gorm.DB) *gorm.DB

// Page is one page of a paginated list. Numbers start at 1.
type Page[T any] struct {
	Items      []T
	Number     int
	Size       int
	Total      int64
	TotalPages int
}

func (p Page[T]) HasPrev() bool { return p.Number > 1 }
func (p Page[T]) HasNext() bool { return p.Number < p.TotalPages }
func (p Page[T]) Prev() int     { return p.Number - 1 }
func (p Page[T]) Next() int     { return p.Number + 1 }

// Pages lists all page numbers for the pagination bar.
func (p Page[T]) Pages() []int {
	pages := make([]int, p.TotalPages)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

// ParsePage turns a ?page= value into a page number. Anything invalid is
// page 1; numbers past the end are clamped by Paginate.
func ParsePage(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Paginate loads page number of the rows matched by scopes. Associations in
// preload are loaded for the page only, never for the count.
func Paginate[T any](ctx context.Context, db *DB, number, size int, preload []string, scopes ...Scope) (Page[T], error) {
	var total int64
	if err := db.WithContext(ctx).Model(new(T)).Scopes(scopes...).Count(&total).Error; err != nil {
		return Page[T]{}, wrap(err, "count records")
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	if totalPages < 1 {
		totalPages = 1
	}
	if number < 1 {
		number = 1
	}
	if number > totalPages {
		number = totalPages
	}

	query := db.WithContext(ctx).Scopes(scopes...)
	for _, assoc := range preload {
		query = query.Preload(assoc)
	}

	var items []T
	err := query.Offset((number - 1) * size).Limit(size).Find(&items).Error
	if err != nil {
		return Page[T]{}, wrap(err, "list records")
	}

	return Page[T]{
		Items:      items,
		Number:     number,
		Size:       size,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func List[T any](ctx context.Context, db *DB, scopes ...Scope) ([]T, error) {
	var items []T
	if err := db.WithContext(ctx).Scopes(scopes...).Find(&items).Error; err != nil {
		return nil, wrap(err, "list records")
	}
	return items, nil
}

func Count[T any](ctx context.Context, db *DB, scopes ...Scope) (int64, error) {
	var n int64
	if err := db.WithContext(ctx).Model(new(T)).Scopes(scopes...).Count(&n).Error; err != nil {
		return 0, wrap(err, "count records")
	}
	return n, nil
}

func Get[T any](ctx context.Context, db *DB, id uint, scopes ...Scope) (*T, error) {
	item := new(T)
	if err := db.WithContext(ctx).Scopes(scopes...).First(item, id).Error; err != nil {
		return nil, wrap(err, "get record")
	}
	return item, nil
}

// Create inserts item without touching its associations.
func Create[T any](ctx context.Context, db *DB, item *T) error {
	return wrap(db.WithContext(ctx).Omit(clause.Associations).Create(item).Error, "create record")
}

// Save writes every column of item without touching its associations.
func Save[T any](ctx context.Context, db *DB, item *T) error {
	return wrap(db.WithContext(ctx).Omit(clause.Associations).Save(item).Error, "save record")
}

func Delete[T any](ctx context.Context, db *DB, id uint) error {
	res := db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return wrap(res.Error, "delete record")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateColumn sets one column on every row in ids and returns the number
// of rows changed.
func UpdateColumn[T any](ctx context.Context, db *DB, ids []uint, column string, value any) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).Model(new(T)).Where("id IN ?", ids).Update(column, value)
	if res.Error != nil {
		return 0, wrap(res.Error, fmt.Sprintf("update %s", column))
	}
	return res.RowsAffected, nil
}

// Search matches q case-insensitively against any of columns.
func Search(q string, columns ...string) Scope {
	term := strings.ToLower(strings.TrimSpace(q))
	return func(tx *gorm.DB) *gorm.DB {
		if term == "" || len(columns) == 0 {
			return tx
		}
		conds := make([]string, len(columns))
		args := make([]any, len(columns))
		for i, col := range columns {
			conds[i] = "LOWER(" + col + ") LIKE ?"
			args[i] = "%" + term + "%"
		}
		return tx.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}

func OrderBy(order string) Scope {
	return func(tx *gorm.DB) *gorm.DB { return tx.Order(order) }
}

func Where(query string, args ...any) Scope {
	return func(tx *gorm.DB) *gorm.DB { return tx.Where(query, args...) }
}

func Limit(n int) Scope {
	return func(tx *gorm.DB) *gorm.DB { return tx.Limit(n) }
}

func Preload(assoc string) Scope {
	return func(tx *gorm.DB) *gorm.DB { return tx.Preload(assoc) }
}
