// Package option provides composable gorm query modifiers.
package option

import (
	"time"

	"github.com/spediralabs/spedira/pkg/db/pagination"
	"gorm.io/gorm"
)

type Option interface {
	Apply(*gorm.DB) *gorm.DB
}

type optionFunc func(*gorm.DB) *gorm.DB

func (f optionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// ApplyPagination applies a cursor page to a query. Fetches pageSize+1
// rows so callers can detect whether another page exists.
func ApplyPagination(page pagination.Pagination) Option {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		if page.PageToken != "" {
			cursor, err := pagination.DecodeCursor(page.PageToken)
			if err == nil {
				if at, perr := time.Parse(time.RFC3339, cursor.CreatedAt); perr == nil {
					db = db.Where(
						"(created_at < ?) OR (created_at = ? AND id < ?)",
						at, at, cursor.ID,
					)
				}
			}
		}
		if page.PageSize > 0 {
			db = db.Limit(page.PageSize + 1)
		}
		return db
	})
}
