package option

import (
	"gorm.io/gorm"

	"github.com/motorlane/motorlane/pkg/db/pagination"
)

// Option mutates a gorm statement before execution.
type Option interface {
	Apply(*gorm.DB) *gorm.DB
}

type paginationOption struct {
	page pagination.Pagination
}

// ApplyPagination translates a cursor page request into a keyset
// predicate plus limit+1 so callers can detect a next page.
func ApplyPagination(page pagination.Pagination) Option {
	return paginationOption{page: page}
}

func (o paginationOption) Apply(stmt *gorm.DB) *gorm.DB {
	limit := o.page.PageSize
	if limit <= 0 {
		limit = 10
	}

	if o.page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(o.page.PageToken)
		if err == nil && cursor != nil && cursor.CreatedAt != "" && cursor.ID != "" {
			stmt = stmt.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
		}
	}

	return stmt.Limit(limit + 1)
}
