package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/motorlane/motorlane/pkg/db/pagination"
)

type ListInvoiceFilter struct {
	OwnerID    snowflake.ID
	WorkshopID snowflake.ID
}

type Repository interface {
	// Insert writes the invoice and its items in the caller's transaction.
	Insert(ctx context.Context, tx *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Invoice, error)
	Update(ctx context.Context, tx *gorm.DB, id snowflake.ID, fields map[string]any) error
	List(ctx context.Context, db *gorm.DB, filter ListInvoiceFilter, page pagination.Pagination) ([]*Invoice, error)
}
