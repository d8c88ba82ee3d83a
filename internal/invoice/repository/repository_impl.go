package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/motorlane/motorlane/internal/invoice/domain"
	"github.com/motorlane/motorlane/pkg/db/option"
	"github.com/motorlane/motorlane/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, invoice *domain.Invoice) error {
	return tx.WithContext(ctx).Create(invoice).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	return r.find(db.WithContext(ctx), id)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	return r.find(tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *repo) find(stmt *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := stmt.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		Where("id = ?", id).
		Take(&invoice).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) Update(ctx context.Context, tx *gorm.DB, id snowflake.ID, fields map[string]any) error {
	return tx.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListInvoiceFilter, page pagination.Pagination) ([]*domain.Invoice, error) {
	var invoices []*domain.Invoice
	stmt := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		})
	if filter.OwnerID != 0 {
		stmt = stmt.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.WorkshopID != 0 {
		stmt = stmt.Where("workshop_id = ?", filter.WorkshopID)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}
