package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/motorlane/motorlane/pkg/db/pagination"
)

type ListJobFilter struct {
	WorkshopID snowflake.ID
	MechanicID snowflake.ID
	Status     string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, job *Job) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Job, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Job, error)
	Update(ctx context.Context, tx *gorm.DB, id snowflake.ID, fields map[string]any) error
	List(ctx context.Context, db *gorm.DB, filter ListJobFilter, page pagination.Pagination) ([]*Job, error)

	InsertPart(ctx context.Context, tx *gorm.DB, part *JobPart) error
	DeletePart(ctx context.Context, tx *gorm.DB, jobID, partID snowflake.ID) (int64, error)
	InsertRepairEntry(ctx context.Context, tx *gorm.DB, entry *JobRepairEntry) error

	Touch(ctx context.Context, tx *gorm.DB, id snowflake.ID, at time.Time) error
}
