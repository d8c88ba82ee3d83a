package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, actor *Actor) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Actor, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
}
