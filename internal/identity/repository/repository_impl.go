package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/motorlane/motorlane/internal/identity/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, actor *domain.Actor) error {
	return db.WithContext(ctx).Create(actor).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Actor, error) {
	var actor domain.Actor
	err := db.WithContext(ctx).Raw(
		`SELECT id, role, workshop_id, name, email, created_at
		 FROM actors WHERE id = ?`,
		id,
	).Scan(&actor).Error
	if err != nil {
		return nil, err
	}
	if actor.ID == 0 {
		return nil, nil
	}
	return &actor, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Actor{}).Count(&n).Error
	return n, err
}
