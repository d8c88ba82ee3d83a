package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/motorlane/motorlane/internal/identity/domain"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("identity.service"),
		repo: p.Repo,
	}
}

func (s *Service) GetActor(ctx context.Context, id snowflake.ID) (domain.Actor, error) {
	if id == 0 {
		return domain.Actor{}, domain.ErrInvalidID
	}

	actor, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Actor{}, err
	}
	if actor == nil {
		return domain.Actor{}, domain.ErrNotFound
	}

	return *actor, nil
}

func (s *Service) MechanicBelongsTo(ctx context.Context, mechanicID, workshopID snowflake.ID) (bool, error) {
	if mechanicID == 0 || workshopID == 0 {
		return false, domain.ErrInvalidID
	}

	actor, err := s.repo.FindByID(ctx, s.db, mechanicID)
	if err != nil {
		return false, err
	}
	if actor == nil {
		return false, nil
	}
	if actor.Role != domain.RoleMechanic {
		return false, nil
	}

	return actor.WorkshopID != nil && *actor.WorkshopID == workshopID, nil
}
