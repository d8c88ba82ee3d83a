package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/motorlane/motorlane/internal/vehicle/domain"
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
		log:  p.Log.Named("vehicle.service"),
		repo: p.Repo,
	}
}

func (s *Service) GetVehicle(ctx context.Context, id snowflake.ID) (domain.Vehicle, error) {
	if id == 0 {
		return domain.Vehicle{}, domain.ErrInvalidID
	}

	vehicle, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Vehicle{}, err
	}
	if vehicle == nil {
		return domain.Vehicle{}, domain.ErrNotFound
	}

	return *vehicle, nil
}
