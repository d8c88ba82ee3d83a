package rating

import (
	"go.uber.org/fx"

	"github.com/motorlane/motorlane/internal/rating/repository"
	"github.com/motorlane/motorlane/internal/rating/service"
)

var Module = fx.Module("rating.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
