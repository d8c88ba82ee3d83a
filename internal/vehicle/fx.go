package vehicle

import (
	"go.uber.org/fx"

	"github.com/motorlane/motorlane/internal/vehicle/repository"
	"github.com/motorlane/motorlane/internal/vehicle/service"
)

var Module = fx.Module("vehicle.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
