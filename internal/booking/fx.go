package booking

import (
	"go.uber.org/fx"

	"github.com/motorlane/motorlane/internal/booking/repository"
	"github.com/motorlane/motorlane/internal/booking/service"
)

var Module = fx.Module("booking.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
