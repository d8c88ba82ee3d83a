package invoice

import (
	"go.uber.org/fx"

	"github.com/motorlane/motorlane/internal/invoice/repository"
	"github.com/motorlane/motorlane/internal/invoice/service"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
