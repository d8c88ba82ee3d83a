package identity

import (
	"go.uber.org/fx"

	"github.com/motorlane/motorlane/internal/identity/repository"
	"github.com/motorlane/motorlane/internal/identity/service"
)

var Module = fx.Module("identity.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
