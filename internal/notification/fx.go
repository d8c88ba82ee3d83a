package notification

import (
	"go.uber.org/fx"

	"github.com/motorlane/motorlane/internal/notification/repository"
	"github.com/motorlane/motorlane/internal/notification/service"
)

var Module = fx.Module("notification.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
