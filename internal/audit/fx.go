package audit

import (
	"go.uber.org/fx"

	"github.com/motorlane/motorlane/internal/audit/repository"
	"github.com/motorlane/motorlane/internal/audit/service"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
