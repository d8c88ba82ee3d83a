package report

import (
	"go.uber.org/fx"

	"github.com/motorlane/motorlane/internal/report/repository"
	"github.com/motorlane/motorlane/internal/report/service"
)

var Module = fx.Module("report.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
