package job

import (
	"go.uber.org/fx"

	"github.com/motorlane/motorlane/internal/job/repository"
	"github.com/motorlane/motorlane/internal/job/service"
)

var Module = fx.Module("job.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
