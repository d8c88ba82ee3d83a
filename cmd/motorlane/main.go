package main

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/motorlane/motorlane/internal/clock"
	"github.com/motorlane/motorlane/internal/config"
	"github.com/motorlane/motorlane/internal/migration"
	"github.com/motorlane/motorlane/internal/observability"
	"github.com/motorlane/motorlane/internal/ratelimit"
	"github.com/motorlane/motorlane/internal/server"
	"github.com/motorlane/motorlane/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		ratelimit.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() (*snowflake.Node, error) {
	nodeNumber := int64(1)
	if raw := os.Getenv("SNOWFLAKE_NODE"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			nodeNumber = parsed
		}
	}
	return snowflake.NewNode(nodeNumber)
}
