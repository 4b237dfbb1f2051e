package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/agentbill/agentbill/internal/clock"
	"github.com/agentbill/agentbill/internal/config"
	"github.com/agentbill/agentbill/internal/fees"
	"github.com/agentbill/agentbill/internal/logger"
	"github.com/agentbill/agentbill/internal/migration"
	"github.com/agentbill/agentbill/internal/scheduler"
	"github.com/agentbill/agentbill/pkg/db"
)

// Standalone fee renewal sweeper. Runs the same sweep as the monolith's
// embedded scheduler, for deployments that want billing isolated from the
// API surface.
func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		fees.Module,

		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
