package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/agentbill/agentbill/internal/agent"
	"github.com/agentbill/agentbill/internal/catalog"
	"github.com/agentbill/agentbill/internal/clock"
	"github.com/agentbill/agentbill/internal/config"
	"github.com/agentbill/agentbill/internal/credits"
	"github.com/agentbill/agentbill/internal/customer"
	"github.com/agentbill/agentbill/internal/fees"
	"github.com/agentbill/agentbill/internal/link"
	"github.com/agentbill/agentbill/internal/logger"
	"github.com/agentbill/agentbill/internal/metering"
	"github.com/agentbill/agentbill/internal/migration"
	"github.com/agentbill/agentbill/internal/observability"
	"github.com/agentbill/agentbill/internal/profitability"
	"github.com/agentbill/agentbill/internal/ratelimit"
	"github.com/agentbill/agentbill/internal/scheduler"
	"github.com/agentbill/agentbill/internal/server"
	"github.com/agentbill/agentbill/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		customer.Module,
		agent.Module,
		catalog.Module,
		credits.Module,
		fees.Module,
		link.Module,
		metering.Module,
		profitability.Module,
		ratelimit.Module,

		scheduler.Module,
		server.Module,
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
