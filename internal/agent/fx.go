package agent

import (
	"go.uber.org/fx"

	"github.com/agentbill/agentbill/internal/agent/repository"
	"github.com/agentbill/agentbill/internal/agent/service"
)

var Module = fx.Module("agent.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
