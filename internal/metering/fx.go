package metering

import (
	"go.uber.org/fx"

	"github.com/agentbill/agentbill/internal/metering/repository"
	"github.com/agentbill/agentbill/internal/metering/service"
)

var Module = fx.Module("metering.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
