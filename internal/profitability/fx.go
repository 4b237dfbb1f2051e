package profitability

import (
	"go.uber.org/fx"

	"github.com/agentbill/agentbill/internal/profitability/repository"
	"github.com/agentbill/agentbill/internal/profitability/service"
)

var Module = fx.Module("profitability.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
