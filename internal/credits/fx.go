package credits

import (
	"go.uber.org/fx"

	"github.com/agentbill/agentbill/internal/credits/repository"
	"github.com/agentbill/agentbill/internal/credits/service"
)

var Module = fx.Module("credits.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
