package fees

import (
	"go.uber.org/fx"

	"github.com/agentbill/agentbill/internal/fees/repository"
	"github.com/agentbill/agentbill/internal/fees/service"
)

var Module = fx.Module("fees.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
