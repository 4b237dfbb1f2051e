package link

import (
	"go.uber.org/fx"

	"github.com/agentbill/agentbill/internal/link/repository"
	"github.com/agentbill/agentbill/internal/link/service"
)

var Module = fx.Module("link.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
