package catalog

import (
	"go.uber.org/fx"

	"github.com/agentbill/agentbill/internal/catalog/repository"
	"github.com/agentbill/agentbill/internal/catalog/service"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
