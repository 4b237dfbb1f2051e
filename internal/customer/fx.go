package customer

import (
	"github.com/agentbill/agentbill/internal/customer/repository"
	"github.com/agentbill/agentbill/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
