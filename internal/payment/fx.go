package payment

import (
	"github.com/smallbiznis/ispdesk/internal/payment/repository"
	"github.com/smallbiznis/ispdesk/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
