package servicepackage

import (
	"github.com/smallbiznis/ispdesk/internal/servicepackage/repository"
	"github.com/smallbiznis/ispdesk/internal/servicepackage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("servicepackage.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
