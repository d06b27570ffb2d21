package main

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ispdesk/internal/cache"
	"github.com/smallbiznis/ispdesk/internal/clock"
	"github.com/smallbiznis/ispdesk/internal/config"
	"github.com/smallbiznis/ispdesk/internal/customer"
	"github.com/smallbiznis/ispdesk/internal/invoice"
	"github.com/smallbiznis/ispdesk/internal/observability"
	"github.com/smallbiznis/ispdesk/internal/scheduler"
	"github.com/smallbiznis/ispdesk/internal/servicepackage"
	"github.com/smallbiznis/ispdesk/pkg/db"
	"go.uber.org/fx"
)

// The scheduler binary refreshes invoice statuses without serving HTTP.
// Run it next to ispdesk started with SCHEDULER_ENABLED=false, or as several
// replicas sharing one Redis lock.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		cache.Module,

		// Domain services required by scheduler
		servicepackage.Module,
		customer.Module,
		invoice.Module,

		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", cfg.NodeID, err)
	}
	return node, nil
}
