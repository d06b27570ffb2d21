package migration

import (
	"github.com/smallbiznis/ispdesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Run),
)

// Run migrates postgres databases. Other dialects are expected to be
// provisioned out of band.
func Run(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
	if cfg.DBType != "postgres" {
		log.Warn("skipping schema migrations", zap.String("db_type", cfg.DBType))
		return nil
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	status, err := RunMigrations(sqlDB)
	if err != nil {
		return err
	}
	log.Info("schema migrations checked",
		zap.Uint("version", status.Version),
		zap.Bool("applied", status.Applied),
	)
	return nil
}
