package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/agentbill/agentbill/internal/config"
	"github.com/agentbill/agentbill/internal/seed"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if !cfg.MigrateOnStart {
			return nil
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(sqlDB); err != nil {
			return err
		}

		if cfg.SeedDemoData {
			return seed.EnsureDemoData(conn)
		}
		return nil
	}),
)
