package infrastructures

import (
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/smebase/inventory-core/db"
)

func NewDatabase(config *AppConfig) *gorm.DB {
	gormDB, err := gorm.Open(postgres.Open(config.DATABASE_URL), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}

	if err := migrate(gormDB); err != nil {
		logrus.Fatalf("failed to run migrations: %v", err)
	}

	return gormDB
}

func migrate(gormDB *gorm.DB) error {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}

	goose.SetBaseFS(db.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(sqlDB, "migrations")
}
