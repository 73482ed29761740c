package database

import (
	"fmt"
	"strings"

	"annlin/config"
	"annlin/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database and migrates the schema.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		if cfg.DatabaseDSN == "" {
			return nil, fmt.Errorf("database_dsn is required for the %s driver", cfg.DatabaseDriver)
		}
		dialector = postgres.Open(cfg.DatabaseDSN)
	case config.DriverSQLite, "":
		dialector = sqlite.Open(sqliteDSN(cfg.DatabasePath))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens a sqlite database at path (":memory:" style DSNs included)
// and migrates it.
func OpenSQLite(path string) (*gorm.DB, error) {
	return Open(&config.Config{DatabaseDriver: config.DriverSQLite, DatabasePath: path})
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Category{}, &models.Event{}, &models.AuditLog{})
}

func IsSetupComplete(db *gorm.DB) bool {
	var count int64
	db.Model(&models.User{}).Count(&count)
	return count > 0
}
