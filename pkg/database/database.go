package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yi-nology/asset_tracker/biz/dal/model"
	"github.com/yi-nology/asset_tracker/pkg/config"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open initialises a gorm.DB according to the supplied configuration.
// The returned handle owns a bounded connection pool; close it through DB().Close().
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if err := ConfigurePool(db, cfg); err != nil {
		return nil, err
	}
	return db, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Driver) {
	case "sqlite", "sqlite3":
		path := firstNonEmpty(cfg.URL, cfg.SQLite.Path)
		if path == "" {
			return nil, fmt.Errorf("sqlite path must be configured")
		}
		if err := ensureDir(filepath.Dir(path)); err != nil {
			return nil, err
		}
		// Foreign keys are off by default in SQLite; the audit cascade needs them.
		return sqlite.Open(withSQLiteForeignKeys(path)), nil
	case "mysql":
		dsn := firstNonEmpty(cfg.URL, cfg.MySQL.DSN)
		if dsn == "" {
			return nil, fmt.Errorf("mysql dsn must be configured")
		}
		return mysql.Open(dsn), nil
	case "postgres", "postgresql":
		dsn := firstNonEmpty(cfg.URL, cfg.Postgres.DSN)
		if dsn == "" {
			return nil, fmt.Errorf("postgres dsn must be configured")
		}
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// ConfigurePool applies the configured pool bounds to the underlying sql.DB.
func ConfigurePool(db *gorm.DB, cfg config.DatabaseConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	open := cfg.MaxOpenConns
	if open < 1 {
		open = 1
	}
	idle := cfg.MaxIdleConns
	if idle > open {
		idle = open
	}
	sqlDB.SetMaxOpenConns(open)
	sqlDB.SetMaxIdleConns(idle)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return nil
}

// Migrate creates or updates the asset and asset_event tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Asset{}, &model.AssetEvent{})
}

func withSQLiteForeignKeys(path string) string {
	if strings.Contains(path, "_pragma=foreign_keys") || strings.Contains(path, "_foreign_keys") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func ensureDir(dir string) error {
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
