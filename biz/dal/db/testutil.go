package db

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/yi-nology/asset_tracker/biz/dal/model"
	"github.com/yi-nology/asset_tracker/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The pool is pinned to one connection: every new connection to :memory:
// would otherwise see its own empty database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get underlying DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate tables: %v", err)
	}
	return db
}

// CleanupTestDB closes the database connection
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Logf("Warning: Failed to get underlying DB: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		t.Logf("Warning: Failed to close DB: %v", err)
	}
}

// TestAttributes returns a complete attribute set for serial.
func TestAttributes(serial string) model.Attributes {
	return model.Attributes{
		Serial:   serial,
		Category: "Laptop",
		Model:    "ThinkPad T14",
		AssetTag: "TAG-" + serial,
		Site:     "Madrid",
		Cost:     decimal.RequireFromString("1299.90"),
	}
}

// CreateTestAsset inserts an active, available asset.
func CreateTestAsset(t *testing.T, db *gorm.DB, serial string) *model.Asset {
	t.Helper()
	asset := model.NewAvailableAsset(TestAttributes(serial))
	if err := NewAssetDAO().Create(context.Background(), db, asset); err != nil {
		t.Fatalf("Failed to create test asset: %v", err)
	}
	return asset
}
