package constants

// Export snapshot naming.
const (
	ExportFileBase  = "inventory_it"
	ExportSheetName = "Inventory"
)

// Object storage prefixes for archived files.
const (
	ImportArchivePrefix = "imports/"
	ExportArchivePrefix = "exports/"
)

// ImportLockKey is the Redis key guarding spreadsheet imports.
const ImportLockKey = "asset_tracker:import_lock"

// Recent activity feed bounds.
const (
	DefaultActivityLimit = 10
	MaxActivityLimit     = 100
)

// ExportHeader lists the exported columns in order.
var ExportHeader = []string{
	"id", "category", "model", "serial", "asset_tag", "site", "cost",
	"purchase_date", "warranty_end", "status", "assigned_user", "created_at", "updated_at",
}
