// Package api provides API request/response models for the asset service.
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetAttributes carries the descriptive fields of create and update commands.
type AssetAttributes struct {
	Serial       string          `json:"serial" validate:"required,serial"`
	Category     string          `json:"category" validate:"required,max=128"`
	Model        string          `json:"model" validate:"required,max=255"`
	AssetTag     string          `json:"asset_tag" validate:"max=128"`
	Site         string          `json:"site" validate:"max=255"`
	Cost         decimal.Decimal `json:"cost"`
	PurchaseDate *Date           `json:"purchase_date"`
	WarrantyEnd  *Date           `json:"warranty_end"`
}

// CreateAssetRequest registers an asset, or reactivates a retired one holding the serial.
type CreateAssetRequest struct {
	AssetAttributes
}

// UpdateAssetRequest overwrites the descriptive fields of an active asset.
type UpdateAssetRequest struct {
	AssetAttributes
}

// AssignRequest assigns an asset to a user.
type AssignRequest struct {
	User string `json:"user" validate:"required,max=255"`
}

// ChangeStatusRequest moves an asset to Available or InRepair.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Available Assigned InRepair"`
	Note   string `json:"note" validate:"max=1000"`
}

// BulkDeleteRequest retires several assets at once.
type BulkDeleteRequest struct {
	IDs []uint `json:"ids" validate:"required,min=1,max=1000,dive,gt=0"`
}

// Asset is the API view of an asset record.
type Asset struct {
	ID           uint            `json:"id"`
	Serial       string          `json:"serial"`
	Category     string          `json:"category"`
	Model        string          `json:"model"`
	AssetTag     string          `json:"asset_tag"`
	Site         string          `json:"site"`
	Cost         decimal.Decimal `json:"cost"`
	PurchaseDate *Date           `json:"purchase_date,omitempty"`
	WarrantyEnd  *Date           `json:"warranty_end,omitempty"`
	Status       string          `json:"status"`
	AssignedUser string          `json:"assigned_user"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CreateAssetResponse reports the created or reactivated asset.
type CreateAssetResponse struct {
	Asset       *Asset `json:"asset"`
	Reactivated bool   `json:"reactivated"`
}

// BulkDeleteResponse reports how many assets changed state.
type BulkDeleteResponse struct {
	Requested   int   `json:"requested"`
	Deactivated int64 `json:"deactivated"`
}

// Event is one audit log entry.
type Event struct {
	ID        uint      `json:"id"`
	AssetID   uint      `json:"asset_id"`
	Detail    string    `json:"detail"`
	Actor     string    `json:"actor,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityItem is an audit entry joined with its asset.
type ActivityItem struct {
	Event
	Serial   string `json:"serial"`
	Category string `json:"category"`
	Model    string `json:"model"`
}
