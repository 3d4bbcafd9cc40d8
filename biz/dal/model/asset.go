package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset lifecycle statuses. Retirement is tracked by IsActive, not by status.
const (
	StatusAvailable = "Available"
	StatusAssigned  = "Assigned"
	StatusInRepair  = "InRepair"
)

// UnassignedUser is stored in assigned_user whenever status is not Assigned.
const UnassignedUser = "N/A"

// Asset is a tracked physical IT item.
//
// ActiveSerial mirrors Serial while the row is active and is NULL once retired,
// so the unique index on it allows one active holder per serial and any number
// of retired ones.
type Asset struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Serial       string          `gorm:"column:serial;type:varchar(128);not null;index:idx_asset_serial" json:"serial"`
	ActiveSerial *string         `gorm:"column:active_serial;type:varchar(128);uniqueIndex:uk_asset_active_serial" json:"-"`
	Category     string          `gorm:"column:category;type:varchar(128)" json:"category"`
	Model        string          `gorm:"column:model;type:varchar(255)" json:"model"`
	AssetTag     string          `gorm:"column:asset_tag;type:varchar(128)" json:"asset_tag"`
	Site         string          `gorm:"column:site;type:varchar(255)" json:"site"`
	Cost         decimal.Decimal `gorm:"column:cost;type:decimal(12,2);not null;default:0" json:"cost"`
	PurchaseDate *time.Time      `gorm:"column:purchase_date;type:date" json:"purchase_date,omitempty"`
	WarrantyEnd  *time.Time      `gorm:"column:warranty_end;type:date" json:"warranty_end,omitempty"`
	Status       string          `gorm:"column:status;type:varchar(32);not null" json:"status"`
	AssignedUser string          `gorm:"column:assigned_user;type:varchar(255);not null" json:"assigned_user"`
	IsActive     bool            `gorm:"column:is_active;not null;index:idx_asset_active" json:"is_active"`
}

// TableName overrides gorm to use asset table.
func (Asset) TableName() string {
	return "asset"
}

// Attributes holds the descriptive fields of an asset. The lifecycle engine
// treats them as opaque values.
type Attributes struct {
	Serial       string
	Category     string
	Model        string
	AssetTag     string
	Site         string
	Cost         decimal.Decimal
	PurchaseDate *time.Time
	WarrantyEnd  *time.Time
}

// Attributes returns the descriptive fields of the asset.
func (a *Asset) Attributes() Attributes {
	return Attributes{
		Serial:       a.Serial,
		Category:     a.Category,
		Model:        a.Model,
		AssetTag:     a.AssetTag,
		Site:         a.Site,
		Cost:         a.Cost,
		PurchaseDate: a.PurchaseDate,
		WarrantyEnd:  a.WarrantyEnd,
	}
}

// NewAvailableAsset builds an active, unassigned asset from attrs.
func NewAvailableAsset(attrs Attributes) *Asset {
	serial := attrs.Serial
	return &Asset{
		Serial:       attrs.Serial,
		ActiveSerial: &serial,
		Category:     attrs.Category,
		Model:        attrs.Model,
		AssetTag:     attrs.AssetTag,
		Site:         attrs.Site,
		Cost:         attrs.Cost,
		PurchaseDate: attrs.PurchaseDate,
		WarrantyEnd:  attrs.WarrantyEnd,
		Status:       StatusAvailable,
		AssignedUser: UnassignedUser,
		IsActive:     true,
	}
}

// IsValidStatus reports whether status is one of the known lifecycle statuses.
func IsValidStatus(status string) bool {
	switch status {
	case StatusAvailable, StatusAssigned, StatusInRepair:
		return true
	}
	return false
}
