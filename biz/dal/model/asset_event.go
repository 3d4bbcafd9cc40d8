package model

import "time"

// AssetEvent is an immutable audit entry for one lifecycle transition.
// Rows are removed only by the cascade of a hard delete of their asset.
type AssetEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_asset_event_created" json:"created_at"`
	AssetID   uint      `gorm:"column:asset_id;not null;index:idx_asset_event_asset" json:"asset_id"`
	Detail    string    `gorm:"column:detail;type:varchar(1024);not null" json:"detail"`
	Actor     string    `gorm:"column:actor;type:varchar(255)" json:"actor,omitempty"`
	Asset     *Asset    `gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE" json:"asset,omitempty"`
}

// TableName overrides gorm to use asset_event table.
func (AssetEvent) TableName() string {
	return "asset_event"
}

// Audit event details.
const (
	DetailReactivated = "reactivated"
)

// DetailAssigned describes an assignment to user.
func DetailAssigned(user string) string {
	return "assigned to " + user
}

// DetailStatusChanged describes a status change, with the optional note appended.
func DetailStatusChanged(status, note string) string {
	if note == "" {
		return "status changed to " + status
	}
	return "status changed to " + status + ": " + note
}
