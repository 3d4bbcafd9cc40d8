package db

import (
	"context"
	"errors"

	"github.com/yi-nology/asset_tracker/biz/dal/model"
	"github.com/yi-nology/asset_tracker/pkg/constants"

	"gorm.io/gorm"
)

// AssetEventDAO appends and reads audit events. Events are never updated.
type AssetEventDAO struct{}

func NewAssetEventDAO() *AssetEventDAO { return &AssetEventDAO{} }

// Append records one audit event.
func (dao *AssetEventDAO) Append(ctx context.Context, db *gorm.DB, event *model.AssetEvent) error {
	if event == nil {
		return errors.New("event must not be nil")
	}
	if event.AssetID == 0 {
		return errors.New("asset_id is required")
	}
	if event.Detail == "" {
		return errors.New("detail is required")
	}
	return db.WithContext(ctx).Omit("Asset").Create(event).Error
}

// ListByAsset returns an asset's events, newest first.
func (dao *AssetEventDAO) ListByAsset(ctx context.Context, db *gorm.DB, assetID uint) ([]model.AssetEvent, error) {
	var events []model.AssetEvent
	if err := db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Order("created_at DESC, id DESC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// ListRecent returns the newest events across all assets together with their
// asset. Events whose asset row is gone never surface.
func (dao *AssetEventDAO) ListRecent(ctx context.Context, db *gorm.DB, limit int) ([]model.AssetEvent, error) {
	if limit <= 0 {
		limit = constants.DefaultActivityLimit
	}
	var events []model.AssetEvent
	if err := db.WithContext(ctx).
		InnerJoins("Asset").
		Order("asset_event.created_at DESC, asset_event.id DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// DeleteByAsset removes an asset's events as part of a hard delete.
func (dao *AssetEventDAO) DeleteByAsset(ctx context.Context, db *gorm.DB, assetID uint) error {
	return db.WithContext(ctx).Where("asset_id = ?", assetID).Delete(&model.AssetEvent{}).Error
}
