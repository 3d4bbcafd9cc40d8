package db

import (
	"context"
	"errors"

	"github.com/yi-nology/asset_tracker/biz/dal/model"

	"gorm.io/gorm"
)

// AssetDAO handles persistence for asset records.
type AssetDAO struct{}

func NewAssetDAO() *AssetDAO { return &AssetDAO{} }

// Create inserts a new asset. The unique index on active_serial rejects a
// second active holder of the same serial.
func (dao *AssetDAO) Create(ctx context.Context, db *gorm.DB, asset *model.Asset) error {
	if asset == nil {
		return errors.New("asset must not be nil")
	}
	if asset.Serial == "" {
		return errors.New("serial is required")
	}
	return db.WithContext(ctx).Create(asset).Error
}

// GetByID fetches an asset regardless of its active flag.
func (dao *AssetDAO) GetByID(ctx context.Context, db *gorm.DB, id uint) (*model.Asset, error) {
	var asset model.Asset
	if err := db.WithContext(ctx).Where("id = ?", id).First(&asset).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

// FindBySerial returns the asset holding serial. With activeOnly it considers
// active rows only; otherwise it prefers the active holder and then the most
// recently created retired one. Returns gorm.ErrRecordNotFound when none match.
func (dao *AssetDAO) FindBySerial(ctx context.Context, db *gorm.DB, serial string, activeOnly bool) (*model.Asset, error) {
	var asset model.Asset
	tx := db.WithContext(ctx)
	if activeOnly {
		tx = tx.Where("active_serial = ?", serial)
	} else {
		tx = tx.Where("serial = ?", serial).Order("is_active DESC, id DESC")
	}
	if err := tx.First(&asset).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

// FindRetiredBySerial returns the most recent retired asset holding serial.
func (dao *AssetDAO) FindRetiredBySerial(ctx context.Context, db *gorm.DB, serial string) (*model.Asset, error) {
	var asset model.Asset
	if err := db.WithContext(ctx).
		Where("serial = ? AND is_active = ?", serial, false).
		Order("id DESC").
		First(&asset).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

// UpdateAttributes overwrites the descriptive fields of an active asset.
func (dao *AssetDAO) UpdateAttributes(ctx context.Context, db *gorm.DB, id uint, attrs model.Attributes) error {
	updates := attributeColumns(attrs)
	updates["active_serial"] = attrs.Serial
	return dao.updateActive(ctx, db, id, updates)
}

// Reactivate revives a retired asset in place: attributes overwritten, status
// Available, unassigned, active again.
func (dao *AssetDAO) Reactivate(ctx context.Context, db *gorm.DB, id uint, attrs model.Attributes) error {
	updates := attributeColumns(attrs)
	updates["active_serial"] = attrs.Serial
	updates["status"] = model.StatusAvailable
	updates["assigned_user"] = model.UnassignedUser
	updates["is_active"] = true

	result := db.WithContext(ctx).
		Model(&model.Asset{}).
		Where("id = ? AND is_active = ?", id, false).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateLifecycle sets status and assigned user of an active asset.
func (dao *AssetDAO) UpdateLifecycle(ctx context.Context, db *gorm.DB, id uint, status, assignedUser string) error {
	return dao.updateActive(ctx, db, id, map[string]interface{}{
		"status":        status,
		"assigned_user": assignedUser,
	})
}

// Deactivate retires the given assets and releases their serials. Already
// retired ids are left untouched. Returns the number of rows changed.
func (dao *AssetDAO) Deactivate(ctx context.Context, db *gorm.DB, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := db.WithContext(ctx).
		Model(&model.Asset{}).
		Where("id IN ? AND is_active = ?", ids, true).
		Updates(map[string]interface{}{
			"is_active":     false,
			"active_serial": nil,
		})
	return result.RowsAffected, result.Error
}

// ExistingIDs returns which of ids are present, active or not.
func (dao *AssetDAO) ExistingIDs(ctx context.Context, db *gorm.DB, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uint
	if err := db.WithContext(ctx).
		Model(&model.Asset{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

// ListActive returns active assets, newest id first.
func (dao *AssetDAO) ListActive(ctx context.Context, db *gorm.DB) ([]model.Asset, error) {
	var assets []model.Asset
	if err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id DESC").
		Find(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

// Delete removes the asset row permanently. Its audit events go with it.
func (dao *AssetDAO) Delete(ctx context.Context, db *gorm.DB, id uint) error {
	result := db.WithContext(ctx).Where("id = ?", id).Delete(&model.Asset{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (dao *AssetDAO) updateActive(ctx context.Context, db *gorm.DB, id uint, updates map[string]interface{}) error {
	result := db.WithContext(ctx).
		Model(&model.Asset{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func attributeColumns(attrs model.Attributes) map[string]interface{} {
	return map[string]interface{}{
		"serial":        attrs.Serial,
		"category":      attrs.Category,
		"model":         attrs.Model,
		"asset_tag":     attrs.AssetTag,
		"site":          attrs.Site,
		"cost":          attrs.Cost,
		"purchase_date": attrs.PurchaseDate,
		"warranty_end":  attrs.WarrantyEnd,
	}
}
