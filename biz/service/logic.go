package service

import (
	"context"
	"errors"

	"github.com/yi-nology/asset_tracker/biz/dal/db"
	apperrors "github.com/yi-nology/asset_tracker/pkg/errors"
	"github.com/yi-nology/asset_tracker/pkg/database"
	"gorm.io/gorm"
)

// Logic is the asset lifecycle engine. It owns every write to the asset and
// asset_event tables; each operation runs in one transaction.
type Logic struct {
	db       *gorm.DB
	assetDAO *db.AssetDAO
	eventDAO *db.AssetEventDAO
}

func NewLogic(dbConn *gorm.DB) *Logic {
	return &Logic{
		db:       dbConn,
		assetDAO: db.NewAssetDAO(),
		eventDAO: db.NewAssetEventDAO(),
	}
}

// transaction runs fn in a single database transaction. The connection goes
// back to the pool on every path; errors come back classified.
func (l *Logic) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return classify(l.db.WithContext(ctx).Transaction(fn))
}

// classify maps storage errors onto AppErrors. AppErrors raised inside a
// transaction pass through untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.IsAppError(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if database.IsUnavailable(err) {
		return apperrors.StorageUnavailable(err)
	}
	return apperrors.Internal(err, "storage operation failed")
}

// notFoundOr turns gorm.ErrRecordNotFound into an AssetNotFound for id.
func notFoundOr(err error, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.AssetNotFound(id)
	}
	return err
}
