package service

import (
	"github.com/yi-nology/asset_tracker/biz/dal/model"
	"github.com/yi-nology/asset_tracker/biz/model/api"
	"github.com/yi-nology/asset_tracker/pkg/config"
	apperrors "github.com/yi-nology/asset_tracker/pkg/errors"
	"github.com/yi-nology/asset_tracker/pkg/lock"
	"github.com/yi-nology/asset_tracker/pkg/metrics"
	"github.com/yi-nology/asset_tracker/pkg/storage"
	"github.com/yi-nology/asset_tracker/pkg/validator"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options carries the optional collaborators of Service. Zero values are
// valid: no archive, no cross-process import lock, unregistered metrics.
type Options struct {
	Storage storage.Storage
	Locker  lock.Locker
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	Import  config.ImportConfig
}

// Service exposes the asset operations to the HTTP layer. It validates
// commands, converts between API and storage models and records metrics;
// all state changes go through Logic.
type Service struct {
	logic   *Logic
	storage storage.Storage
	locker  lock.Locker
	metrics *metrics.Metrics
	log     *zap.Logger
	upload  *validator.UploadConfig

	reactivateRetired bool
}

func NewService(db *gorm.DB, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.Nop()
	}
	upload := validator.DefaultUploadConfig()
	if opts.Import.MaxUploadSize > 0 {
		upload.MaxFileSize = opts.Import.MaxUploadSize
	}
	return &Service{
		logic:             NewLogic(db),
		storage:           opts.Storage,
		locker:            opts.Locker,
		metrics:           m,
		log:               log,
		upload:            upload,
		reactivateRetired: opts.Import.ReactivateRetired,
	}
}

// Logic returns the underlying lifecycle engine.
func (s *Service) Logic() *Logic {
	return s.logic
}

// observe counts an operation outcome and logs system failures.
func (s *Service) observe(operation string, err error) {
	if err == nil {
		s.metrics.ObserveOperation(operation, "ok")
		return
	}
	s.metrics.ObserveOperation(operation, apperrors.CodeOf(err))
	if !apperrors.IsRejection(err) {
		s.log.Error("asset operation failed", zap.String("operation", operation), zap.Error(err))
	}
}

// --------------------- Model conversion helpers ---------------------

func attributesFromAPI(in api.AssetAttributes) model.Attributes {
	return model.Attributes{
		Serial:       in.Serial,
		Category:     in.Category,
		Model:        in.Model,
		AssetTag:     in.AssetTag,
		Site:         in.Site,
		Cost:         in.Cost,
		PurchaseDate: in.PurchaseDate.TimePtr(),
		WarrantyEnd:  in.WarrantyEnd.TimePtr(),
	}
}

func modelAssetToAPI(a *model.Asset) *api.Asset {
	if a == nil {
		return nil
	}
	return &api.Asset{
		ID:           a.ID,
		Serial:       a.Serial,
		Category:     a.Category,
		Model:        a.Model,
		AssetTag:     a.AssetTag,
		Site:         a.Site,
		Cost:         a.Cost,
		PurchaseDate: api.NewDate(a.PurchaseDate),
		WarrantyEnd:  api.NewDate(a.WarrantyEnd),
		Status:       a.Status,
		AssignedUser: a.AssignedUser,
		IsActive:     a.IsActive,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func modelEventToAPI(e *model.AssetEvent) api.Event {
	return api.Event{
		ID:        e.ID,
		AssetID:   e.AssetID,
		Detail:    e.Detail,
		Actor:     e.Actor,
		CreatedAt: e.CreatedAt,
	}
}

func modelActivityToAPI(e *model.AssetEvent) api.ActivityItem {
	item := api.ActivityItem{Event: modelEventToAPI(e)}
	if e.Asset != nil {
		item.Serial = e.Asset.Serial
		item.Category = e.Asset.Category
		item.Model = e.Asset.Model
	}
	return item
}
