package service

import (
	"context"

	"github.com/yi-nology/asset_tracker/biz/model/api"
	"github.com/yi-nology/asset_tracker/pkg/common"
	"github.com/yi-nology/asset_tracker/pkg/validator"
	"go.uber.org/zap"
)

// CreateAsset registers an asset, or reactivates the retired asset holding
// the serial.
func (s *Service) CreateAsset(ctx context.Context, req *api.CreateAssetRequest) (*api.CreateAssetResponse, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	res, err := s.logic.Create(ctx, attributesFromAPI(req.AssetAttributes), common.GetActor(ctx))
	s.observe("create", err)
	if err != nil {
		return nil, err
	}
	if res.Reactivated {
		s.log.Info("asset reactivated", zap.Uint("asset_id", res.Asset.ID), zap.String("serial", res.Asset.Serial))
	}
	return &api.CreateAssetResponse{Asset: modelAssetToAPI(res.Asset), Reactivated: res.Reactivated}, nil
}

// UpdateAsset overwrites the descriptive fields of an active asset.
func (s *Service) UpdateAsset(ctx context.Context, id uint, req *api.UpdateAssetRequest) (*api.Asset, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	asset, err := s.logic.Update(ctx, id, attributesFromAPI(req.AssetAttributes))
	s.observe("update", err)
	if err != nil {
		return nil, err
	}
	return modelAssetToAPI(asset), nil
}

// AssignAsset assigns an active asset to a user.
func (s *Service) AssignAsset(ctx context.Context, id uint, req *api.AssignRequest) (*api.Asset, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	asset, err := s.logic.Assign(ctx, id, req.User, common.GetActor(ctx))
	s.observe("assign", err)
	if err != nil {
		return nil, err
	}
	return modelAssetToAPI(asset), nil
}

// ChangeAssetStatus moves an active asset to Available or InRepair.
func (s *Service) ChangeAssetStatus(ctx context.Context, id uint, req *api.ChangeStatusRequest) (*api.Asset, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	asset, err := s.logic.ChangeStatus(ctx, id, req.Status, req.Note, common.GetActor(ctx))
	s.observe("change_status", err)
	if err != nil {
		return nil, err
	}
	return modelAssetToAPI(asset), nil
}

// DeleteAsset retires an asset.
func (s *Service) DeleteAsset(ctx context.Context, id uint) error {
	changed, err := s.logic.SoftDelete(ctx, id)
	s.observe("soft_delete", err)
	if err == nil && changed {
		s.log.Info("asset retired", zap.Uint("asset_id", id), zap.String("actor", common.GetActor(ctx)))
	}
	return err
}

// BulkDeleteAssets retires several assets atomically.
func (s *Service) BulkDeleteAssets(ctx context.Context, req *api.BulkDeleteRequest) (*api.BulkDeleteResponse, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	n, err := s.logic.BulkSoftDelete(ctx, req.IDs)
	s.observe("bulk_soft_delete", err)
	if err != nil {
		return nil, err
	}
	s.log.Info("assets retired", zap.Int("requested", len(req.IDs)), zap.Int64("deactivated", n), zap.String("actor", common.GetActor(ctx)))
	return &api.BulkDeleteResponse{Requested: len(req.IDs), Deactivated: n}, nil
}

// PurgeAsset hard-deletes an asset and its history.
func (s *Service) PurgeAsset(ctx context.Context, id uint) error {
	err := s.logic.Purge(ctx, id)
	s.observe("purge", err)
	if err == nil {
		s.log.Warn("asset purged", zap.Uint("asset_id", id), zap.String("actor", common.GetActor(ctx)))
	}
	return err
}

// GetAsset returns one asset, active or retired.
func (s *Service) GetAsset(ctx context.Context, id uint) (*api.Asset, error) {
	asset, err := s.logic.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return modelAssetToAPI(asset), nil
}

// ListAssets returns active assets, newest first.
func (s *Service) ListAssets(ctx context.Context) ([]*api.Asset, error) {
	assets, err := s.logic.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.SetActiveAssets(len(assets))
	out := make([]*api.Asset, 0, len(assets))
	for i := range assets {
		out = append(out, modelAssetToAPI(&assets[i]))
	}
	return out, nil
}

// AssetHistory returns the audit events of an asset, newest first.
func (s *Service) AssetHistory(ctx context.Context, id uint) ([]api.Event, error) {
	events, err := s.logic.History(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]api.Event, 0, len(events))
	for i := range events {
		out = append(out, modelEventToAPI(&events[i]))
	}
	return out, nil
}

// RecentActivity returns the newest audit events across all assets.
func (s *Service) RecentActivity(ctx context.Context, limit int) ([]api.ActivityItem, error) {
	events, err := s.logic.RecentActivity(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]api.ActivityItem, 0, len(events))
	for i := range events {
		out = append(out, modelActivityToAPI(&events[i]))
	}
	return out, nil
}
