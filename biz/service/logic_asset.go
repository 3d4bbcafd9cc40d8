package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/yi-nology/asset_tracker/biz/dal/model"
	"github.com/yi-nology/asset_tracker/pkg/constants"
	"github.com/yi-nology/asset_tracker/pkg/database"
	apperrors "github.com/yi-nology/asset_tracker/pkg/errors"
	"github.com/yi-nology/asset_tracker/pkg/validator"
	"gorm.io/gorm"
)

// CreateResult is the outcome of Create.
type CreateResult struct {
	Asset       *model.Asset
	Reactivated bool
}

// --------------------- Lifecycle transitions ---------------------

// Create registers a new asset. When a retired asset holds the serial it is
// reactivated in place instead, keeping its id and logging "reactivated".
func (l *Logic) Create(ctx context.Context, attrs model.Attributes, actor string) (*CreateResult, error) {
	attrs, err := normalizeAttributes(attrs)
	if err != nil {
		return nil, err
	}

	var result *CreateResult
	err = l.transaction(ctx, func(tx *gorm.DB) error {
		var err error
		result, err = l.createOrReactivate(ctx, tx, attrs, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// createOrReactivate applies the create rule inside tx.
func (l *Logic) createOrReactivate(ctx context.Context, tx *gorm.DB, attrs model.Attributes, actor string) (*CreateResult, error) {
	if _, err := l.assetDAO.FindBySerial(ctx, tx, attrs.Serial, true); err == nil {
		return nil, apperrors.DuplicateActive(attrs.Serial)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	retired, err := l.assetDAO.FindRetiredBySerial(ctx, tx, attrs.Serial)
	switch {
	case err == nil:
		if err := l.assetDAO.Reactivate(ctx, tx, retired.ID, attrs); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) || database.IsUniqueViolation(err) {
				// Someone else revived or re-registered the serial first.
				return nil, apperrors.DuplicateActive(attrs.Serial)
			}
			return nil, err
		}
		if err := l.appendEvent(ctx, tx, retired.ID, model.DetailReactivated, actor); err != nil {
			return nil, err
		}
		asset, err := l.assetDAO.GetByID(ctx, tx, retired.ID)
		if err != nil {
			return nil, err
		}
		return &CreateResult{Asset: asset, Reactivated: true}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	asset := model.NewAvailableAsset(attrs)
	if err := l.assetDAO.Create(ctx, tx, asset); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperrors.DuplicateActive(attrs.Serial)
		}
		return nil, err
	}
	return &CreateResult{Asset: asset}, nil
}

// Assign hands an active asset to user and logs "assigned to {user}".
func (l *Logic) Assign(ctx context.Context, id uint, user, actor string) (*model.Asset, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, apperrors.Validation("user is required", apperrors.FieldError{Field: "user", Code: "required"})
	}
	if strings.EqualFold(user, model.UnassignedUser) {
		return nil, apperrors.Validation("user must name a person", apperrors.FieldError{Field: "user", Code: "reserved"})
	}
	return l.transition(ctx, id, model.StatusAssigned, user, model.DetailAssigned(user), actor)
}

// ChangeStatus moves an active asset to Available or InRepair, which always
// clears the assigned user. Assigned is reachable only through Assign.
func (l *Logic) ChangeStatus(ctx context.Context, id uint, status, note, actor string) (*model.Asset, error) {
	status = strings.TrimSpace(status)
	if !model.IsValidStatus(status) {
		return nil, apperrors.Validation("unknown status "+status, apperrors.FieldError{Field: "status", Code: "oneof"})
	}
	if status == model.StatusAssigned {
		return nil, apperrors.Validation("use assign to set status Assigned", apperrors.FieldError{Field: "status", Code: "assign_only"})
	}
	note = strings.TrimSpace(note)
	return l.transition(ctx, id, status, model.UnassignedUser, model.DetailStatusChanged(status, note), actor)
}

// transition updates status and user of an active asset and appends the audit
// event in the same transaction.
func (l *Logic) transition(ctx context.Context, id uint, status, user, detail, actor string) (*model.Asset, error) {
	var asset *model.Asset
	err := l.transaction(ctx, func(tx *gorm.DB) error {
		var err error
		asset, err = l.requireActive(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := l.assetDAO.UpdateLifecycle(ctx, tx, id, status, user); err != nil {
			return notFoundOr(err, id)
		}
		if err := l.appendEvent(ctx, tx, id, detail, actor); err != nil {
			return err
		}
		asset.Status = status
		asset.AssignedUser = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// Update overwrites the descriptive attributes of an active asset. Lifecycle
// fields are untouched and no audit event is written.
func (l *Logic) Update(ctx context.Context, id uint, attrs model.Attributes) (*model.Asset, error) {
	attrs, err := normalizeAttributes(attrs)
	if err != nil {
		return nil, err
	}

	var asset *model.Asset
	err = l.transaction(ctx, func(tx *gorm.DB) error {
		current, err := l.requireActive(ctx, tx, id)
		if err != nil {
			return err
		}
		if attrs.Serial != current.Serial {
			holder, err := l.assetDAO.FindBySerial(ctx, tx, attrs.Serial, true)
			if err == nil && holder.ID != id {
				return apperrors.DuplicateActive(attrs.Serial)
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		if err := l.assetDAO.UpdateAttributes(ctx, tx, id, attrs); err != nil {
			if database.IsUniqueViolation(err) {
				return apperrors.DuplicateActive(attrs.Serial)
			}
			return notFoundOr(err, id)
		}
		asset, err = l.assetDAO.GetByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// SoftDelete retires an asset. Retiring a retired asset is a no-op. Status and
// assigned user stay as they were until a reactivation resets them.
// Returns whether the asset changed.
func (l *Logic) SoftDelete(ctx context.Context, id uint) (bool, error) {
	var changed bool
	err := l.transaction(ctx, func(tx *gorm.DB) error {
		asset, err := l.assetDAO.GetByID(ctx, tx, id)
		if err != nil {
			return notFoundOr(err, id)
		}
		if !asset.IsActive {
			return nil
		}
		n, err := l.assetDAO.Deactivate(ctx, tx, []uint{id})
		changed = n > 0
		return err
	})
	return changed, err
}

// BulkSoftDelete retires exactly the given assets. An empty list is rejected;
// if any id does not exist nothing changes.
func (l *Logic) BulkSoftDelete(ctx context.Context, ids []uint) (int64, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, apperrors.Validation("ids must not be empty", apperrors.FieldError{Field: "ids", Code: "min"})
	}

	var changed int64
	err := l.transaction(ctx, func(tx *gorm.DB) error {
		found, err := l.assetDAO.ExistingIDs(ctx, tx, ids)
		if err != nil {
			return err
		}
		if missing := missingIDs(ids, found); len(missing) > 0 {
			return apperrors.AssetNotFound(missing[0]).
				WithParams(map[string]interface{}{"id": missing[0], "missing": missing})
		}
		changed, err = l.assetDAO.Deactivate(ctx, tx, ids)
		return err
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// Purge hard-deletes an asset together with its audit history.
func (l *Logic) Purge(ctx context.Context, id uint) error {
	return l.transaction(ctx, func(tx *gorm.DB) error {
		if _, err := l.assetDAO.GetByID(ctx, tx, id); err != nil {
			return notFoundOr(err, id)
		}
		if err := l.eventDAO.DeleteByAsset(ctx, tx, id); err != nil {
			return err
		}
		return notFoundOr(l.assetDAO.Delete(ctx, tx, id), id)
	})
}

// --------------------- Reads ---------------------

// Get returns an asset, active or retired.
func (l *Logic) Get(ctx context.Context, id uint) (*model.Asset, error) {
	asset, err := l.assetDAO.GetByID(ctx, l.db, id)
	if err != nil {
		return nil, classify(notFoundOr(err, id))
	}
	return asset, nil
}

// ListActive returns active assets, newest id first.
func (l *Logic) ListActive(ctx context.Context) ([]model.Asset, error) {
	assets, err := l.assetDAO.ListActive(ctx, l.db)
	if err != nil {
		return nil, classify(err)
	}
	return assets, nil
}

// History returns an asset's audit events, newest first.
func (l *Logic) History(ctx context.Context, id uint) ([]model.AssetEvent, error) {
	if _, err := l.Get(ctx, id); err != nil {
		return nil, err
	}
	events, err := l.eventDAO.ListByAsset(ctx, l.db, id)
	if err != nil {
		return nil, classify(err)
	}
	return events, nil
}

// RecentActivity returns the newest audit events across all assets.
func (l *Logic) RecentActivity(ctx context.Context, limit int) ([]model.AssetEvent, error) {
	if limit <= 0 {
		limit = constants.DefaultActivityLimit
	}
	if limit > constants.MaxActivityLimit {
		limit = constants.MaxActivityLimit
	}
	events, err := l.eventDAO.ListRecent(ctx, l.db, limit)
	if err != nil {
		return nil, classify(err)
	}
	return events, nil
}

// --------------------- Helpers ---------------------

func (l *Logic) requireActive(ctx context.Context, tx *gorm.DB, id uint) (*model.Asset, error) {
	asset, err := l.assetDAO.GetByID(ctx, tx, id)
	if err != nil {
		return nil, notFoundOr(err, id)
	}
	if !asset.IsActive {
		return nil, apperrors.AssetInactive(id)
	}
	return asset, nil
}

func (l *Logic) appendEvent(ctx context.Context, tx *gorm.DB, assetID uint, detail, actor string) error {
	return l.eventDAO.Append(ctx, tx, &model.AssetEvent{
		AssetID: assetID,
		Detail:  detail,
		Actor:   actor,
	})
}

// normalizeAttributes trims the descriptive fields and checks the ones every
// asset must carry.
func normalizeAttributes(attrs model.Attributes) (model.Attributes, error) {
	serial, ok := validator.SanitizeSerial(attrs.Serial)
	if !ok {
		code := "serial"
		if serial == "" {
			code = "required"
		}
		return attrs, apperrors.Validation("invalid serial", apperrors.FieldError{Field: "serial", Code: code})
	}
	attrs.Serial = serial
	attrs.Category = strings.TrimSpace(attrs.Category)
	attrs.Model = strings.TrimSpace(attrs.Model)
	attrs.AssetTag = strings.TrimSpace(attrs.AssetTag)
	attrs.Site = strings.TrimSpace(attrs.Site)

	var fields []apperrors.FieldError
	if attrs.Category == "" {
		fields = append(fields, apperrors.FieldError{Field: "category", Code: "required"})
	}
	if attrs.Model == "" {
		fields = append(fields, apperrors.FieldError{Field: "model", Code: "required"})
	}
	if attrs.Cost.IsNegative() {
		fields = append(fields, apperrors.FieldError{Field: "cost", Code: "gte"})
	}
	if len(fields) > 0 {
		return attrs, apperrors.Validation("invalid "+fields[0].Field, fields...)
	}
	return attrs, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func missingIDs(want, found []uint) []uint {
	present := make(map[uint]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	var missing []uint
	for _, id := range want {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}
