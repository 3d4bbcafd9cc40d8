package handler

import (
	"context"
	"io"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/yi-nology/asset_tracker/biz/model/api"
	"github.com/yi-nology/asset_tracker/biz/service"
	"github.com/yi-nology/asset_tracker/pkg/constants"
	apperrors "github.com/yi-nology/asset_tracker/pkg/errors"
)

// AssetHandler exposes the asset lifecycle, import and export endpoints.
type AssetHandler struct {
	service *service.Service
}

func NewAssetHandler(svc *service.Service) *AssetHandler {
	return &AssetHandler{service: svc}
}

// ListAssets returns active assets, newest first.
func (h *AssetHandler) ListAssets(ctx context.Context, c *app.RequestContext) {
	assets, err := h.service.ListAssets(ctx)
	if err != nil {
		RespondError(ctx, c, err)
		return
	}
	RespondData(c, map[string]any{"total": len(assets), "list": assets})
}

// GetAsset returns a single asset, active or retired.
func (h *AssetHandler) GetAsset(ctx context.Context, c *app.RequestContext) {
	id, err := ParseID(c, "id")
	if err != nil {
		RespondError(ctx, c, err)
		return
	}
	asset, err := h.service.GetAsset(ctx, id)
	if err != nil {
		RespondError(ctx, c, err)
		return
	}
	RespondData(c, asset)
}

// CreateAsset registers an asset or reactivates a retired one.
func (h *AssetHandler) CreateAsset(ctx context.Context, c *app.RequestContext) {
	var req api.CreateAssetRequest
	if err := DecodeJSON(c, &req); err != nil {
		RespondError(ctx, c, err)
		return
	}
	resp, err := h.service.CreateAsset(ctx, &req)
	if err != nil {
		RespondError(ctx, c, err)
		return
	}
	RespondData(c, resp)
}

// UpdateAsset overwrites descriptive fields.
func (h *AssetHandler) UpdateAsset(ctx context.Context, c *app.RequestContext) {
	id, err := ParseID(c, "id")
	if err != nil {
		RespondError(ctx, c, err)
		return
	}
	var req api.UpdateAssetRequest
	if err := DecodeJSON(c, &req); err != nil {
		RespondError(ctx, c, err)
		return
	}
	asset, err := h.service.UpdateAsset(ctx, id, &req)
	if err != nil {
		RespondError(ctx, c, err)
		return
	}
	RespondData(c, asset)
}

// AssignAsset assigns an asset to a user.
func (h *AssetHandler) AssignAsset(ctx context.Context, c *app.RequestContext) {
	id, err := ParseID(c, "id")
	if err != nil {
		RespondError(ctx, c, err)
		return
	}
	var req api.AssignRequest
	if err := DecodeJSON(c, &req); err != nil {
		RespondError(ctx, c, err)
		return
	}
	asset, err := h.service.AssignAsset(ctx, id, &req)
	if err != nil {
		RespondError(ctx, c, err)
		return
	}
	RespondData(c, asset)
}

// ChangeStatus moves an asset to Available or InRepair.
func (h *AssetHandler) ChangeStatus(ctx context.Context, c *app.RequestContext) {
	id, err := ParseID(c, "id")
	if err != nil {
		RespondError(ctx, c, err)
		return
	}
	var req api.ChangeStatusRequest
	if err := DecodeJSON(c, &req); err != nil {
		RespondError(ctx, c, err)
		return
	}
	asset, err := h.service.ChangeAssetStatus(ctx, id, &req)
	if err != nil {
		RespondError(ctx, c, err)
		return
	}
	RespondData(c, asset)
}

// DeleteAsset retires an asset.
func (h *AssetHandler) DeleteAsset(ctx context.Context, c *app.RequestContext) {
	id, err := ParseID(c, "id")
	if err != nil {
		RespondError(ctx, c, err)
		return
	}
	if err := h.service.DeleteAsset(ctx, id); err != nil {
		RespondError(ctx, c, err)
		return
	}
	RespondOK(c)
}

// BulkDelete retires several assets atomically.
func (h *AssetHandler) BulkDelete(ctx context.Context, c *app.RequestContext) {
	var req api.BulkDeleteRequest
	if err := DecodeJSON(c, &req); err != nil {
		RespondError(ctx, c, err)
		return
	}
	resp, err := h.service.BulkDeleteAssets(ctx, &req)
	if err != nil {
		RespondError(ctx, c, err)
		return
	}
	RespondData(c, resp)
}

// PurgeAsset hard-deletes an asset and its history.
func (h *AssetHandler) PurgeAsset(ctx context.Context, c *app.RequestContext) {
	id, err := ParseID(c, "id")
	if err != nil {
		RespondError(ctx, c, err)
		return
	}
	if err := h.service.PurgeAsset(ctx, id); err != nil {
		RespondError(ctx, c, err)
		return
	}
	RespondOK(c)
}

// History returns an asset's audit events.
func (h *AssetHandler) History(ctx context.Context, c *app.RequestContext) {
	id, err := ParseID(c, "id")
	if err != nil {
		RespondError(ctx, c, err)
		return
	}
	events, err := h.service.AssetHistory(ctx, id)
	if err != nil {
		RespondError(ctx, c, err)
		return
	}
	RespondData(c, events)
}

// RecentActivity returns the newest audit events across assets.
func (h *AssetHandler) RecentActivity(ctx context.Context, c *app.RequestContext) {
	limit, err := QueryInt(c, "limit", constants.DefaultActivityLimit)
	if err != nil {
		RespondError(ctx, c, err)
		return
	}
	items, err := h.service.RecentActivity(ctx, limit)
	if err != nil {
		RespondError(ctx, c, err)
		return
	}
	RespondData(c, items)
}

// ImportAssets reconciles an uploaded spreadsheet (multipart field "file").
func (h *AssetHandler) ImportAssets(ctx context.Context, c *app.RequestContext) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(ctx, c, apperrors.Validation("file is required", apperrors.FieldError{Field: "file", Code: "required"}))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		RespondError(ctx, c, apperrors.Validation("unreadable upload: "+err.Error()))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		RespondError(ctx, c, apperrors.Validation("unreadable upload: "+err.Error()))
		return
	}

	result, err := h.service.ImportSpreadsheet(ctx, fileHeader.Filename, data)
	if err != nil {
		RespondError(ctx, c, err)
		return
	}
	RespondData(c, result)
}

// ExportAssets downloads the active inventory as xlsx or csv.
func (h *AssetHandler) ExportAssets(ctx context.Context, c *app.RequestContext) {
	archive, _ := strconv.ParseBool(c.DefaultQuery("archive", "false"))
	file, err := h.service.ExportSpreadsheet(ctx, c.Query("format"), archive)
	if err != nil {
		RespondError(ctx, c, err)
		return
	}
	c.Response.Header.Set("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	if file.Archive != "" {
		c.Response.Header.Set("X-Archive-Key", file.Archive)
	}
	c.Data(consts.StatusOK, file.ContentType, file.Data)
}

// ListArchives lists archived uploads and snapshots.
func (h *AssetHandler) ListArchives(ctx context.Context, c *app.RequestContext) {
	archives, err := h.service.ListArchives(ctx, c.Query("prefix"))
	if err != nil {
		RespondError(ctx, c, err)
		return
	}
	RespondData(c, archives)
}

// DownloadArchive returns an archived upload or snapshot.
func (h *AssetHandler) DownloadArchive(ctx context.Context, c *app.RequestContext) {
	file, err := h.service.FetchArchive(ctx, c.Param("key"))
	if err != nil {
		RespondError(ctx, c, err)
		return
	}
	c.Response.Header.Set("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	c.Data(consts.StatusOK, file.ContentType, file.Data)
}

// DeleteArchive removes an archived upload or snapshot.
func (h *AssetHandler) DeleteArchive(ctx context.Context, c *app.RequestContext) {
	if err := h.service.DeleteArchive(ctx, c.Param("key")); err != nil {
		RespondError(ctx, c, err)
		return
	}
	RespondOK(c)
}
