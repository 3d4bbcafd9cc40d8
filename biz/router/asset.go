package router

import (
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/yi-nology/asset_tracker/biz/handler"
	"github.com/yi-nology/asset_tracker/biz/handler/version"
)

// Options holds the per-group middleware the routes need.
type Options struct {
	// Auth guards every /api/v1 route.
	Auth app.HandlerFunc
	// UploadLimit wraps the import route; nil means unlimited.
	UploadLimit []app.HandlerFunc
	// Metrics serves /metrics; nil leaves the route out.
	Metrics app.HandlerFunc
}

// RegisterAssetRoutes configures HTTP routes for the asset APIs.
func RegisterAssetRoutes(r *server.Hertz, h *handler.AssetHandler, opts Options) {
	r.GET("/ping", handler.Ping)
	if opts.Metrics != nil {
		r.GET("/metrics", opts.Metrics)
	}
	if h == nil {
		return
	}

	v1 := r.Group("/api/v1")
	if opts.Auth != nil {
		v1.Use(opts.Auth)
	}
	v1.GET("/version", version.GetVersion)
	v1.GET("/activity", h.RecentActivity)
	v1.GET("/archives", h.ListArchives)
	v1.GET("/archives/*key", h.DownloadArchive)
	v1.DELETE("/archives/*key", h.DeleteArchive)

	assets := v1.Group("/assets")
	assets.GET("", h.ListAssets)
	assets.POST("", h.CreateAsset)
	assets.GET("/export", h.ExportAssets)
	assets.POST("/import", append(opts.UploadLimit, h.ImportAssets)...)
	assets.POST("/bulk-delete", h.BulkDelete)
	assets.GET("/:id", h.GetAsset)
	assets.PUT("/:id", h.UpdateAsset)
	assets.DELETE("/:id", h.DeleteAsset)
	assets.POST("/:id/assign", h.AssignAsset)
	assets.POST("/:id/status", h.ChangeStatus)
	assets.DELETE("/:id/purge", h.PurgeAsset)
	assets.GET("/:id/history", h.History)
}
