package middleware

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/yi-nology/asset_tracker/pkg/common"
	apperrors "github.com/yi-nology/asset_tracker/pkg/errors"
)

// UploadLimit returns a middleware slice that caps concurrent spreadsheet
// uploads in this process; each upload is buffered in memory. Requests over
// the cap are turned away immediately with 409. A non-positive max disables
// the gate and returns nil.
func UploadLimit(max int) []app.HandlerFunc {
	if max <= 0 {
		return nil
	}
	slots := make(chan struct{}, max)
	return []app.HandlerFunc{func(ctx context.Context, c *app.RequestContext) {
		select {
		case slots <- struct{}{}:
		default:
			c.AbortWithStatusJSON(consts.StatusConflict, common.CommonResponse{
				Code:   consts.StatusConflict,
				Msg:    "another import is running, retry later",
				Error:  "import in progress",
				Reason: apperrors.CodeImportBusy,
				Kind:   apperrors.KindRejected,
			})
			return
		}
		defer func() { <-slots }()
		c.Next(ctx)
	}}
}
