package middleware

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/yi-nology/asset_tracker/pkg/common"
	apperrors "github.com/yi-nology/asset_tracker/pkg/errors"
	"go.uber.org/zap"
)

// Recovery returns a middleware that recovers from panics and logs the error.
func Recovery(log *zap.Logger) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					zap.String("request_id", common.GetRequestID(ctx)),
					zap.String("panic", fmt.Sprintf("%v", r)),
					zap.ByteString("stack", debug.Stack()),
				)
				c.AbortWithStatusJSON(consts.StatusInternalServerError, common.CommonResponse{
					Code:   consts.StatusInternalServerError,
					Msg:    "internal error",
					Error:  "internal server error",
					Reason: apperrors.CodeInternal,
					Kind:   apperrors.KindFailure,
				})
			}
		}()

		c.Next(ctx)
	}
}
