package middleware

import (
	"context"
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/yi-nology/asset_tracker/pkg/auth"
	"github.com/yi-nology/asset_tracker/pkg/common"
	apperrors "github.com/yi-nology/asset_tracker/pkg/errors"
)

// Auth returns a middleware that enforces the bearer token gate and stores
// the authenticated principal as the request actor. With the anonymous
// authenticator every request passes with an empty actor.
func Auth(authenticator auth.Authenticator) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		actor, err := authenticator.Authenticate(ctx, string(c.GetHeader("Authorization")))
		if err != nil {
			msg := "invalid token"
			switch {
			case errors.Is(err, auth.ErrMissingToken):
				msg = "missing bearer token"
			case errors.Is(err, auth.ErrTokenExpired):
				msg = "token expired"
			}
			c.Response.Header.Set("WWW-Authenticate", `Bearer realm="asset_tracker"`)
			c.AbortWithStatusJSON(consts.StatusUnauthorized, common.CommonResponse{
				Code:   consts.StatusUnauthorized,
				Msg:    msg,
				Error:  "authentication required",
				Reason: apperrors.CodeUnauthorized,
				Kind:   apperrors.KindRejected,
			})
			return
		}
		if actor != "" {
			ctx = common.ContextWithActor(ctx, actor)
		}
		c.Next(ctx)
	}
}
