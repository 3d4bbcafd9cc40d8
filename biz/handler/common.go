package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/yi-nology/asset_tracker/pkg/common"
	apperrors "github.com/yi-nology/asset_tracker/pkg/errors"
	"github.com/yi-nology/asset_tracker/pkg/logger"
	"go.uber.org/zap"
)

// --------------------- Response helpers ---------------------

// RespondData writes a 200 response carrying data.
func RespondData(c *app.RequestContext, data interface{}) {
	resp := common.CommonResponse{}.ReturnOK()
	resp.Msg = http.StatusText(consts.StatusOK)
	resp.Data = data
	c.JSON(consts.StatusOK, resp)
}

// RespondOK writes an empty 200 response.
func RespondOK(c *app.RequestContext) {
	RespondData(c, nil)
}

// RespondError maps err onto its HTTP status and writes the error envelope.
// System failures are logged; their details stay out of the response.
func RespondError(ctx context.Context, c *app.RequestContext, err error) {
	status := apperrors.StatusOf(err)
	resp := common.CommonResponse{
		Code:   status,
		Reason: apperrors.CodeOf(err),
		Kind:   apperrors.Kind(err),
	}

	if errors.Is(err, context.Canceled) {
		// Client went away; nobody reads this.
		status = 499
		resp.Code = status
	}

	appErr, ok := apperrors.IsAppError(err)
	switch {
	case ok && apperrors.IsRejection(err):
		resp.Msg = appErr.Message
		resp.Error = appErr.Message
		if len(appErr.FieldErrors) > 0 {
			resp.Fields = appErr.FieldErrors
		} else if len(appErr.Params) > 0 {
			resp.Fields = appErr.Params
		}
	case ok:
		resp.Msg = appErr.Message
		resp.Error = http.StatusText(status)
		logger.L().Error("request failed",
			zap.String("request_id", common.GetRequestID(ctx)),
			zap.String("reason", appErr.Code),
			zap.Error(err))
	default:
		resp.Msg = "internal error"
		resp.Error = http.StatusText(consts.StatusInternalServerError)
		logger.L().Error("request failed",
			zap.String("request_id", common.GetRequestID(ctx)),
			zap.Error(err))
	}
	c.JSON(status, resp)
}

// --------------------- Request helpers ---------------------

// DecodeJSON strictly decodes the request body into dst: unknown fields and
// trailing data are rejected.
func DecodeJSON(c *app.RequestContext, dst interface{}) error {
	body := c.Request.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return apperrors.Validation("request body is required")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.Validation("malformed request body: " + err.Error())
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperrors.Validation("malformed request body: unexpected trailing data")
	}
	return nil
}

// ParseID reads a positive numeric path parameter.
func ParseID(c *app.RequestContext, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.Validation("invalid "+name, apperrors.FieldError{Field: name, Code: "gt"})
	}
	return uint(id), nil
}

// QueryInt reads an optional integer query parameter.
func QueryInt(c *app.RequestContext, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Validation("invalid "+name, apperrors.FieldError{Field: name, Code: "numeric"})
	}
	return v, nil
}

// Ping is the liveness check.
func Ping(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, common.CommonResponse{Code: consts.StatusOK, Msg: "pong"})
}
