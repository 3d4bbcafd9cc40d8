package common

import (
	"context"
)

// CommonResponse is a lightweight response wrapper used by HTTP handlers.
// Reason carries the machine-readable error code and Kind tells a rejected
// request ("rejected") apart from a system failure ("failure").
type CommonResponse struct {
	Code   int         `json:"code"`
	Msg    string      `json:"msg,omitempty"`
	Error  string      `json:"error,omitempty"`
	Reason string      `json:"reason,omitempty"`
	Kind   string      `json:"kind,omitempty"`
	Fields interface{} `json:"fields,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

// ReturnOK creates a HTTP 200 response.
func (CommonResponse) ReturnOK() CommonResponse {
	return CommonResponse{Code: 200}
}

type contextKey string

const (
	actorKey     contextKey = "actor"
	requestIDKey contextKey = "request_id"
)

// ContextWithActor stores the authenticated principal into context.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// GetActor retrieves the authenticated principal from context.
func GetActor(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithRequestID stores the request id into context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID retrieves the request id from context.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}
