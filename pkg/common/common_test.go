package common

import (
	"context"
	"testing"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	if GetActor(ctx) != "" || GetRequestID(ctx) != "" {
		t.Fatal("expected empty values on bare context")
	}

	ctx = ContextWithActor(ctx, "maria")
	ctx = ContextWithRequestID(ctx, "req-1")
	if got := GetActor(ctx); got != "maria" {
		t.Fatalf("GetActor() = %q, want maria", got)
	}
	if got := GetRequestID(ctx); got != "req-1" {
		t.Fatalf("GetRequestID() = %q, want req-1", got)
	}
}

func TestReturnOK(t *testing.T) {
	if got := (CommonResponse{}).ReturnOK(); got.Code != 200 {
		t.Fatalf("ReturnOK().Code = %d, want 200", got.Code)
	}
}
