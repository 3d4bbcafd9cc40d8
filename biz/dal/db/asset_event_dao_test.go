package db

import (
	"context"
	"testing"

	"github.com/yi-nology/asset_tracker/biz/dal/model"
)

func TestAssetEventDAO_Append(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)
	dao := NewAssetEventDAO()
	ctx := context.Background()
	asset := CreateTestAsset(t, db, "SN-EV")

	t.Run("Success", func(t *testing.T) {
		event := &model.AssetEvent{AssetID: asset.ID, Detail: model.DetailReactivated, Actor: "admin"}
		if err := dao.Append(ctx, db, event); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if event.ID == 0 || event.CreatedAt.IsZero() {
			t.Errorf("Expected id and timestamp assigned, got %+v", event)
		}
	})

	t.Run("Validation", func(t *testing.T) {
		if err := dao.Append(ctx, db, nil); err == nil {
			t.Error("Expected error for nil event")
		}
		if err := dao.Append(ctx, db, &model.AssetEvent{Detail: "x"}); err == nil {
			t.Error("Expected error for missing asset id")
		}
		if err := dao.Append(ctx, db, &model.AssetEvent{AssetID: asset.ID}); err == nil {
			t.Error("Expected error for empty detail")
		}
	})

	t.Run("UnknownAssetRejectedByForeignKey", func(t *testing.T) {
		if err := dao.Append(ctx, db, &model.AssetEvent{AssetID: 98765, Detail: "orphan"}); err == nil {
			t.Error("Expected foreign key violation")
		}
	})
}

func TestAssetEventDAO_ListByAsset(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)
	dao := NewAssetEventDAO()
	ctx := context.Background()

	asset := CreateTestAsset(t, db, "SN-HIST")
	other := CreateTestAsset(t, db, "SN-OTHER")
	details := []string{
		model.DetailAssigned("alice"),
		model.DetailStatusChanged(model.StatusInRepair, "screen"),
		model.DetailStatusChanged(model.StatusAvailable, ""),
	}
	for _, d := range details {
		if err := dao.Append(ctx, db, &model.AssetEvent{AssetID: asset.ID, Detail: d}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if err := dao.Append(ctx, db, &model.AssetEvent{AssetID: other.ID, Detail: model.DetailAssigned("bob")}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	events, err := dao.ListByAsset(ctx, db, asset.ID)
	if err != nil {
		t.Fatalf("ListByAsset failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	if events[0].Detail != "status changed to Available" {
		t.Errorf("Expected newest first, got %q", events[0].Detail)
	}
	if events[2].Detail != "assigned to alice" {
		t.Errorf("Expected oldest last, got %q", events[2].Detail)
	}
}

func TestAssetEventDAO_ListRecent(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)
	dao := NewAssetEventDAO()
	ctx := context.Background()

	a := CreateTestAsset(t, db, "SN-R1")
	b := CreateTestAsset(t, db, "SN-R2")
	for i, id := range []uint{a.ID, b.ID, a.ID} {
		if err := dao.Append(ctx, db, &model.AssetEvent{AssetID: id, Detail: model.DetailAssigned(string(rune('x' + i)))}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	events, err := dao.ListRecent(ctx, db, 2)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Asset == nil || events[0].Asset.Serial != "SN-R1" {
		t.Errorf("Expected joined asset SN-R1, got %+v", events[0].Asset)
	}
	if events[0].Detail != "assigned to z" {
		t.Errorf("Expected newest event first, got %q", events[0].Detail)
	}

	if err := NewAssetDAO().Delete(ctx, db, a.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	events, err = dao.ListRecent(ctx, db, 0)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(events) != 1 || events[0].AssetID != b.ID {
		t.Errorf("Expected only events of surviving asset, got %+v", events)
	}
}

func TestDetailStrings(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{model.DetailAssigned("maria"), "assigned to maria"},
		{model.DetailStatusChanged("InRepair", "broken hinge"), "status changed to InRepair: broken hinge"},
		{model.DetailStatusChanged("Available", ""), "status changed to Available"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
