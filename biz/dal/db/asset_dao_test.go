package db

import (
	"context"
	"errors"
	"testing"

	"github.com/yi-nology/asset_tracker/biz/dal/model"
	"github.com/yi-nology/asset_tracker/pkg/database"
	"gorm.io/gorm"
)

func TestAssetDAO_Create(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)
	dao := NewAssetDAO()
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		asset := CreateTestAsset(t, db, "SN-CREATE")
		if asset.ID == 0 {
			t.Fatal("Expected ID to be set after creation")
		}

		found, err := dao.GetByID(ctx, db, asset.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if found.Status != model.StatusAvailable || found.AssignedUser != model.UnassignedUser || !found.IsActive {
			t.Errorf("Unexpected lifecycle state: %+v", found)
		}
		if !found.Cost.Equal(TestAttributes("x").Cost) {
			t.Errorf("Expected cost 1299.90, got %s", found.Cost)
		}
	})

	t.Run("NilEntity", func(t *testing.T) {
		if err := dao.Create(ctx, db, nil); err == nil {
			t.Error("Expected error for nil asset")
		}
	})

	t.Run("EmptySerial", func(t *testing.T) {
		if err := dao.Create(ctx, db, &model.Asset{Category: "Phone"}); err == nil {
			t.Error("Expected error for empty serial")
		}
	})

	t.Run("SecondActiveSerialRejectedByIndex", func(t *testing.T) {
		CreateTestAsset(t, db, "SN-DUP")
		err := dao.Create(ctx, db, model.NewAvailableAsset(TestAttributes("SN-DUP")))
		if err == nil {
			t.Fatal("Expected unique index to reject second active serial")
		}
		if !database.IsUniqueViolation(err) {
			t.Errorf("Expected unique violation, got %v", err)
		}
	})

	t.Run("RetiredSerialDoesNotBlockNewRow", func(t *testing.T) {
		old := CreateTestAsset(t, db, "SN-REUSE")
		if _, err := dao.Deactivate(ctx, db, []uint{old.ID}); err != nil {
			t.Fatalf("Deactivate failed: %v", err)
		}
		fresh := CreateTestAsset(t, db, "SN-REUSE")
		if fresh.ID == old.ID {
			t.Error("Expected a distinct row")
		}
	})
}

func TestAssetDAO_FindBySerial(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)
	dao := NewAssetDAO()
	ctx := context.Background()

	asset := CreateTestAsset(t, db, "SN-FIND")

	found, err := dao.FindBySerial(ctx, db, "SN-FIND", true)
	if err != nil {
		t.Fatalf("FindBySerial active failed: %v", err)
	}
	if found.ID != asset.ID {
		t.Errorf("Expected id %d, got %d", asset.ID, found.ID)
	}

	if _, err := dao.Deactivate(ctx, db, []uint{asset.ID}); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}

	if _, err := dao.FindBySerial(ctx, db, "SN-FIND", true); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound for retired serial, got %v", err)
	}
	found, err = dao.FindBySerial(ctx, db, "SN-FIND", false)
	if err != nil {
		t.Fatalf("FindBySerial any failed: %v", err)
	}
	if found.IsActive || found.ActiveSerial != nil {
		t.Errorf("Expected retired row with cleared active_serial, got %+v", found)
	}

	retired, err := dao.FindRetiredBySerial(ctx, db, "SN-FIND")
	if err != nil {
		t.Fatalf("FindRetiredBySerial failed: %v", err)
	}
	if retired.ID != asset.ID {
		t.Errorf("Expected id %d, got %d", asset.ID, retired.ID)
	}
}

func TestAssetDAO_Reactivate(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)
	dao := NewAssetDAO()
	ctx := context.Background()

	asset := CreateTestAsset(t, db, "SN-REACT")
	if err := dao.UpdateLifecycle(ctx, db, asset.ID, model.StatusAssigned, "alice"); err != nil {
		t.Fatalf("UpdateLifecycle failed: %v", err)
	}

	t.Run("ActiveRowIsNotReactivated", func(t *testing.T) {
		err := dao.Reactivate(ctx, db, asset.ID, TestAttributes("SN-REACT"))
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			t.Errorf("Expected ErrRecordNotFound, got %v", err)
		}
	})

	if _, err := dao.Deactivate(ctx, db, []uint{asset.ID}); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}

	attrs := TestAttributes("SN-REACT")
	attrs.Model = "ThinkPad X1"
	if err := dao.Reactivate(ctx, db, asset.ID, attrs); err != nil {
		t.Fatalf("Reactivate failed: %v", err)
	}

	found, err := dao.GetByID(ctx, db, asset.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !found.IsActive || found.Status != model.StatusAvailable || found.AssignedUser != model.UnassignedUser {
		t.Errorf("Unexpected state after reactivation: %+v", found)
	}
	if found.Model != "ThinkPad X1" {
		t.Errorf("Expected attributes overwritten, got model %q", found.Model)
	}
	if found.ActiveSerial == nil || *found.ActiveSerial != "SN-REACT" {
		t.Errorf("Expected active_serial restored, got %v", found.ActiveSerial)
	}
}

func TestAssetDAO_UpdateLifecycle(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)
	dao := NewAssetDAO()
	ctx := context.Background()

	t.Run("MissingID", func(t *testing.T) {
		err := dao.UpdateLifecycle(ctx, db, 9999, model.StatusInRepair, model.UnassignedUser)
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			t.Errorf("Expected ErrRecordNotFound, got %v", err)
		}
	})

	t.Run("RetiredAsset", func(t *testing.T) {
		asset := CreateTestAsset(t, db, "SN-LIFE-RET")
		if _, err := dao.Deactivate(ctx, db, []uint{asset.ID}); err != nil {
			t.Fatalf("Deactivate failed: %v", err)
		}
		err := dao.UpdateLifecycle(ctx, db, asset.ID, model.StatusInRepair, model.UnassignedUser)
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			t.Errorf("Expected ErrRecordNotFound, got %v", err)
		}
	})
}

func TestAssetDAO_Deactivate(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)
	dao := NewAssetDAO()
	ctx := context.Background()

	a := CreateTestAsset(t, db, "SN-A")
	b := CreateTestAsset(t, db, "SN-B")
	c := CreateTestAsset(t, db, "SN-C")

	n, err := dao.Deactivate(ctx, db, []uint{a.ID, b.ID})
	if err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 rows changed, got %d", n)
	}

	n, err = dao.Deactivate(ctx, db, []uint{a.ID})
	if err != nil {
		t.Fatalf("Second deactivate failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected already retired row untouched, got %d", n)
	}

	active, err := dao.ListActive(ctx, db)
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != c.ID {
		t.Errorf("Expected only %d active, got %+v", c.ID, active)
	}
}

func TestAssetDAO_ListActiveOrder(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	first := CreateTestAsset(t, db, "SN-1")
	second := CreateTestAsset(t, db, "SN-2")

	assets, err := NewAssetDAO().ListActive(context.Background(), db)
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(assets) != 2 || assets[0].ID != second.ID || assets[1].ID != first.ID {
		t.Errorf("Expected id desc order, got %+v", assets)
	}
}

func TestAssetDAO_ExistingIDs(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)

	a := CreateTestAsset(t, db, "SN-E")
	found, err := NewAssetDAO().ExistingIDs(context.Background(), db, []uint{a.ID, 4242})
	if err != nil {
		t.Fatalf("ExistingIDs failed: %v", err)
	}
	if len(found) != 1 || found[0] != a.ID {
		t.Errorf("Expected [%d], got %v", a.ID, found)
	}
}

func TestAssetDAO_DeleteCascadesEvents(t *testing.T) {
	db := SetupTestDB(t)
	defer CleanupTestDB(t, db)
	ctx := context.Background()
	assets := NewAssetDAO()
	events := NewAssetEventDAO()

	asset := CreateTestAsset(t, db, "SN-PURGE")
	if err := events.Append(ctx, db, &model.AssetEvent{AssetID: asset.ID, Detail: model.DetailAssigned("bob")}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if err := assets.Delete(ctx, db, asset.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	left, err := events.ListByAsset(ctx, db, asset.ID)
	if err != nil {
		t.Fatalf("ListByAsset failed: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("Expected events cascaded away, got %d", len(left))
	}

	if err := assets.Delete(ctx, db, asset.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound on second delete, got %v", err)
	}
}
