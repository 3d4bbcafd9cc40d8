package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yi-nology/asset_tracker/biz/dal/db"
	"github.com/yi-nology/asset_tracker/biz/dal/model"
	apperrors "github.com/yi-nology/asset_tracker/pkg/errors"
	"gorm.io/gorm"
)

func newTestLogic(t *testing.T) (*Logic, *gorm.DB) {
	t.Helper()
	conn := db.SetupTestDB(t)
	t.Cleanup(func() { db.CleanupTestDB(t, conn) })
	return NewLogic(conn), conn
}

func mustCreate(t *testing.T, l *Logic, serial string) *model.Asset {
	t.Helper()
	res, err := l.Create(context.Background(), db.TestAttributes(serial), "tester")
	require.NoError(t, err)
	require.False(t, res.Reactivated)
	return res.Asset
}

func eventDetails(t *testing.T, l *Logic, id uint) []string {
	t.Helper()
	events, err := l.History(context.Background(), id)
	require.NoError(t, err)
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Detail)
	}
	return out
}

// failInserts makes every insert into table fail.
func failInserts(t *testing.T, conn *gorm.DB, table string) {
	t.Helper()
	err := conn.Callback().Create().Before("gorm:create").Register("test:fail_"+table, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(errors.New("injected insert failure"))
		}
	})
	require.NoError(t, err)
}

func TestLogic_Create(t *testing.T) {
	l, _ := newTestLogic(t)
	ctx := context.Background()

	t.Run("NewAssetIsAvailableWithoutAudit", func(t *testing.T) {
		asset := mustCreate(t, l, "SN-NEW")
		assert.NotZero(t, asset.ID)
		assert.Equal(t, model.StatusAvailable, asset.Status)
		assert.Equal(t, model.UnassignedUser, asset.AssignedUser)
		assert.True(t, asset.IsActive)
		assert.Empty(t, eventDetails(t, l, asset.ID))
	})

	t.Run("ActiveDuplicateRejected", func(t *testing.T) {
		mustCreate(t, l, "SN-TAKEN")
		_, err := l.Create(ctx, db.TestAttributes("SN-TAKEN"), "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrDuplicateActive))
		assert.True(t, apperrors.IsRejection(err))
	})

	t.Run("SerialIsTrimmed", func(t *testing.T) {
		asset := mustCreate(t, l, "  SN-TRIM  ")
		assert.Equal(t, "SN-TRIM", asset.Serial)
		_, err := l.Create(ctx, db.TestAttributes("SN-TRIM"), "")
		assert.True(t, errors.Is(err, apperrors.ErrDuplicateActive))
	})

	t.Run("InvalidAttributes", func(t *testing.T) {
		attrs := db.TestAttributes("")
		_, err := l.Create(ctx, attrs, "")
		assert.True(t, errors.Is(err, apperrors.ErrValidation))

		attrs = db.TestAttributes("SN-NOCAT")
		attrs.Category = " "
		_, err = l.Create(ctx, attrs, "")
		assert.True(t, errors.Is(err, apperrors.ErrValidation))

		attrs = db.TestAttributes("SN-NEG")
		attrs.Cost = decimal.NewFromInt(-1)
		_, err = l.Create(ctx, attrs, "")
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})
}

func TestLogic_CreateReactivatesRetired(t *testing.T) {
	l, _ := newTestLogic(t)
	ctx := context.Background()

	original := mustCreate(t, l, "SN-1")
	_, err := l.Assign(ctx, original.ID, "alice", "tester")
	require.NoError(t, err)
	changed, err := l.SoftDelete(ctx, original.ID)
	require.NoError(t, err)
	require.True(t, changed)

	attrs := db.TestAttributes("SN-1")
	attrs.Model = "ThinkPad X1"
	attrs.Site = "Sevilla"
	res, err := l.Create(ctx, attrs, "tester")
	require.NoError(t, err)
	assert.True(t, res.Reactivated)
	assert.Equal(t, original.ID, res.Asset.ID)
	assert.True(t, res.Asset.IsActive)
	assert.Equal(t, model.StatusAvailable, res.Asset.Status)
	assert.Equal(t, model.UnassignedUser, res.Asset.AssignedUser)
	assert.Equal(t, "ThinkPad X1", res.Asset.Model)
	assert.Equal(t, "Sevilla", res.Asset.Site)

	assert.Equal(t, []string{model.DetailReactivated, model.DetailAssigned("alice")}, eventDetails(t, l, original.ID))

	active, err := l.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

// The test pool holds a single connection, so these callers run one after
// another; TestLogic_UniqueIndexSettlesSerialRace covers the interleaving.
func TestLogic_ConcurrentCreateSingleWinner(t *testing.T) {
	l, _ := newTestLogic(t)
	ctx := context.Background()

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		dups      int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Create(ctx, db.TestAttributes("SN-RACE"), "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, apperrors.ErrDuplicateActive):
				dups++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, dups)
	active, err := l.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

// registerRival makes the first insert or update ("create" or "update") on
// the asset table find a rival active holder of serial written just before
// it, after the application-level lookup already came back empty.
func registerRival(t *testing.T, conn *gorm.DB, op, serial string) *atomic.Bool {
	t.Helper()
	var fired atomic.Bool
	hook := func(tx *gorm.DB) {
		if tx.Statement.Table != "asset" || !fired.CompareAndSwap(false, true) {
			return
		}
		rival := model.NewAvailableAsset(db.TestAttributes(serial))
		if err := db.NewAssetDAO().Create(tx.Statement.Context, tx.Session(&gorm.Session{NewDB: true}), rival); err != nil {
			_ = tx.AddError(err)
		}
	}

	var err error
	switch op {
	case "create":
		err = conn.Callback().Create().Before("gorm:create").Register("test:rival_create", hook)
	case "update":
		err = conn.Callback().Update().Before("gorm:update").Register("test:rival_update", hook)
	default:
		t.Fatalf("unknown op %q", op)
	}
	require.NoError(t, err)
	return &fired
}

func TestLogic_UniqueIndexSettlesSerialRace(t *testing.T) {
	ctx := context.Background()

	t.Run("Insert", func(t *testing.T) {
		l, conn := newTestLogic(t)
		fired := registerRival(t, conn, "create", "SN-RIVAL")

		_, err := l.Create(ctx, db.TestAttributes("SN-RIVAL"), "")
		require.Error(t, err)
		assert.True(t, fired.Load())
		assert.True(t, errors.Is(err, apperrors.ErrDuplicateActive))
		assert.True(t, apperrors.IsRejection(err))

		active, err := l.ListActive(ctx)
		require.NoError(t, err)
		assert.Empty(t, active)
	})

	t.Run("Reactivation", func(t *testing.T) {
		l, conn := newTestLogic(t)
		retired := mustCreate(t, l, "SN-RIVAL")
		_, err := l.SoftDelete(ctx, retired.ID)
		require.NoError(t, err)
		fired := registerRival(t, conn, "update", "SN-RIVAL")

		_, err = l.Create(ctx, db.TestAttributes("SN-RIVAL"), "")
		require.Error(t, err)
		assert.True(t, fired.Load())
		assert.True(t, errors.Is(err, apperrors.ErrDuplicateActive))

		got, err := l.Get(ctx, retired.ID)
		require.NoError(t, err)
		assert.False(t, got.IsActive)
		assert.Empty(t, eventDetails(t, l, retired.ID))
	})
}

func TestLogic_Assign(t *testing.T) {
	l, _ := newTestLogic(t)
	ctx := context.Background()
	asset := mustCreate(t, l, "SN-A")

	updated, err := l.Assign(ctx, asset.ID, "bob", "tester")
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssigned, updated.Status)
	assert.Equal(t, "bob", updated.AssignedUser)

	got, err := l.Get(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssigned, got.Status)
	assert.Equal(t, "bob", got.AssignedUser)

	events, err := l.History(ctx, asset.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "assigned to bob", events[0].Detail)
	assert.Equal(t, "tester", events[0].Actor)

	t.Run("Errors", func(t *testing.T) {
		_, err := l.Assign(ctx, 4242, "bob", "")
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))

		_, err = l.Assign(ctx, asset.ID, " ", "")
		assert.True(t, errors.Is(err, apperrors.ErrValidation))

		_, err = l.Assign(ctx, asset.ID, model.UnassignedUser, "")
		assert.True(t, errors.Is(err, apperrors.ErrValidation))

		retired := mustCreate(t, l, "SN-A-RET")
		_, err = l.SoftDelete(ctx, retired.ID)
		require.NoError(t, err)
		_, err = l.Assign(ctx, retired.ID, "bob", "")
		assert.True(t, errors.Is(err, apperrors.ErrAssetInactive))
		assert.Empty(t, eventDetails(t, l, retired.ID))
	})
}

func TestLogic_ChangeStatus(t *testing.T) {
	l, _ := newTestLogic(t)
	ctx := context.Background()
	asset := mustCreate(t, l, "SN-S")
	_, err := l.Assign(ctx, asset.ID, "carol", "")
	require.NoError(t, err)

	updated, err := l.ChangeStatus(ctx, asset.ID, model.StatusInRepair, "broken screen", "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInRepair, updated.Status)
	assert.Equal(t, model.UnassignedUser, updated.AssignedUser)

	_, err = l.ChangeStatus(ctx, asset.ID, model.StatusAvailable, "", "")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"status changed to Available",
		"status changed to InRepair: broken screen",
		"assigned to carol",
	}, eventDetails(t, l, asset.ID))

	t.Run("Rejections", func(t *testing.T) {
		_, err := l.ChangeStatus(ctx, asset.ID, model.StatusAssigned, "", "")
		assert.True(t, errors.Is(err, apperrors.ErrValidation))

		_, err = l.ChangeStatus(ctx, asset.ID, "Lost", "", "")
		assert.True(t, errors.Is(err, apperrors.ErrValidation))

		_, err = l.ChangeStatus(ctx, 777, model.StatusAvailable, "", "")
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})
}

func TestLogic_TransitionIsAtomic(t *testing.T) {
	l, conn := newTestLogic(t)
	ctx := context.Background()
	asset := mustCreate(t, l, "SN-ATOMIC")
	failInserts(t, conn, "asset_event")

	_, err := l.Assign(ctx, asset.ID, "dave", "")
	require.Error(t, err)
	assert.False(t, apperrors.IsRejection(err))

	got, err := l.Get(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, got.Status)
	assert.Equal(t, model.UnassignedUser, got.AssignedUser)
	assert.Empty(t, eventDetails(t, l, asset.ID))
}

func TestLogic_ReactivationIsAtomic(t *testing.T) {
	l, conn := newTestLogic(t)
	ctx := context.Background()
	asset := mustCreate(t, l, "SN-REV")
	_, err := l.SoftDelete(ctx, asset.ID)
	require.NoError(t, err)
	failInserts(t, conn, "asset_event")

	_, err = l.Create(ctx, db.TestAttributes("SN-REV"), "")
	require.Error(t, err)

	got, err := l.Get(ctx, asset.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestLogic_Update(t *testing.T) {
	l, _ := newTestLogic(t)
	ctx := context.Background()
	asset := mustCreate(t, l, "SN-U1")
	other := mustCreate(t, l, "SN-U2")
	_, err := l.Assign(ctx, asset.ID, "erin", "")
	require.NoError(t, err)

	attrs := db.TestAttributes("SN-U1-B")
	attrs.Site = "Bilbao"
	updated, err := l.Update(ctx, asset.ID, attrs)
	require.NoError(t, err)
	assert.Equal(t, "SN-U1-B", updated.Serial)
	assert.Equal(t, "Bilbao", updated.Site)
	assert.Equal(t, model.StatusAssigned, updated.Status)
	assert.Equal(t, "erin", updated.AssignedUser)
	assert.Len(t, eventDetails(t, l, asset.ID), 1)

	// Keeping its own serial is not a collision.
	_, err = l.Update(ctx, other.ID, db.TestAttributes("SN-U2"))
	require.NoError(t, err)

	_, err = l.Update(ctx, other.ID, db.TestAttributes("SN-U1-B"))
	assert.True(t, errors.Is(err, apperrors.ErrDuplicateActive))

	_, err = l.Update(ctx, 999, db.TestAttributes("SN-X"))
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = l.SoftDelete(ctx, other.ID)
	require.NoError(t, err)
	_, err = l.Update(ctx, other.ID, db.TestAttributes("SN-U2"))
	assert.True(t, errors.Is(err, apperrors.ErrAssetInactive))
}

func TestLogic_SoftDelete(t *testing.T) {
	l, _ := newTestLogic(t)
	ctx := context.Background()
	asset := mustCreate(t, l, "SN-D")
	_, err := l.ChangeStatus(ctx, asset.ID, model.StatusInRepair, "", "")
	require.NoError(t, err)

	changed, err := l.SoftDelete(ctx, asset.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = l.SoftDelete(ctx, asset.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := l.Get(ctx, asset.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, model.StatusInRepair, got.Status)
	assert.Len(t, eventDetails(t, l, asset.ID), 1)

	active, err := l.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = l.SoftDelete(ctx, 31337)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestLogic_BulkSoftDelete(t *testing.T) {
	l, _ := newTestLogic(t)
	ctx := context.Background()
	a := mustCreate(t, l, "SN-B1")
	b := mustCreate(t, l, "SN-B2")
	c := mustCreate(t, l, "SN-B3")

	t.Run("EmptyRejected", func(t *testing.T) {
		_, err := l.BulkSoftDelete(ctx, nil)
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})

	t.Run("MissingIDChangesNothing", func(t *testing.T) {
		_, err := l.BulkSoftDelete(ctx, []uint{a.ID, 5000})
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
		got, err := l.Get(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, got.IsActive)
	})

	t.Run("DeactivatesExactlyThoseIDs", func(t *testing.T) {
		n, err := l.BulkSoftDelete(ctx, []uint{a.ID, b.ID, a.ID})
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		active, err := l.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, c.ID, active[0].ID)
	})

	t.Run("AlreadyRetiredCountsZero", func(t *testing.T) {
		n, err := l.BulkSoftDelete(ctx, []uint{a.ID})
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestLogic_Purge(t *testing.T) {
	l, _ := newTestLogic(t)
	ctx := context.Background()
	asset := mustCreate(t, l, "SN-P")
	_, err := l.Assign(ctx, asset.ID, "frank", "")
	require.NoError(t, err)

	require.NoError(t, l.Purge(ctx, asset.ID))

	_, err = l.Get(ctx, asset.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	_, err = l.History(ctx, asset.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	recent, err := l.RecentActivity(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, recent)

	assert.True(t, errors.Is(l.Purge(ctx, asset.ID), apperrors.ErrNotFound))
}

func TestLogic_RecentActivity(t *testing.T) {
	l, _ := newTestLogic(t)
	ctx := context.Background()
	first := mustCreate(t, l, "SN-R1")
	second := mustCreate(t, l, "SN-R2")

	_, err := l.Assign(ctx, first.ID, "gina", "")
	require.NoError(t, err)
	_, err = l.Assign(ctx, second.ID, "hugo", "")
	require.NoError(t, err)
	_, err = l.ChangeStatus(ctx, first.ID, model.StatusAvailable, "returned", "")
	require.NoError(t, err)

	recent, err := l.RecentActivity(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "status changed to Available: returned", recent[0].Detail)
	require.NotNil(t, recent[0].Asset)
	assert.Equal(t, "SN-R1", recent[0].Asset.Serial)
	assert.Equal(t, "assigned to hugo", recent[1].Detail)

	all, err := l.RecentActivity(ctx, 1000)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestClassify(t *testing.T) {
	assert.Nil(t, classify(nil))

	dup := apperrors.DuplicateActive("SN")
	assert.Same(t, dup, classify(dup))

	err := classify(errors.New("sql: database is closed"))
	assert.True(t, errors.Is(err, apperrors.ErrStorageUnavailable))

	err = classify(errors.New("syntax error"))
	assert.True(t, errors.Is(err, apperrors.ErrInternal))

	assert.ErrorIs(t, classify(context.Canceled), context.Canceled)
}
