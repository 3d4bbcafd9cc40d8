package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/yi-nology/asset_tracker/biz/dal/db"
	"github.com/yi-nology/asset_tracker/biz/dal/model"
	"github.com/yi-nology/asset_tracker/pkg/config"
	"github.com/yi-nology/asset_tracker/pkg/database"
	"github.com/yi-nology/asset_tracker/pkg/validator"
	"gorm.io/gorm"
)

// Copies the legacy "activos" and "historial" tables into asset and
// asset_event. Legacy rows are all active; serials already held by an active
// asset are skipped. Each legacy asset moves with its history in one transaction.
// Usage: go run script/migrate_legacy_inventory.go -config=config.yaml [-dry-run]

var (
	configPath = flag.String("config", "config.yaml", "path to config.yaml")
	dryRun     = flag.Bool("dry-run", false, "report what would be copied without writing")
)

type legacyAsset struct {
	ID        uint
	Categoria string
	Modelo    string
	Serie     string
	Estado    string
	Usuario   string
}

type legacyEvent struct {
	Detalle string
	Fecha   *time.Time
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	conn, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	if err := database.Migrate(conn); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	copied, skipped, err := migrateLegacy(context.Background(), conn, *dryRun)
	if err != nil {
		log.Fatalf("migration failed after %d assets: %v", copied, err)
	}
	log.Printf("legacy migration done: copied=%d skipped=%d dry_run=%v", copied, skipped, *dryRun)
}

func migrateLegacy(ctx context.Context, conn *gorm.DB, dry bool) (copied, skipped int, err error) {
	if !conn.Migrator().HasTable("activos") {
		log.Println("no legacy activos table, nothing to do")
		return 0, 0, nil
	}
	withHistory := conn.Migrator().HasTable("historial")

	var legacy []legacyAsset
	if err := conn.WithContext(ctx).Table("activos").Order("id").Find(&legacy).Error; err != nil {
		return 0, 0, err
	}
	log.Printf("found %d legacy assets", len(legacy))

	assets := db.NewAssetDAO()
	events := db.NewAssetEventDAO()
	for i, row := range legacy {
		serial, ok := validator.SanitizeSerial(row.Serie)
		if !ok {
			log.Printf("[%d/%d] legacy id %d: unusable serial %q, skipped", i+1, len(legacy), row.ID, row.Serie)
			skipped++
			continue
		}
		if dry {
			log.Printf("[%d/%d] legacy id %d -> %s", i+1, len(legacy), row.ID, serial)
			copied++
			continue
		}

		err := conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if _, err := assets.FindBySerial(ctx, tx, serial, true); err == nil {
				return errSkip
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			asset := model.NewAvailableAsset(model.Attributes{
				Serial:   serial,
				Category: strings.TrimSpace(row.Categoria),
				Model:    strings.TrimSpace(row.Modelo),
			})
			asset.Status, asset.AssignedUser = legacyLifecycle(row.Estado, row.Usuario)
			if err := assets.Create(ctx, tx, asset); err != nil {
				return err
			}
			if !withHistory {
				return nil
			}

			var history []legacyEvent
			if err := tx.Table("historial").Where("activo_id = ?", row.ID).Order("fecha").Order("id").Find(&history).Error; err != nil {
				return err
			}
			for _, h := range history {
				event := &model.AssetEvent{
					AssetID: asset.ID,
					Detail:  legacyDetail(h.Detalle),
					Actor:   "legacy-migration",
				}
				if h.Fecha != nil {
					event.CreatedAt = *h.Fecha
				}
				if err := events.Append(ctx, tx, event); err != nil {
					return err
				}
			}
			return nil
		})
		switch {
		case errors.Is(err, errSkip):
			log.Printf("[%d/%d] legacy id %d: serial %s already active, skipped", i+1, len(legacy), row.ID, serial)
			skipped++
		case err != nil:
			return copied, skipped, err
		default:
			copied++
		}
	}
	return copied, skipped, nil
}

var errSkip = errors.New("skip")

// legacyLifecycle maps the legacy Spanish status values.
func legacyLifecycle(estado, usuario string) (string, string) {
	usuario = strings.TrimSpace(usuario)
	switch e := strings.ToLower(strings.TrimSpace(estado)); {
	case strings.HasPrefix(e, "asignado"):
		if usuario == "" || usuario == model.UnassignedUser {
			return model.StatusAvailable, model.UnassignedUser
		}
		return model.StatusAssigned, usuario
	case strings.Contains(e, "repar"):
		return model.StatusInRepair, model.UnassignedUser
	default:
		return model.StatusAvailable, model.UnassignedUser
	}
}

// legacyDetail rewrites "Asignado a {user}" into the current wording.
func legacyDetail(detalle string) string {
	detalle = strings.TrimSpace(detalle)
	if user, ok := strings.CutPrefix(detalle, "Asignado a "); ok {
		return model.DetailAssigned(user)
	}
	if detalle == "" {
		return "legacy event"
	}
	return detalle
}
