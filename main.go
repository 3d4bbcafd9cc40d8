package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yi-nology/asset_tracker/biz/handler"
	"github.com/yi-nology/asset_tracker/biz/middleware"
	"github.com/yi-nology/asset_tracker/biz/router"
	"github.com/yi-nology/asset_tracker/biz/service"
	"github.com/yi-nology/asset_tracker/pkg/auth"
	"github.com/yi-nology/asset_tracker/pkg/config"
	"github.com/yi-nology/asset_tracker/pkg/constants"
	"github.com/yi-nology/asset_tracker/pkg/database"
	"github.com/yi-nology/asset_tracker/pkg/lock"
	"github.com/yi-nology/asset_tracker/pkg/logger"
	"github.com/yi-nology/asset_tracker/pkg/metrics"
	redisclient "github.com/yi-nology/asset_tracker/pkg/redis"
	"github.com/yi-nology/asset_tracker/pkg/storage"
	"go.uber.org/zap"
)

var (
	configPath  = flag.String("config", "config.yaml", "path to config.yaml")
	printConfig = flag.Bool("print-config", false, "print the effective configuration and exit")
	issueToken  = flag.String("issue-token", "", "issue a bearer token for the given user and exit")
	tokenTTL    = flag.Duration("token-ttl", 24*time.Hour, "lifetime of tokens issued with -issue-token")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if *printConfig {
		out, err := cfg.YAML()
		if err != nil {
			log.Fatalf("render config: %v", err)
		}
		os.Stdout.Write(out)
		return
	}
	if *issueToken != "" {
		if err := printToken(cfg.Auth, *issueToken, *tokenTTL); err != nil {
			log.Fatalf("issue token: %v", err)
		}
		return
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()
	lg := logger.L()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx := context.Background()

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	lg.Info("database ready",
		zap.String("driver", cfg.Database.Driver),
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if store != nil {
		lg.Info("archive storage enabled", zap.String("type", store.Type()))
	}

	var locker lock.Locker
	rdb, err := redisclient.NewClient(ctx, cfg.Redis, lg.Named("redis"))
	if err != nil {
		return fmt.Errorf("init redis: %w", err)
	}
	if rdb != nil {
		locker = lock.New(rdb, constants.ImportLockKey, cfg.Import.LockTTL, cfg.Import.LockWait)
		lg.Info("import lock enabled", zap.String("redis", rdb.Options().Addr))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(sqlDB, "asset_tracker"),
	)
	m := metrics.New(reg)

	svc := service.NewService(db, service.Options{
		Storage: store,
		Locker:  locker,
		Metrics: m,
		Logger:  logger.Named("service"),
		Import:  cfg.Import,
	})

	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithExitWaitTime(cfg.Server.ShutdownTimeout),
		server.WithMaxRequestBodySize(int(cfg.Import.MaxUploadSize)+1<<20),
	)
	h.Use(
		middleware.Recovery(lg),
		middleware.Logging(logger.Named("http"), m),
		middleware.CORS(&cfg.CORS),
	)
	router.RegisterAssetRoutes(h, handler.NewAssetHandler(svc), router.Options{
		Auth:        middleware.Auth(auth.New(cfg.Auth)),
		UploadLimit: middleware.UploadLimit(cfg.Import.MaxConcurrent),
		Metrics:     adaptor.HertzHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})),
	})

	h.OnShutdown = append(h.OnShutdown, func(context.Context) {
		if rdb != nil {
			if err := rdb.Close(); err != nil {
				lg.Warn("close redis", zap.Error(err))
			}
		}
		if err := sqlDB.Close(); err != nil {
			lg.Warn("close database", zap.Error(err))
		}
		lg.Info("shutdown complete")
	})

	lg.Info("starting server", zap.String("address", cfg.Server.Address), zap.Bool("auth", cfg.Auth.Enabled))
	h.Spin()
	return nil
}

func printToken(cfg config.AuthConfig, user string, ttl time.Duration) error {
	if !cfg.Enabled {
		return fmt.Errorf("auth is disabled in config")
	}
	token, expiresAt, err := auth.NewJWT(cfg.Secret, cfg.Issuer).Issue(user, user, ttl)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n# expires %s\n", token, expiresAt.UTC().Format(time.RFC3339))
	return nil
}
