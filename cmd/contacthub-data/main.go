package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contacthub-data/internal/config"
	"contacthub-data/internal/database"
	httpapi "contacthub-data/internal/http"
	"contacthub-data/internal/repository"
	"contacthub-data/internal/service"
	"contacthub-data/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// 进度存储：Redis 可用则用 Redis，否则退回内存 KV（单实例开发场景）
	var kv store.KV
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		kv = store.NewRedisKV(redisClient)
	} else {
		kv = store.NewMemoryKV()
		logger.Info("Redis disabled, using in-memory progress store")
	}

	// 联系人存储：DB 连接失败时退回内存 repo，服务仍可启动联测
	var db *sql.DB
	var contactsRepo repository.ContactsRepository
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			contactsRepo = repository.NewPostgresContactsRepo(db)
			logger.Info("DB enabled for contacthub-data")
		} else {
			logger.Warn("DB enabled but connection failed, falling back to memory repo", zap.Error(err))
		}
	}
	if contactsRepo == nil {
		contactsRepo = repository.NewMemoryContactsRepo()
	}

	contactSvc := service.NewContactService(contactsRepo, logger)
	importSvc := service.NewImportService(contactsRepo, kv, cfg.Import, logger)
	exportSvc := service.NewExportService(contactsRepo, logger)

	var avatarClient *service.AvatarClient
	if cfg.Avatar.Enabled {
		avatarClient = service.NewAvatarClient(cfg.Avatar.BaseURL, cfg.Avatar.APIKey, logger)
	}

	router := httpapi.NewRouter(logger)
	router.RegisterContactRoutes(
		httpapi.NewContactHandler(contactSvc, avatarClient, logger),
		httpapi.NewImportHandler(importSvc, logger),
		httpapi.NewExportHandler(exportSvc, logger),
	)
	router.RegisterHealthRoutes()

	srv := service.NewServer(cfg.HTTP.Addr, router, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
}
