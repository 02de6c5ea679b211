package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"digiwallet/internal/config"
	"digiwallet/internal/handler"
	"digiwallet/internal/infrastructure/cache"
	"digiwallet/internal/infrastructure/database"
	"digiwallet/internal/infrastructure/lock"
	"digiwallet/internal/infrastructure/mq"
	"digiwallet/internal/infrastructure/storage"
	"digiwallet/internal/job"
	"digiwallet/internal/repository"
	"digiwallet/internal/service"
	"digiwallet/pkg/idgen"
	"digiwallet/pkg/token"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	workerID := flag.Int64("worker-id", 1, "雪花算法 workerID")
	flag.Parse()

	if err := run(*configPath, *workerID); err != nil {
		log.Fatalf("服务异常退出: %v", err)
	}
}

func run(configPath string, workerID int64) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := idgen.Init(workerID); err != nil {
		return err
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	// Redis 可选：目录缓存与用户锁
	var catalogCache service.CatalogCache
	var txOpts []service.TransactionOption
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(&cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		catalogCache = cache.NewCatalogCache(redisClient, cfg.Redis.CatalogTTL)
		if cfg.Business.UserLockEnabled {
			txOpts = append(txOpts, service.WithUserLocker(lock.NewUserLocker(redisClient, cfg.Business.UserLockTTL)))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Kafka 可选：开启后交易事件经发件箱投递
	if cfg.Kafka.Enabled {
		producer, err := mq.NewProducer(&cfg.Kafka)
		if err != nil {
			return err
		}
		defer producer.Close()

		txOpts = append(txOpts, service.WithOutboxTopic(cfg.Kafka.Topic.Transaction))
		outboxSender := job.NewOutboxSender(
			repository.NewOutboxRepository(db),
			producer,
			cfg.Kafka.PollInterval,
			cfg.Kafka.BatchSize,
			cfg.Business.MaxRetryCount,
		)
		senderDone := make(chan struct{})
		go func() {
			outboxSender.Start(ctx)
			close(senderDone)
		}()
		// 先停止发送任务，再关闭生产者
		defer func() {
			outboxSender.Stop()
			<-senderDone
		}()
	}

	tokens, err := token.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	if err != nil {
		return err
	}
	images, err := storage.NewLocalImageStore(cfg.Storage.UploadDir, cfg.Storage.PublicBaseURL, cfg.Storage.MaxImageBytes)
	if err != nil {
		return err
	}

	users := repository.NewUserRepository(db)
	ledger := repository.NewLedgerRepository(db)
	catalog := service.NewCatalogService(repository.NewCatalogRepository(db), catalogCache)

	h := handler.NewHandler(handler.Services{
		Auth:        service.NewAuthService(users, tokens),
		Profile:     service.NewProfileService(users, images),
		Catalog:     catalog,
		Balance:     service.NewBalanceService(ledger),
		Transaction: service.NewTransactionService(ledger, catalog, txOpts...),
		History:     service.NewHistoryService(repository.NewTransactionRepository(db)),
	})
	router := handler.SetupRouter(handler.RouterConfig{
		Handler:   h,
		Tokens:    tokens,
		UploadDir: images.Dir(),
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("服务启动，监听端口: %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("服务启动失败: %w", err)
	}

	log.Println("正在关闭服务...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("服务关闭异常: %v", err)
	}

	log.Println("服务已关闭")
	return nil
}
