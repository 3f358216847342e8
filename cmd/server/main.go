package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	adminapp "card-server/internal/application/administration"
	verifyapp "card-server/internal/application/verification"
	"card-server/internal/domain/ip_limit"
	"card-server/internal/infrastructure/config"
	otelinfra "card-server/internal/infrastructure/observability/otel"
	"card-server/internal/infrastructure/persistence/mysql"
	redisinfra "card-server/internal/infrastructure/persistence/redis"
	"card-server/internal/presentation/rest"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// OpenTelemetryの初期化
	tracerShutdown, err := otelinfra.InitTracer(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	meterShutdown, err := otelinfra.InitMeter(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize meter: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown meter: %v", err)
		}
	}()

	// ロガーとメトリクスの初期化
	tracer := otelinfra.Tracer("card-server")
	logger := otelinfra.NewLogger(tracer)
	metrics, err := otelinfra.NewMetrics("card-server")
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	// データベース接続の初期化
	db, err := mysql.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// マイグレーションの適用
	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	// IPレート制限ストアの初期化
	// Redisが無効の場合はレート制限なしで起動する。
	var attempts ip_limit.AttemptStore
	if cfg.Redis.Enabled {
		redisClient, err := redisinfra.NewClient(cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()

		attempts = redisinfra.NewAttemptStore(redisClient, ip_limit.Policy{
			MaxAttempts:   cfg.RateLimit.MaxAttempts,
			BlockDuration: cfg.RateLimit.BlockDuration,
		})
	} else {
		log.Println("Redis is disabled, IP rate limiting is off")
	}

	// リポジトリとトランザクションマネージャーの初期化
	cardRepo := mysql.NewCardCodeRepository(db)
	txManager := mysql.NewTransactionManager(db)

	// アプリケーションサービスの初期化
	verificationService := verifyapp.NewVerificationApplicationService(
		cardRepo,
		attempts,
		txManager,
		logger,
		metrics,
		tracer,
	)

	adminService := adminapp.NewAdministrationApplicationService(
		cardRepo,
		cfg.Admin.Password,
		logger,
		metrics,
		tracer,
	)

	// REST APIルーターの初期化
	router, err := rest.NewRouter(
		cfg,
		logger,
		metrics,
		verificationService,
		adminService,
	)
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}

	// サーバーアドレスの設定
	address := fmt.Sprintf(":%d", cfg.Server.Port)

	// グレースフルシャットダウンの設定
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	// REST APIサーバーを別ゴルーチンで起動
	go func() {
		log.Printf("REST API server starting on %s", address)
		if err := router.Start(address); err != nil {
			log.Printf("REST API server error: %v", err)
		}
	}()

	// シグナルを待機
	<-quit
	log.Println("Shutting down server...")

	if err := router.Shutdown(); err != nil {
		log.Printf("Error shutting down REST API server: %v", err)
	}

	log.Println("Server stopped")
}
