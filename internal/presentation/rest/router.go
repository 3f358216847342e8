package rest

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	adminapp "card-server/internal/application/administration"
	verifyapp "card-server/internal/application/verification"
	"card-server/internal/infrastructure/config"
	otelinfra "card-server/internal/infrastructure/observability/otel"
	"card-server/internal/presentation/rest/handler"
	restmiddleware "card-server/internal/presentation/rest/middleware"
)

// Router REST APIルーター
type Router struct {
	echo                *echo.Echo
	verificationHandler *handler.CardVerificationHandler
	adminHandler        *handler.CardAdminHandler
}

// NewRouter 新しいRouterを作成
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	verificationService *verifyapp.VerificationApplicationService,
	adminService *adminapp.AdministrationApplicationService,
) (*Router, error) {
	e := echo.New()

	// Echoのデフォルトエラーハンドラーを無効化（カスタムエラーハンドラーを使用）
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		// エラーハンドリングミドルウェアで処理される
	}

	// ミドルウェアの設定
	setupMiddleware(e, logger, metrics)

	// ハンドラーの作成
	verificationHandler := handler.NewCardVerificationHandler(verificationService)
	adminHandler := handler.NewCardAdminHandler(adminService)

	// ルーティングの設定
	setupRoutes(e, cfg, logger, verificationHandler, adminHandler)

	// Swagger UI / ReDoc統合
	SetupSwagger(e)

	return &Router{
		echo:                e,
		verificationHandler: verificationHandler,
		adminHandler:        adminHandler,
	}, nil
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	// リカバリーミドルウェア
	e.Use(middleware.Recover())

	// CORS設定
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"}, // 本番環境では適切に設定
		AllowMethods: []string{echo.GET, echo.POST, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, "X-Admin-Token"},
	}))

	// リクエストIDの設定
	e.Use(middleware.RequestID())

	// セキュリティヘッダー
	e.Use(restmiddleware.SecurityHeadersMiddleware())

	// トレーシングミドルウェア
	e.Use(restmiddleware.TracingMiddleware())

	// ログミドルウェア
	e.Use(restmiddleware.LoggingMiddleware(logger))

	// メトリクスミドルウェア
	e.Use(restmiddleware.MetricsMiddleware(metrics))

	// エラーハンドリングミドルウェア
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func setupRoutes(
	e *echo.Echo,
	cfg *config.Config,
	logger *otelinfra.Logger,
	verificationHandler *handler.CardVerificationHandler,
	adminHandler *handler.CardAdminHandler,
) {
	// API v1グループ
	api := e.Group("/api/v1")

	// カード券引き換えエンドポイント（認証不要、IPレート制限あり）
	api.POST("/verify", verificationHandler.Verify)

	// 管理者認証エンドポイント
	api.POST("/admin/auth", adminHandler.Authenticate)

	// 管理エンドポイント（X-Admin-Token認証が必要）
	adminGroup := api.Group("/admin", restmiddleware.AdminSecretMiddleware(&cfg.Admin, logger))
	adminGroup.GET("/cards", adminHandler.ListCards)
	adminGroup.POST("/cards", adminHandler.CreateCards)
	adminGroup.DELETE("/cards", adminHandler.DeleteCard)

	// ヘルスチェックエンドポイント（認証不要）
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
}

// Start サーバーを起動
func (r *Router) Start(address string) error {
	return r.echo.Start(address)
}

// Shutdown サーバーをシャットダウン
func (r *Router) Shutdown() error {
	return r.echo.Close()
}
