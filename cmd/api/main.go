package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Arjit20/Cine-Book/internal/api"
	"github.com/Arjit20/Cine-Book/internal/api/handler"
	custommw "github.com/Arjit20/Cine-Book/internal/api/middleware"
	"github.com/Arjit20/Cine-Book/internal/application"
	"github.com/Arjit20/Cine-Book/internal/config"
	"github.com/Arjit20/Cine-Book/internal/infrastructure/postgres"
	redisinfra "github.com/Arjit20/Cine-Book/internal/infrastructure/redis"
	"github.com/Arjit20/Cine-Book/internal/notification"
	"github.com/Arjit20/Cine-Book/internal/pkg/logger"
	"github.com/Arjit20/Cine-Book/internal/pkg/metrics"
	"github.com/Arjit20/Cine-Book/internal/realtime"
	"github.com/Arjit20/Cine-Book/internal/worker"
)

func main() {
	// 設定読み込み
	cfg := config.Load()

	// ロガー初期化
	logger.Set(logger.NewLogger(cfg.Server.Env))
	defer logger.Sync()

	// メトリクス初期化
	m := metrics.Init()

	// データベース接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗しました", zap.Error(err))
	}
	defer db.Close()

	// マイグレーション実行
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}
	if err := postgres.RunMigrations(db.DB, migrationsPath); err != nil {
		logger.Fatal("マイグレーションに失敗しました", zap.Error(err))
	}

	// リポジトリ
	txManager := postgres.NewTxManager(db)
	showRepo := postgres.NewShowRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)

	// 配信ハブ
	hub := realtime.NewShowHub()
	hub.SetOnChange(func(sessions int) {
		m.ActiveSessions.Set(float64(sessions))
	})

	// Redis（任意）: 分散ロック・空席数キャッシュ・インスタンス間イベント中継
	var (
		publisher   realtime.Publisher = hub
		lockManager *redisinfra.LockManager
		seatCache   *redisinfra.SeatCache
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient := redisinfra.NewClient(&cfg.Redis)
	if err := redisinfra.Ping(ctx, redisClient); err != nil {
		logger.Warn("Redis接続に失敗、ローカルモードで継続します", zap.Error(err))
		redisClient = nil
	} else {
		lockManager = redisinfra.NewLockManager(redisClient)
		seatCache = redisinfra.NewSeatCache(redisClient)
		bridge := redisinfra.NewEventBridge(redisClient, hub)
		publisher = bridge
		go func() {
			if err := bridge.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("イベント中継が停止しました", zap.Error(err))
			}
		}()
	}

	// 通知（AMQP URLが設定されている場合のみ）
	var notifier notification.Notifier = notification.NopNotifier{}
	if cfg.AMQP.URL != "" {
		notifier = notification.NewAMQPNotifier(cfg.AMQP.URL, cfg.AMQP.Queue)
	}

	// サービス
	// nilポインタをインターフェースに入れると非nil扱いになるため明示的に分岐する
	var cacheInvalidator application.SeatCacheInvalidator
	if seatCache != nil {
		cacheInvalidator = seatCache
	}
	holdService := application.NewHoldService(showRepo, publisher, cfg.Hold.TTL)
	showService := application.NewShowService(txManager, showRepo, holdService, seatCache)
	bookingService := application.NewBookingService(
		txManager, bookingRepo, showRepo, holdService,
		lockManager, publisher, notifier, cacheInvalidator,
	)

	// 切断したビューワーの保留を解放する
	hub.SetCleanup(func(showID, viewerID string) {
		holdService.ReleaseViewer(context.Background(), showID, viewerID)
	})

	// 期限切れ保留のスイーパー
	sweeper := worker.NewExpiredHoldSweeper(holdService, cfg.Hold.SweepInterval)
	go sweeper.Start(ctx)

	// Echo セットアップ
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	custommw.SetupMiddleware(e)
	e.Use(custommw.PrometheusMiddleware(m))

	// ハンドラー
	showHandler := handler.NewShowHandler(showService)
	holdHandler := handler.NewHoldHandler(holdService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	streamHandler := handler.NewStreamHandler(hub, showService)
	healthHandler := handler.NewHealthHandler(db)

	// ルーティング
	e.GET("/health", healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), custommw.MetricsBasicAuth())

	v1 := e.Group("/api/v1")
	v1.POST("/shows", showHandler.Create)
	v1.GET("/shows", showHandler.List)
	v1.GET("/shows/:id", showHandler.GetByID)
	v1.GET("/shows/:id/seats", showHandler.SeatMap)
	v1.GET("/shows/:id/seats/count", showHandler.CountAvailable)
	v1.POST("/shows/:id/holds", holdHandler.Request)
	v1.DELETE("/shows/:id/holds", holdHandler.Release)
	v1.GET("/shows/:id/stream", streamHandler.Stream)
	v1.POST("/bookings", bookingHandler.Create)
	v1.GET("/bookings", bookingHandler.ListMine)
	v1.GET("/bookings/:ticket_id", bookingHandler.GetByTicketID)
	v1.POST("/bookings/:ticket_id/cancel", bookingHandler.Cancel)
	v1.POST("/bookings/:ticket_id/payment", bookingHandler.RecordPayment)

	// サーバー起動
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("サーバーを起動します", zap.String("addr", addr), zap.String("env", cfg.Server.Env))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	// SSE購読とスイーパーを停止してからHTTPを閉じる
	cancel()
	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("サーバーシャットダウンエラー", zap.Error(err))
	}

	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
