// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/civiclens/internal/adapter"
	"github.com/hitoshi/civiclens/internal/cache"
	"github.com/hitoshi/civiclens/internal/config"
	"github.com/hitoshi/civiclens/internal/database"
	"github.com/hitoshi/civiclens/internal/handler"
	"github.com/hitoshi/civiclens/internal/ingest"
	"github.com/hitoshi/civiclens/internal/issue"
	"github.com/hitoshi/civiclens/internal/logger"
	"github.com/hitoshi/civiclens/internal/metrics"
	"github.com/hitoshi/civiclens/internal/middleware"
	"github.com/hitoshi/civiclens/internal/repository"
	"github.com/hitoshi/civiclens/internal/security"
	"github.com/hitoshi/civiclens/internal/worker/collect"
	"github.com/hitoshi/civiclens/internal/worker/retention"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// pipeline は収集パイプラインの構成要素一式。serveとworkerで共有する。
type pipeline struct {
	issueRepo  repository.IssueRepository
	layerCache *cache.LayersCache
	builder    *adapter.CivicLayersBuilder
	collector  *collect.Collector
	scheduler  *collect.Scheduler
	retention  *retention.RetentionJob
	registry   *prometheus.Registry
	closeDB    func() error
}

// buildPipeline は収集パイプラインの全依存関係をワイヤリングする。
// DATABASE_URLが設定されている場合はPostgreSQL、未設定の場合はメモリストアを使う。
func buildPipeline(cfg *config.Config) (*pipeline, error) {
	log := slog.Default()

	// 1. リポジトリの選択
	var (
		issueRepo repository.IssueRepository
		closeDB   = func() error { return nil }
	)
	if cfg.DatabaseURL != "" {
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("database connection established")
		issueRepo = repository.NewPostgresIssueRepo(db)
		closeDB = db.Close
	} else {
		slog.Info("using in-memory issue store")
		issueRepo = repository.NewMemoryIssueRepo()
	}

	// 2. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collectorMetrics := metrics.NewCollector(registry)

	// 3. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewSummarySanitizer()

	// 4. アダプタの初期化
	newsAdapter := adapter.NewNewsAdapter(
		adapter.DefaultNewsSources(), ssrfGuard, sanitizer,
		log, cfg.FetchTimeout, cfg.FetchMaxSize, cfg.FetchMaxConcurrent,
	)
	govRecords := adapter.NewGovRecordsAdapter()
	airQuality := adapter.NewAirQualityClient(
		ssrfGuard.NewSafeClient(cfg.FetchTimeout, cfg.FetchMaxSize),
		log, cfg.WAQIToken,
	)
	builder := adapter.NewCivicLayersBuilder(airQuality)

	// 5. 収集パイプラインの初期化
	layerCache := cache.NewLayersCache()
	normalizer := ingest.NewNormalizer(log)
	upserter := ingest.NewIssueUpsertService(issueRepo)
	collector := collect.NewCollector(
		newsAdapter, govRecords, builder,
		normalizer, upserter, layerCache, collectorMetrics, log,
	)

	return &pipeline{
		issueRepo:  issueRepo,
		layerCache: layerCache,
		builder:    builder,
		collector:  collector,
		scheduler:  collect.NewScheduler(collector, log),
		retention:  retention.NewRetentionJob(issueRepo, log, cfg.RetentionDays),
		registry:   registry,
		closeDB:    closeDB,
	}, nil
}

// runServe はAPIサーバーモードで起動する。
// 収集スケジューラと保持ジョブをバックグラウンドで実行しながらHTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.closeDB()

	// バックグラウンドジョブの起動
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go p.scheduler.Start(ctx, cfg.CollectInterval)
	go p.retention.Start(ctx)

	// ルーターの構築
	rateLimiter := middleware.NewRateLimiter(rateLimiterConfig(cfg))
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),

		IssueService: issue.NewService(p.issueRepo),
		LiveWindow:   cfg.LiveWindow,
		PushInterval: cfg.LivePushInterval,

		LayerCache:    p.layerCache,
		LayersBuilder: p.builder,
		Refresher:     p.collector,

		HealthChecker: p.issueRepo,
		Gatherer:      p.registry,
	}

	router := handler.NewRouter(deps)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// HTTPサーバーなしで収集スケジューラと保持ジョブのみを実行する。
// 複数レプリカ構成でAPIサーバーと収集を分離する場合に使用する。
func runWorker(cfg *config.Config) error {
	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.closeDB()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("collect_interval", cfg.CollectInterval),
		slog.Int("retention_days", cfg.RetentionDays),
	)

	// 保持ジョブをバックグラウンドで起動
	go p.retention.Start(ctx)

	// 収集スケジューラをメインgoroutineで実行（ブロッキング）
	p.scheduler.Start(ctx, cfg.CollectInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for migrate")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// rateLimiterConfig はConfigのreq/min設定からレートリミッター設定を組み立てる。
func rateLimiterConfig(cfg *config.Config) middleware.RateLimiterConfig {
	c := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		c.GeneralRate = middleware.PerMinute(cfg.RateLimitGeneral)
		c.GeneralBurst = cfg.RateLimitGeneral
	}
	if cfg.RateLimitRefresh > 0 {
		c.RefreshRate = middleware.PerMinute(cfg.RateLimitRefresh)
		c.RefreshBurst = cfg.RateLimitRefresh
	}
	return c
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
