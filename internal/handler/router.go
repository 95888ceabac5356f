package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/civiclens/internal/cache"
	"github.com/hitoshi/civiclens/internal/metrics"
	"github.com/hitoshi/civiclens/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// Issue照会
	IssueService IssueServiceInterface
	LiveWindow   time.Duration
	PushInterval time.Duration

	// 市民データレイヤー
	LayerCache    *cache.LayersCache
	LayersBuilder LayersBuilderInterface
	Refresher     RefreshRunner

	// 監視
	HealthChecker HealthChecker
	Gatherer      prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → CORS → SecurityHeaders → RateLimit(General)
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	issueHandler := NewIssueHandler(deps.IssueService, deps.LiveWindow)
	civicHandler := NewCivicHandler(deps.LayerCache, deps.LayersBuilder, deps.Refresher)
	exportHandler := NewExportHandler(civicHandler)
	liveHandler := NewLiveHandler(deps.IssueService, deps.PushInterval, deps.Logger)
	healthHandler := NewHealthHandler(deps.HealthChecker)

	// --- 監視ルート（レート制限なし） ---
	r.Get("/health", healthHandler.Health)
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))

	// --- APIルート ---
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/issues", func(r chi.Router) {
			r.Get("/", issueHandler.ListIssues)
			r.Get("/summary", issueHandler.GetSummary)
			r.Get("/live", issueHandler.LiveUpdates)
			r.Get("/live/ws", liveHandler.ServeHTTP)
			r.Get("/{id}", issueHandler.GetIssue)
		})

		r.Route("/api/civic", func(r chi.Router) {
			r.Get("/layers", civicHandler.GetLayers)
			r.Get("/layers/{name}", civicHandler.GetLayer)
			r.Get("/areas/{area}", civicHandler.GetArea)
			r.Get("/map-data", civicHandler.GetMapData)
			r.Get("/bounds", civicHandler.GetBounds)
			r.Get("/sources", civicHandler.GetSources)

			// リフレッシュは収集サイクルを起動するため専用のレート制限を重ねる
			r.With(deps.RateLimiter.RefreshMiddleware()).Post("/refresh", civicHandler.Refresh)
		})

		r.Get("/api/regions", civicHandler.GetRegions)

		r.Route("/api/export", func(r chi.Router) {
			r.Get("/incidents.csv", exportHandler.DownloadIncidentsCSV)
			r.Get("/civic.csv", exportHandler.DownloadAllDataCSV)
			r.Get("/raw-sources.json", exportHandler.DownloadRawSources)
		})
	})

	return r
}
