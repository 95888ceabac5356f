// Package collect は市民データの収集サイクル処理を提供する。
// アダプタのファンアウト、グルーピング、正規化、UPSERT、
// レイヤーキャッシュの差し替えまでを1サイクルとして実行する。
package collect

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/civiclens/internal/adapter"
	"github.com/hitoshi/civiclens/internal/cache"
	"github.com/hitoshi/civiclens/internal/ingest"
	"github.com/hitoshi/civiclens/internal/metrics"
	"github.com/hitoshi/civiclens/internal/model"
)

// NewsFetcher はニュースアダプタのインターフェース。
type NewsFetcher interface {
	Fetch(ctx context.Context) ([]model.RawNewsItem, error)
}

// GovRecordsFetcher は公共記録アダプタのインターフェース。
type GovRecordsFetcher interface {
	FetchCourtCases(ctx context.Context) ([]model.RawCourtCase, error)
	FetchCrimeReports(ctx context.Context) ([]model.RawCrimeReport, error)
	FetchInfraProjects(ctx context.Context) ([]model.RawInfraProject, error)
}

// LayersBuilder は地図レイヤー構築のインターフェース。
type LayersBuilder interface {
	Build(ctx context.Context) model.CivicLayers
}

// Collector は収集サイクル1回分の処理を実行する。
// ソース単位の失敗はそのソースを空として扱い、サイクル全体を失敗させない。
type Collector struct {
	news       NewsFetcher
	govRecords GovRecordsFetcher
	layers     LayersBuilder
	normalizer *ingest.Normalizer
	upserter   *ingest.IssueUpsertService
	layerCache *cache.LayersCache
	collector  metrics.MetricsCollector
	logger     *slog.Logger
}

// NewCollector はCollectorの新しいインスタンスを生成する。
func NewCollector(
	news NewsFetcher,
	govRecords GovRecordsFetcher,
	layers LayersBuilder,
	normalizer *ingest.Normalizer,
	upserter *ingest.IssueUpsertService,
	layerCache *cache.LayersCache,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Collector {
	return &Collector{
		news:       news,
		govRecords: govRecords,
		layers:     layers,
		normalizer: normalizer,
		upserter:   upserter,
		layerCache: layerCache,
		collector:  collector,
		logger:     logger,
	}
}

// RunCycle は収集サイクルを1回実行する。
// 全ソースをファンアウトでフェッチし、グルーピングと正規化を経て
// IssueをUPSERTし、最後にレイヤーキャッシュを差し替える。
// UPSERT失敗のみをエラーとして返す（ソース失敗は空扱い）。
func (c *Collector) RunCycle(ctx context.Context) error {
	start := time.Now()
	c.logger.Info("収集サイクルを開始します")

	var (
		wg          sync.WaitGroup
		newsItems   []model.RawNewsItem
		courtCases  []model.RawCourtCase
		crimes      []model.RawCrimeReport
		projects    []model.RawInfraProject
		civicLayers model.CivicLayers
	)

	wg.Add(5)
	go func() {
		defer wg.Done()
		newsItems = c.fetchNews(ctx)
	}()
	go func() {
		defer wg.Done()
		var err error
		courtCases, err = c.govRecords.FetchCourtCases(ctx)
		if err != nil {
			c.recordSourceFailure(ctx, "court_cases", err)
			courtCases = nil
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		crimes, err = c.govRecords.FetchCrimeReports(ctx)
		if err != nil {
			c.recordSourceFailure(ctx, "crime_reports", err)
			crimes = nil
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		projects, err = c.govRecords.FetchInfraProjects(ctx)
		if err != nil {
			c.recordSourceFailure(ctx, "infra_projects", err)
			projects = nil
		}
	}()
	go func() {
		defer wg.Done()
		civicLayers = c.layers.Build(ctx)
	}()
	wg.Wait()

	stories := ingest.GroupStories(newsItems)

	issues, dropped := c.normalizer.NormalizeBatch(ingest.Batch{
		Stories:    stories,
		CourtCases: courtCases,
		Crimes:     crimes,
		Projects:   projects,
	})
	if dropped > 0 {
		c.collector.RecordRecordsDropped(dropped)
	}

	inserted, updated, err := c.upserter.UpsertIssues(ctx, issues)
	if err != nil {
		c.collector.RecordCycleFailure()
		c.logger.Error("収集サイクルがUPSERTで失敗しました",
			slog.String("error", err.Error()),
		)
		return err
	}

	c.collector.RecordIssuesInserted(inserted)
	c.collector.RecordIssuesUpdated(updated)

	// レイヤーはIssueと独立したスナップショットとしてまるごと差し替える
	c.layerCache.Set(civicLayers)

	duration := time.Since(start)
	c.collector.RecordCycleSuccess()
	c.collector.RecordCycleDuration(duration)

	c.logger.Info("収集サイクルが完了しました",
		slog.Int("news_items", len(newsItems)),
		slog.Int("stories", len(stories)),
		slog.Int("issues", len(issues)),
		slog.Int("inserted", inserted),
		slog.Int("updated", updated),
		slog.Int("dropped", dropped),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// fetchNews はニュースアダプタを実行する。失敗時は空リストを返す。
func (c *Collector) fetchNews(ctx context.Context) []model.RawNewsItem {
	items, err := c.news.Fetch(ctx)
	if err != nil {
		c.recordSourceFailure(ctx, "news", err)
		return nil
	}
	return items
}

// recordSourceFailure はソース単位の失敗をログとメトリクスに記録する。
func (c *Collector) recordSourceFailure(ctx context.Context, source string, err error) {
	c.collector.RecordAdapterFailure(source)
	c.logger.Error("データソースのフェッチに失敗したため空として扱います",
		slog.String("source", source),
		slog.String("error", err.Error()),
	)
}

// アダプタ実装がインターフェースを満たすことをコンパイル時に保証する
var (
	_ NewsFetcher       = (*adapter.NewsAdapter)(nil)
	_ GovRecordsFetcher = (*adapter.GovRecordsAdapter)(nil)
	_ LayersBuilder     = (*adapter.CivicLayersBuilder)(nil)
)
