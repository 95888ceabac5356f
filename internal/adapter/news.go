// Package adapter は外部データソースのフェッチとレコード整形を提供する。
// 各アダプタの契約は「完全なレコードのリストを返すか、ログを残して空を返す」であり、
// 必須フィールドの欠けたレコードを下流に流さない。
package adapter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/civiclens/internal/location"
	"github.com/hitoshi/civiclens/internal/model"
	"github.com/hitoshi/civiclens/internal/security"
)

// maxItemsPerSource は1媒体あたりの取り込み記事数の上限。
const maxItemsPerSource = 20

// maxSummaryLen は要約の最大文字数。超過分は切り詰められる。
const maxSummaryLen = 200

// NewsSource はニュースRSSフィードの1媒体分の設定。
type NewsSource struct {
	Key  string
	Name string
	URL  string
}

// DefaultNewsSources は既定のニュース媒体一覧を返す。
func DefaultNewsSources() []NewsSource {
	return []NewsSource{
		{Key: "hindu", Name: "The Hindu", URL: "https://www.thehindu.com/news/national/feeder/default.rss"},
		{Key: "indian_express", Name: "Indian Express", URL: "https://indianexpress.com/feed/"},
		{Key: "hindustan_times", Name: "Hindustan Times", URL: "https://www.hindustantimes.com/feeds/rss/india-news/rssfeed.xml"},
	}
}

// newsCategories はカテゴリ判定のキーワードテーブル。上から順に評価される。
var newsCategories = []struct {
	name     string
	keywords []string
}{
	{"legal", []string{"court", "supreme", "high court", "verdict", "petition", "case", "judge"}},
	{"health", []string{"disease", "hospital", "doctor", "vaccine", "outbreak", "health"}},
	{"infrastructure", []string{"road", "bridge", "construction", "metro", "highway", "building"}},
	{"crime", []string{"police", "fir", "arrest", "crime", "murder", "theft"}},
	{"governance", []string{"policy", "government", "minister", "election", "bill", "parliament"}},
}

// CategorizeNews はタイトルと要約のテキストからニュースカテゴリを判定する。
// どのキーワードにもマッチしない場合は"general"を返す。
func CategorizeNews(text string) string {
	lower := strings.ToLower(text)
	for _, cat := range newsCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				return cat.name
			}
		}
	}
	return "general"
}

// NewsAdapter は複数のRSSフィードからニュース記事を収集する。
// 媒体ごとのフェッチは並行実行され、個々の失敗はログを残してスキップされる。
type NewsAdapter struct {
	sources       []NewsSource
	client        *http.Client
	sanitizer     security.SummarySanitizerService
	logger        *slog.Logger
	maxBodySize   int64
	maxConcurrent int
	health        *sourceHealth
	now           func() time.Time
}

// NewNewsAdapter はNewsAdapterの新しいインスタンスを生成する。
// HTTPクライアントはSSRF防止付きのものを生成して使用する。
func NewNewsAdapter(
	sources []NewsSource,
	ssrfGuard security.SSRFGuardService,
	sanitizer security.SummarySanitizerService,
	logger *slog.Logger,
	timeout time.Duration,
	maxBodySize int64,
	maxConcurrent int,
) *NewsAdapter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &NewsAdapter{
		sources:       sources,
		client:        ssrfGuard.NewSafeClient(timeout, maxBodySize),
		sanitizer:     sanitizer,
		logger:        logger,
		maxBodySize:   maxBodySize,
		maxConcurrent: maxConcurrent,
		health:        newSourceHealth(),
		now:           time.Now,
	}
}

// Fetch は全媒体からニュース記事を収集して返す。
// 媒体単位の失敗はその媒体を空として扱い、全体を失敗させない。
// 連続して失敗している媒体は指数バックオフの期間中スキップされる。
// 同時フェッチ数はセマフォでmaxConcurrentに制限される。
// 戻り値は媒体設定の順に連結され、入力順は呼び出しごとに安定している。
func (a *NewsAdapter) Fetch(ctx context.Context) ([]model.RawNewsItem, error) {
	results := make([][]model.RawNewsItem, len(a.sources))
	sem := make(chan struct{}, a.maxConcurrent)
	var wg sync.WaitGroup

	for i, src := range a.sources {
		if a.health.ShouldSkip(src.Key, a.now()) {
			a.logger.Info("バックオフ期間中のためニュースフィードをスキップします",
				slog.String("source", src.Key),
			)
			continue
		}

		wg.Add(1)
		go func(idx int, source NewsSource) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			items, statusCode, err := a.fetchSource(ctx, source)
			if err != nil {
				next := a.health.ApplyFailure(source.Key, statusCode, a.now())
				a.logger.Error("ニュースフィードのフェッチに失敗しました",
					slog.String("source", source.Key),
					slog.String("url", source.URL),
					slog.String("error", err.Error()),
					slog.Time("next_fetch_at", next),
				)
				return
			}
			a.health.ApplySuccess(source.Key)
			results[idx] = items
		}(i, src)
	}

	wg.Wait()

	all := make([]model.RawNewsItem, 0, len(a.sources)*maxItemsPerSource)
	for _, items := range results {
		all = append(all, items...)
	}
	return all, nil
}

// fetchSource は1媒体分のRSSフィードを取得しパースする。
// エラー時はバックオフ分類のためにHTTPステータスコードを併せて返す
// （レスポンス到達前のエラーでは0）。
func (a *NewsAdapter) fetchSource(ctx context.Context, src NewsSource) ([]model.RawNewsItem, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("User-Agent", "Civiclens/1.0 Civic Data Aggregator")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTPリクエスト失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("HTTPステータス %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, a.maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("レスポンス読み取り失敗: %w", err)
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("フィードのパースに失敗: %w", err)
	}

	return a.convertFeedItems(src, feed.Items), resp.StatusCode, nil
}

// convertFeedItems はgofeedの記事をRawNewsItemに変換する。
// カテゴリと地域はタイトル+要約のテキストから判定する。
func (a *NewsAdapter) convertFeedItems(src NewsSource, items []*gofeed.Item) []model.RawNewsItem {
	out := make([]model.RawNewsItem, 0, maxItemsPerSource)

	for _, item := range items {
		if item == nil {
			continue
		}
		if len(out) == maxItemsPerSource {
			break
		}

		summary := a.sanitizer.Sanitize(item.Description)
		if runes := []rune(summary); len(runes) > maxSummaryLen {
			summary = string(runes[:maxSummaryLen])
		}

		classifyText := item.Title + " " + summary

		published := a.now()
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}

		out = append(out, model.RawNewsItem{
			Title:     item.Title,
			Summary:   summary,
			Link:      item.Link,
			Source:    src.Name,
			Category:  CategorizeNews(classifyText),
			Location:  location.ExtractFromText(classifyText),
			Published: published,
		})
	}

	return out
}
