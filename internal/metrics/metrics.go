// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 収集ワーカーやサービス層から利用する。
type MetricsCollector interface {
	RecordCycleSuccess()
	RecordCycleFailure()
	RecordCycleDuration(duration time.Duration)
	RecordAdapterFailure(source string)
	RecordRecordsDropped(count int)
	RecordIssuesInserted(count int)
	RecordIssuesUpdated(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	cycleSuccess   prometheus.Counter
	cycleFail      prometheus.Counter
	cycleDuration  prometheus.Histogram
	adapterFail    *prometheus.CounterVec
	recordsDropped prometheus.Counter
	issuesInserted prometheus.Counter
	issuesUpdated  prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cycleSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "civiclens_collect_cycle_success_total",
			Help: "収集サイクル成功の合計数",
		}),
		cycleFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "civiclens_collect_cycle_fail_total",
			Help: "収集サイクル失敗の合計数",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "civiclens_collect_cycle_duration_seconds",
			Help:    "収集サイクルの所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		adapterFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "civiclens_adapter_fail_total",
			Help: "データソース別のアダプタ失敗数",
		}, []string{"source"}),
		recordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "civiclens_records_dropped_total",
			Help: "正規化で破棄された不正レコードの合計数",
		}),
		issuesInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "civiclens_issues_inserted_total",
			Help: "新規挿入されたIssueの合計数",
		}),
		issuesUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "civiclens_issues_updated_total",
			Help: "更新された既存Issueの合計数",
		}),
	}

	reg.MustRegister(
		c.cycleSuccess,
		c.cycleFail,
		c.cycleDuration,
		c.adapterFail,
		c.recordsDropped,
		c.issuesInserted,
		c.issuesUpdated,
	)

	return c
}

// RecordCycleSuccess は収集サイクルの成功を記録する。
func (c *Collector) RecordCycleSuccess() {
	c.cycleSuccess.Inc()
}

// RecordCycleFailure は収集サイクルの失敗を記録する。
func (c *Collector) RecordCycleFailure() {
	c.cycleFail.Inc()
}

// RecordCycleDuration は収集サイクルの所要時間を記録する。
func (c *Collector) RecordCycleDuration(duration time.Duration) {
	c.cycleDuration.Observe(duration.Seconds())
}

// RecordAdapterFailure はデータソース別のアダプタ失敗を記録する。
func (c *Collector) RecordAdapterFailure(source string) {
	c.adapterFail.WithLabelValues(source).Inc()
}

// RecordRecordsDropped は正規化で破棄されたレコード数を記録する。
func (c *Collector) RecordRecordsDropped(count int) {
	c.recordsDropped.Add(float64(count))
}

// RecordIssuesInserted は新規挿入されたIssue数を記録する。
func (c *Collector) RecordIssuesInserted(count int) {
	c.issuesInserted.Add(float64(count))
}

// RecordIssuesUpdated は更新されたIssue数を記録する。
func (c *Collector) RecordIssuesUpdated(count int) {
	c.issuesUpdated.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
