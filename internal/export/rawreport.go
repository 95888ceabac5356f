package export

import (
	"time"

	"github.com/hitoshi/civiclens/internal/adapter"
)

// RawSourcesReport は生データソースの到達性レポート。
// どのデータが実測でどのデータが統計ベースかをJSONで開示する。
type RawSourcesReport struct {
	GeneratedAt  time.Time             `json:"generated_at"`
	Stations     []adapter.StationInfo `json:"air_quality_real_stations"`
	Sources      []adapter.DataSource  `json:"data_sources"`
	Transparency string                `json:"transparency_note"`
}

// BuildRawSourcesReport は到達性レポートを生成する。
// 観測局一覧とソース別のアクセス可否を含み、外部APIへのアクセスは行わない。
func BuildRawSourcesReport(now time.Time) RawSourcesReport {
	return RawSourcesReport{
		GeneratedAt:  now,
		Stations:     adapter.AirQualityStations(),
		Sources:      adapter.DataSources(),
		Transparency: "インドの市民データAPIの多くは公式認可が必要です。リアルタイム実測は大気質（WAQI）とニュースRSSのみで、その他のレイヤーは公開統計に基づく値です。",
	}
}
