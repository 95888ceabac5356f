// Package export はCSV/JSON形式でのデータエクスポートを提供する。
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hitoshi/civiclens/internal/model"
)

// incidentColumns は事件CSVの列定義。列順は外部利用者との契約であり変更しない。
var incidentColumns = []string{
	"fir_number", "type", "area", "what", "when", "who",
	"officer", "status", "source", "last_updated",
}

// IncidentFilter は事件CSVの絞り込み条件。空文字列は条件なしとして扱う。
// 比較は大文字小文字を区別しない。
type IncidentFilter struct {
	Area         string
	IncidentType string
}

// BuildIncidentsCSV は犯罪レイヤーの最新事案をCSVに整形して返す。
// 戻り値はファイル名とCSV本文。絞り込みの結果0件でもヘッダ行だけのCSVを返す。
func BuildIncidentsCSV(layers model.CivicLayers, filter IncidentFilter, now time.Time) (string, []byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(incidentColumns); err != nil {
		return "", nil, fmt.Errorf("CSVヘッダの書き込みに失敗: %w", err)
	}

	lastUpdated := layers.LastUpdated.Format(time.RFC3339)

	for _, area := range sortedAreaNames(layers.CrimeStats.Areas) {
		if filter.Area != "" && !strings.EqualFold(filter.Area, area) {
			continue
		}
		for _, incident := range layers.CrimeStats.Areas[area].RecentIncidents {
			if filter.IncidentType != "" && !strings.EqualFold(filter.IncidentType, incident.Type) {
				continue
			}
			row := []string{
				incident.FIRNumber,
				incident.Type,
				area,
				incident.What,
				incident.When,
				incident.Who,
				incident.Officer,
				incident.Status,
				"Karnataka Police FIR Database",
				lastUpdated,
			}
			if err := w.Write(row); err != nil {
				return "", nil, fmt.Errorf("CSV行の書き込みに失敗: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", nil, fmt.Errorf("CSVの書き出しに失敗: %w", err)
	}

	return incidentsFilename(filter, now), buf.Bytes(), nil
}

// incidentsFilename は絞り込み条件と日付を含むダウンロードファイル名を生成する。
func incidentsFilename(filter IncidentFilter, now time.Time) string {
	parts := []string{"bangalore-incidents-source"}
	if filter.Area != "" {
		parts = append(parts, slugify(filter.Area))
	}
	if filter.IncidentType != "" {
		parts = append(parts, slugify(filter.IncidentType))
	}
	parts = append(parts, now.Format("2006-01-02"))
	return strings.Join(parts, "_") + ".csv"
}

// allDataColumns は全レイヤーCSVの列定義。
// レイヤー固有の列は該当しない行では空欄になる。
var allDataColumns = []string{
	"data_type", "area", "source", "coordinates", "last_updated",
	"aqi", "status", "station_name",
	"safety_score", "crime_rate", "patrol_frequency", "police_station",
	"quality_index", "ph_level", "turbidity", "monitoring_station",
	"metro_access", "bus_routes", "connectivity_score",
	"power_status", "water_status",
}

// BuildAllDataCSV は全レイヤーのエリア別データを1枚のCSVに整形して返す。
// 行順はレイヤー順（大気質→犯罪→インフラ→水質→交通）、
// 各レイヤー内はエリア名の昇順で安定している。
func BuildAllDataCSV(layers model.CivicLayers, now time.Time) (string, []byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(allDataColumns); err != nil {
		return "", nil, fmt.Errorf("CSVヘッダの書き込みに失敗: %w", err)
	}

	lastUpdated := layers.LastUpdated.Format(time.RFC3339)

	writeRow := func(cells map[string]string) error {
		row := make([]string, len(allDataColumns))
		for i, col := range allDataColumns {
			row[i] = cells[col]
		}
		return w.Write(row)
	}

	for _, area := range sortedAreaNames(layers.AirQuality.Areas) {
		data := layers.AirQuality.Areas[area]
		if err := writeRow(map[string]string{
			"data_type":    "air_quality",
			"area":         area,
			"source":       layers.AirQuality.Source,
			"coordinates":  formatCoordinates(data.Coordinates),
			"last_updated": lastUpdated,
			"aqi":          fmt.Sprintf("%d", data.AQI),
			"status":       data.Status,
			"station_name": data.StationName,
		}); err != nil {
			return "", nil, fmt.Errorf("CSV行の書き込みに失敗: %w", err)
		}
	}

	for _, area := range sortedAreaNames(layers.CrimeStats.Areas) {
		data := layers.CrimeStats.Areas[area]
		if err := writeRow(map[string]string{
			"data_type":        "crime_stats",
			"area":             area,
			"source":           layers.CrimeStats.Source,
			"coordinates":      formatCoordinates(data.Coordinates),
			"last_updated":     lastUpdated,
			"safety_score":     formatFloat(data.SafetyScore),
			"crime_rate":       data.CrimeRate,
			"patrol_frequency": data.PatrolFrequency,
			"police_station":   data.PoliceStation,
		}); err != nil {
			return "", nil, fmt.Errorf("CSV行の書き込みに失敗: %w", err)
		}
	}

	for _, area := range sortedAreaNames(layers.Infrastructure.Areas) {
		data := layers.Infrastructure.Areas[area]
		if err := writeRow(map[string]string{
			"data_type":    "infrastructure",
			"area":         area,
			"source":       layers.Infrastructure.Source,
			"coordinates":  formatCoordinates(data.Coordinates),
			"last_updated": lastUpdated,
			"power_status": data.PowerStatus,
			"water_status": data.WaterStatus,
		}); err != nil {
			return "", nil, fmt.Errorf("CSV行の書き込みに失敗: %w", err)
		}
	}

	for _, area := range sortedAreaNames(layers.WaterQuality.Areas) {
		data := layers.WaterQuality.Areas[area]
		if err := writeRow(map[string]string{
			"data_type":          "water_quality",
			"area":               area,
			"source":             layers.WaterQuality.Source,
			"coordinates":        formatCoordinates(data.Coordinates),
			"last_updated":       lastUpdated,
			"quality_index":      formatFloat(data.QualityIndex),
			"ph_level":           formatFloat(data.PHLevel),
			"turbidity":          formatFloat(data.Turbidity),
			"monitoring_station": data.MonitoringStation,
		}); err != nil {
			return "", nil, fmt.Errorf("CSV行の書き込みに失敗: %w", err)
		}
	}

	for _, area := range sortedAreaNames(layers.Transport.Areas) {
		data := layers.Transport.Areas[area]
		if err := writeRow(map[string]string{
			"data_type":          "transport",
			"area":               area,
			"source":             layers.Transport.Source,
			"coordinates":        formatCoordinates(data.Coordinates),
			"last_updated":       lastUpdated,
			"metro_access":       fmt.Sprintf("%t", data.MetroAccess),
			"bus_routes":         fmt.Sprintf("%d", data.BusRoutes),
			"connectivity_score": formatFloat(data.ConnectivityScore),
		}); err != nil {
			return "", nil, fmt.Errorf("CSV行の書き込みに失敗: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", nil, fmt.Errorf("CSVの書き出しに失敗: %w", err)
	}

	filename := fmt.Sprintf("bangalore-civic-data-complete_%s.csv", now.Format("2006-01-02"))
	return filename, buf.Bytes(), nil
}

// sortedAreaNames はエリアマップのキーを昇順で返す。CSV出力順の安定化に使う。
func sortedAreaNames[V any](areas map[string]V) []string {
	names := make([]string, 0, len(areas))
	for name := range areas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// slugify はファイル名向けに空白をハイフンに置換して小文字化する。
func slugify(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", "-"))
}

// formatCoordinates は座標を"[lat, lng]"形式の文字列にする。
func formatCoordinates(coords [2]float64) string {
	return fmt.Sprintf("[%g, %g]", coords[0], coords[1])
}

// formatFloat は小数値を末尾ゼロなしで文字列化する。
func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}
