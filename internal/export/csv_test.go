package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/civiclens/internal/model"
)

// testLayers はエクスポートテスト用のレイヤー一式を組み立てる。
func testLayers() model.CivicLayers {
	return model.CivicLayers{
		AirQuality: model.AirQualityLayer{
			Source: "WAQI",
			Areas: map[string]model.AirQualityArea{
				"Whitefield":  {AQI: 145, Status: "Unhealthy for Sensitive Groups", Coordinates: [2]float64{12.9698, 77.7500}},
				"Koramangala": {AQI: 134, Status: "Unhealthy for Sensitive Groups", StationName: "BTM Layout", Coordinates: [2]float64{12.9352, 77.6245}},
			},
		},
		CrimeStats: model.CrimeStatsLayer{
			Source: "KSP",
			Areas: map[string]model.CrimeArea{
				"Koramangala": {
					SafetyScore: 7.2,
					CrimeRate:   "medium",
					RecentIncidents: []model.Incident{
						{FIRNumber: "FIR-2026-0101", Type: "theft", What: "Vehicle theft", When: "2026-02-10", Who: "Unknown", Officer: "SI Kumar", Status: "under_investigation"},
						{FIRNumber: "FIR-2026-0102", Type: "burglary", What: "House break-in", When: "2026-02-12", Who: "Unknown", Officer: "SI Rao", Status: "fir_filed"},
					},
					Coordinates: [2]float64{12.9352, 77.6245},
				},
				"Whitefield": {
					SafetyScore: 6.8,
					CrimeRate:   "medium",
					RecentIncidents: []model.Incident{
						{FIRNumber: "FIR-2026-0201", Type: "theft", What: "Mobile snatching", When: "2026-02-11", Who: "Unknown", Officer: "SI Devi", Status: "fir_filed"},
					},
					Coordinates: [2]float64{12.9698, 77.7500},
				},
			},
		},
		Infrastructure: model.InfraStatusLayer{
			Source: "BESCOM/BWSSB",
			Areas: map[string]model.InfraArea{
				"Whitefield": {PowerStatus: "stable", WaterStatus: "intermittent", Coordinates: [2]float64{12.9698, 77.7500}},
			},
		},
		WaterQuality: model.WaterQualityLayer{
			Source: "CPCB",
			Areas: map[string]model.WaterArea{
				"Koramangala": {QualityIndex: 68.5, PHLevel: 7.1, Turbidity: 3.2, Coordinates: [2]float64{12.9352, 77.6245}},
			},
		},
		Transport: model.TransportLayer{
			Source: "BMTC/BMRCL",
			Areas: map[string]model.TransportArea{
				"Whitefield": {MetroAccess: true, BusRoutes: 42, ConnectivityScore: 7.8, Coordinates: [2]float64{12.9698, 77.7500}},
			},
		},
		LastUpdated: time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC),
	}
}

// parseCSV はCSVバイト列を行列にパースする。
func parseCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV: %v", err)
	}
	return rows
}

// --- 事件CSVテスト ---

// TestBuildIncidentsCSV_ColumnOrder は列順が契約どおりであることをテストする。
func TestBuildIncidentsCSV_ColumnOrder(t *testing.T) {
	now := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	_, data, err := BuildIncidentsCSV(testLayers(), IncidentFilter{}, now)
	if err != nil {
		t.Fatalf("BuildIncidentsCSV returned error: %v", err)
	}

	rows := parseCSV(t, data)
	wantHeader := []string{"fir_number", "type", "area", "what", "when", "who", "officer", "status", "source", "last_updated"}
	if len(rows[0]) != len(wantHeader) {
		t.Fatalf("header len = %d, want %d", len(rows[0]), len(wantHeader))
	}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], col)
		}
	}

	// 全エリア・全事案: Koramangala 2件 + Whitefield 1件
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4 (header + 3 incidents)", len(rows))
	}
	// エリア名昇順で行が並ぶ
	if rows[1][2] != "Koramangala" || rows[3][2] != "Whitefield" {
		t.Errorf("area order = [%s, %s, %s], want Koramangala rows first", rows[1][2], rows[2][2], rows[3][2])
	}
	if rows[1][8] != "Karnataka Police FIR Database" {
		t.Errorf("source = %q, want Karnataka Police FIR Database", rows[1][8])
	}
	if rows[1][9] != "2026-03-05T10:00:00Z" {
		t.Errorf("last_updated = %q, want RFC3339", rows[1][9])
	}
}

// TestBuildIncidentsCSV_Filters はエリアと種別の絞り込みをテストする。
func TestBuildIncidentsCSV_Filters(t *testing.T) {
	now := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)

	// エリア絞り込み（大文字小文字を無視）
	_, data, err := BuildIncidentsCSV(testLayers(), IncidentFilter{Area: "whitefield"}, now)
	if err != nil {
		t.Fatalf("BuildIncidentsCSV returned error: %v", err)
	}
	rows := parseCSV(t, data)
	if len(rows) != 2 {
		t.Errorf("area filter rows = %d, want 2 (header + 1)", len(rows))
	}

	// 種別絞り込み
	_, data, err = BuildIncidentsCSV(testLayers(), IncidentFilter{IncidentType: "THEFT"}, now)
	if err != nil {
		t.Fatalf("BuildIncidentsCSV returned error: %v", err)
	}
	rows = parseCSV(t, data)
	if len(rows) != 3 {
		t.Errorf("type filter rows = %d, want 3 (header + 2 thefts)", len(rows))
	}

	// 該当0件でもヘッダ行だけのCSVを返す
	_, data, err = BuildIncidentsCSV(testLayers(), IncidentFilter{Area: "Narnia"}, now)
	if err != nil {
		t.Fatalf("BuildIncidentsCSV returned error: %v", err)
	}
	rows = parseCSV(t, data)
	if len(rows) != 1 {
		t.Errorf("no-match rows = %d, want 1 (header only)", len(rows))
	}
}

// TestBuildIncidentsCSV_Filename は絞り込み条件を含むファイル名の生成をテストする。
func TestBuildIncidentsCSV_Filename(t *testing.T) {
	now := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter IncidentFilter
		want   string
	}{
		{"条件なし", IncidentFilter{}, "bangalore-incidents-source_2026-03-06.csv"},
		{"エリアのみ", IncidentFilter{Area: "Electronic City"}, "bangalore-incidents-source_electronic-city_2026-03-06.csv"},
		{"エリアと種別", IncidentFilter{Area: "Whitefield", IncidentType: "theft"}, "bangalore-incidents-source_whitefield_theft_2026-03-06.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filename, _, err := BuildIncidentsCSV(testLayers(), tt.filter, now)
			if err != nil {
				t.Fatalf("BuildIncidentsCSV returned error: %v", err)
			}
			if filename != tt.want {
				t.Errorf("filename = %q, want %q", filename, tt.want)
			}
		})
	}
}

// --- 全レイヤーCSVテスト ---

// TestBuildAllDataCSV_LayerOrderAndColumns はレイヤー順と列の埋まり方をテストする。
func TestBuildAllDataCSV_LayerOrderAndColumns(t *testing.T) {
	now := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	filename, data, err := BuildAllDataCSV(testLayers(), now)
	if err != nil {
		t.Fatalf("BuildAllDataCSV returned error: %v", err)
	}

	if filename != "bangalore-civic-data-complete_2026-03-06.csv" {
		t.Errorf("filename = %q", filename)
	}

	rows := parseCSV(t, data)
	// header + air 2 + crime 2 + infra 1 + water 1 + transport 1
	if len(rows) != 8 {
		t.Fatalf("rows = %d, want 8", len(rows))
	}

	// レイヤー順: 大気質→犯罪→インフラ→水質→交通、各レイヤー内はエリア昇順
	wantTypes := []string{"air_quality", "air_quality", "crime_stats", "crime_stats", "infrastructure", "water_quality", "transport"}
	for i, want := range wantTypes {
		if rows[i+1][0] != want {
			t.Errorf("rows[%d] data_type = %q, want %q", i+1, rows[i+1][0], want)
		}
	}
	if rows[1][1] != "Koramangala" || rows[2][1] != "Whitefield" {
		t.Errorf("air rows order = [%s, %s], want area ascending", rows[1][1], rows[2][1])
	}

	header := rows[0]
	col := func(name string) int {
		for i, c := range header {
			if c == name {
				return i
			}
		}
		t.Fatalf("column %q not found", name)
		return -1
	}

	// 大気質の行にAQIが入り、犯罪専用列は空欄
	if rows[1][col("aqi")] != "134" {
		t.Errorf("aqi = %q, want 134", rows[1][col("aqi")])
	}
	if rows[1][col("safety_score")] != "" {
		t.Errorf("air row safety_score = %q, want empty", rows[1][col("safety_score")])
	}

	// 犯罪の行に安全スコアが入る
	if rows[3][col("safety_score")] != "7.2" {
		t.Errorf("safety_score = %q, want 7.2", rows[3][col("safety_score")])
	}

	// 交通の行のbool/int整形
	if rows[7][col("metro_access")] != "true" {
		t.Errorf("metro_access = %q, want true", rows[7][col("metro_access")])
	}
	if rows[7][col("bus_routes")] != "42" {
		t.Errorf("bus_routes = %q, want 42", rows[7][col("bus_routes")])
	}

	// 座標の整形
	if rows[1][col("coordinates")] != "[12.9352, 77.6245]" {
		t.Errorf("coordinates = %q, want [12.9352, 77.6245]", rows[1][col("coordinates")])
	}
}

// TestBuildAllDataCSV_EmptyLayers は空レイヤーがヘッダ行だけのCSVになることをテストする。
func TestBuildAllDataCSV_EmptyLayers(t *testing.T) {
	now := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	_, data, err := BuildAllDataCSV(model.CivicLayers{}, now)
	if err != nil {
		t.Fatalf("BuildAllDataCSV returned error: %v", err)
	}
	rows := parseCSV(t, data)
	if len(rows) != 1 {
		t.Errorf("rows = %d, want 1 (header only)", len(rows))
	}
}

// TestIncidentColumnsMatchContract は事件CSVの列集合が固定契約のままであることをテストする。
func TestIncidentColumnsMatchContract(t *testing.T) {
	want := "fir_number,type,area,what,when,who,officer,status,source,last_updated"
	if got := strings.Join(incidentColumns, ","); got != want {
		t.Errorf("incidentColumns = %q, want %q", got, want)
	}
}
