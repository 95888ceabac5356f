package adapter

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newTestAirQualityClient はテストサーバーをエンドポイントとするクライアントを組み立てる。
func newTestAirQualityClient(endpoint string) *AirQualityClient {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	c := NewAirQualityClient(&http.Client{Timeout: 5 * time.Second}, logger, "test-token")
	c.endpoint = endpoint
	return c
}

// --- AQI区分のテスト ---

func TestAQIStatus(t *testing.T) {
	tests := []struct {
		aqi  int
		want string
	}{
		{30, "Good"},
		{50, "Good"},
		{51, "Moderate"},
		{100, "Moderate"},
		{101, "Unhealthy for Sensitive"},
		{150, "Unhealthy for Sensitive"},
		{151, "Unhealthy"},
		{200, "Unhealthy"},
		{201, "Very Unhealthy"},
		{300, "Very Unhealthy"},
		{301, "Hazardous"},
	}
	for _, tt := range tests {
		if got := AQIStatus(tt.aqi); got != tt.want {
			t.Errorf("AQIStatus(%d) = %q, want %q", tt.aqi, got, tt.want)
		}
	}
}

// --- レイヤー構築のテスト ---

// TestFetchLayer_UsesStationData は観測局の実測値がレイヤーに入ることをテストする。
func TestFetchLayer_UsesStationData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "token=test-token") {
			t.Errorf("request should carry token, got query %q", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"status":"ok","data":{"aqi":142,"city":{"name":"Bangalore"},"time":{"s":"2026-03-06 11:00:00"}}}`)
	}))
	defer server.Close()

	c := newTestAirQualityClient(server.URL)
	layer := c.FetchLayer(context.Background())

	if len(layer.Areas) != 6 {
		t.Fatalf("len(Areas) = %d, want 6", len(layer.Areas))
	}
	if layer.Source != "World Air Quality Index - Bangalore Stations" {
		t.Errorf("Source = %q", layer.Source)
	}

	area := layer.Areas["Koramangala"]
	if area.AQI != 142 {
		t.Errorf("AQI = %d, want 142", area.AQI)
	}
	if area.Status != "Unhealthy for Sensitive" {
		t.Errorf("Status = %q, want Unhealthy for Sensitive", area.Status)
	}
	if area.StationName != "BTM" {
		t.Errorf("StationName = %q, want BTM (nearest station)", area.StationName)
	}
	if area.Coordinates == [2]float64{} {
		t.Error("Coordinates should be set")
	}
}

// TestFetchLayer_FallsBackPerStation は局単位の失敗がそのエリアの代替値で補われることをテストする。
func TestFetchLayer_FallsBackPerStation(t *testing.T) {
	// Silk Board (uid 11293) だけエラー、他は実測値
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "@11293") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"status":"ok","data":{"aqi":95}}`)
	}))
	defer server.Close()

	c := newTestAirQualityClient(server.URL)
	layer := c.FetchLayer(context.Background())

	// Electronic CityはSilk Board局に対応するため代替値になる
	if got := layer.Areas["Electronic City"].AQI; got != 178 {
		t.Errorf("Electronic City AQI = %d, want fallback 178", got)
	}
	// 実測できたエリアはAPI値
	if got := layer.Areas["Jayanagar"].AQI; got != 95 {
		t.Errorf("Jayanagar AQI = %d, want 95", got)
	}
	// 一部の局が生きていればソース名は実測のまま
	if layer.Source != "World Air Quality Index - Bangalore Stations" {
		t.Errorf("Source = %q", layer.Source)
	}
}

// TestFetchLayer_AllStationsDown は全局失敗時にソース名が代替値を示すことをテストする。
func TestFetchLayer_AllStationsDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestAirQualityClient(server.URL)
	layer := c.FetchLayer(context.Background())

	if len(layer.Areas) != 6 {
		t.Fatalf("len(Areas) = %d, want 6 (fallback for every area)", len(layer.Areas))
	}
	if layer.Source != "Bangalore AQI Typical Ranges (stations unavailable)" {
		t.Errorf("Source = %q, want fallback source label", layer.Source)
	}
	// 代替値にも区分が付く
	for area, data := range layer.Areas {
		if data.AQI <= 0 {
			t.Errorf("%s fallback AQI = %d, should be positive", area, data.AQI)
		}
		if data.Status == "" {
			t.Errorf("%s fallback Status should be set", area)
		}
	}
}

// TestFetchLayer_RejectsBadPayloads はAPIの異常レスポンスが代替値になることをテストする。
func TestFetchLayer_RejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"ステータスerror", `{"status":"error","data":{"aqi":100}}`},
		{"AQIゼロ", `{"status":"ok","data":{"aqi":0}}`},
		{"AQI負値", `{"status":"ok","data":{"aqi":-1}}`},
		{"壊れたJSON", `{"status":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			c := newTestAirQualityClient(server.URL)
			layer := c.FetchLayer(context.Background())

			if got := layer.Areas["Koramangala"].AQI; got != 134 {
				t.Errorf("Koramangala AQI = %d, want fallback 134", got)
			}
		})
	}
}
