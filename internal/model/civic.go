package model

import "time"

// CivicLayers は地図表示用の市民データレイヤー一式を表す。
// 収集サイクルごとにまるごと差し替えられるスナップショットであり、
// キャッシュとAPI応答の両方でこの形のまま扱われる。
type CivicLayers struct {
	AirQuality     AirQualityLayer   `json:"air_quality"`
	CrimeStats     CrimeStatsLayer   `json:"crime_stats"`
	Infrastructure InfraStatusLayer  `json:"infrastructure"`
	WaterQuality   WaterQualityLayer `json:"water_quality"`
	Transport      TransportLayer    `json:"transport"`
	LastUpdated    time.Time         `json:"last_updated"`
}

// AirQualityLayer は大気質レイヤー。唯一リアルタイムAPIが公開されているレイヤーで、
// WAQI観測局からの実測値が入る。取得失敗時は既知の傾向に基づく代替値になる。
type AirQualityLayer struct {
	Source string                    `json:"source"`
	Areas  map[string]AirQualityArea `json:"areas"`
}

// AirQualityArea はエリア1つ分の大気質データ。
type AirQualityArea struct {
	AQI         int        `json:"aqi"`
	Status      string     `json:"status"`
	StationName string     `json:"station_name,omitempty"`
	Coordinates [2]float64 `json:"coordinates"` // [lat, lng]
}

// CrimeStatsLayer は犯罪統計レイヤー。
type CrimeStatsLayer struct {
	Source string               `json:"source"`
	Areas  map[string]CrimeArea `json:"areas"`
}

// CrimeArea はエリア1つ分の犯罪統計。
type CrimeArea struct {
	SafetyScore     float64    `json:"safety_score"`
	CrimeRate       string     `json:"crime_rate"`
	PatrolFrequency string     `json:"patrol_frequency,omitempty"`
	PoliceStation   string     `json:"police_station,omitempty"`
	RecentIncidents []Incident `json:"recent_incidents,omitempty"`
	Coordinates     [2]float64 `json:"coordinates"`
}

// Incident はFIR（事件登録簿）1件分のレコード。CSVエクスポートの行に対応する。
type Incident struct {
	FIRNumber string `json:"fir_number"`
	Type      string `json:"type"`
	What      string `json:"what"`
	When      string `json:"when"`
	Who       string `json:"who"`
	Officer   string `json:"officer"`
	Status    string `json:"status"`
}

// InfraStatusLayer はインフラ稼働状況レイヤー。
type InfraStatusLayer struct {
	Source string               `json:"source"`
	Areas  map[string]InfraArea `json:"areas"`
}

// InfraArea はエリア1つ分のインフラ稼働状況。
type InfraArea struct {
	PowerStatus string     `json:"power_status"`
	WaterStatus string     `json:"water_status"`
	Coordinates [2]float64 `json:"coordinates"`
}

// WaterQualityLayer は水質レイヤー。
type WaterQualityLayer struct {
	Source string               `json:"source"`
	Areas  map[string]WaterArea `json:"areas"`
}

// WaterArea はエリア1つ分の水質データ。
type WaterArea struct {
	QualityIndex      float64    `json:"quality_index"`
	PHLevel           float64    `json:"ph_level"`
	Turbidity         float64    `json:"turbidity"`
	MonitoringStation string     `json:"monitoring_station,omitempty"`
	Coordinates       [2]float64 `json:"coordinates"`
}

// TransportLayer は交通レイヤー。
type TransportLayer struct {
	Source string                   `json:"source"`
	Areas  map[string]TransportArea `json:"areas"`
}

// TransportArea はエリア1つ分の交通接続データ。
type TransportArea struct {
	MetroAccess       bool       `json:"metro_access"`
	BusRoutes         int        `json:"bus_routes"`
	ConnectivityScore float64    `json:"connectivity_score"`
	Coordinates       [2]float64 `json:"coordinates"`
}
