package adapter

import "fmt"

// DataSource は外部データソース1系統分の到達性情報。
// インドの市民データAPIの多くは公式認可が必要なため、
// どのレイヤーが実測でどのレイヤーが統計ベースかを利用者に開示する。
type DataSource struct {
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	Endpoint    string `json:"endpoint,omitempty"`
	RealTime    bool   `json:"real_time"`
	AccessNote  string `json:"access_note"`
	Alternative string `json:"alternative,omitempty"`
}

// DataSources は全データソースの到達性レポートを返す。
func DataSources() []DataSource {
	return []DataSource{
		{
			Name:       "air_quality",
			Provider:   "World Air Quality Index",
			Endpoint:   "https://api.waqi.info/",
			RealTime:   true,
			AccessNote: "無料トークンで観測局単位の実測値を取得可能",
		},
		{
			Name:        "crime_data",
			Provider:    "Karnataka State Police / NCRB",
			Endpoint:    "https://ksp.karnataka.gov.in/firsearch",
			RealTime:    false,
			AccessNote:  "リアルタイムAPIは政府認可が必要",
			Alternative: "各警察署へのRTI請求、NCRB地区別統計",
		},
		{
			Name:        "infrastructure",
			Provider:    "BESCOM / BWSSB / BBMP",
			RealTime:    false,
			AccessNote:  "公開APIなし。公益事業者との提携が必要",
			Alternative: "入札公告データ、公開年次報告",
		},
		{
			Name:        "water_quality",
			Provider:    "CPCB (Central Pollution Control Board)",
			Endpoint:    "https://cpcb.nic.in/",
			RealTime:    false,
			AccessNote:  "リアルタイムAPIは環境当局の認可が必要",
			Alternative: "認定検査機関の手動検査データ",
		},
		{
			Name:        "transport",
			Provider:    "BMTC / BMRCL",
			RealTime:    false,
			AccessNote:  "リアルタイム運行データの公開APIなし",
			Alternative: "路線網データの静的解析",
		},
		{
			Name:       "court_cases",
			Provider:   "eCourts India",
			Endpoint:   "https://services.ecourts.gov.in/",
			RealTime:   false,
			AccessNote: "案件検索はCAPTCHA保護されておりAPI利用は公式認可が必要",
		},
		{
			Name:       "news",
			Provider:   "The Hindu / Indian Express / Hindustan Times",
			RealTime:   true,
			AccessNote: "公開RSSフィードから取得",
		},
	}
}

// StationInfo はWAQI観測局1局分の公開情報。生ソースレポートに含まれる。
type StationInfo struct {
	Name        string     `json:"name"`
	UID         int        `json:"station_uid"`
	Coordinates [2]float64 `json:"coordinates"`
	APIEndpoint string     `json:"api_endpoint"`
}

// AirQualityStations は利用中のWAQI観測局一覧を返す。順序は固定。
func AirQualityStations() []StationInfo {
	names := []string{"Silk Board", "Bapuji Nagar", "BTM", "Jayanagar", "Hebbal", "City Railway"}
	stations := make([]StationInfo, 0, len(names))
	for _, name := range names {
		st := bangaloreStations[name]
		stations = append(stations, StationInfo{
			Name:        name,
			UID:         st.uid,
			Coordinates: st.coords,
			APIEndpoint: fmt.Sprintf("%s/feed/@%d/", waqiDefaultEndpoint, st.uid),
		})
	}
	return stations
}
