// Package location はインドの地域階層テーブルと座標解決を提供する。
// 地域データは静的テーブルであり、プロセス起動中は不変として扱う。
package location

import (
	"strings"

	"github.com/hitoshi/civiclens/internal/model"
)

// Region は地域階層の1ノードを表す。
type Region struct {
	ID     string
	Name   string
	Lat    float64
	Lng    float64
	Level  model.LocationLevel
	Parent string
	Cities []string
}

// india は国レベルのフォールバック地域。
var india = Region{
	ID:    "india",
	Name:  "India",
	Lat:   20.5937,
	Lng:   78.9629,
	Level: model.LevelCountry,
}

// states は州レベルの地域テーブル。
var states = []Region{
	{ID: "delhi", Name: "Delhi", Lat: 28.6139, Lng: 77.2090, Level: model.LevelState, Parent: "india"},
	{ID: "maharashtra", Name: "Maharashtra", Lat: 19.7515, Lng: 75.7139, Level: model.LevelState, Parent: "india", Cities: []string{"Mumbai", "Pune", "Nagpur"}},
	{ID: "karnataka", Name: "Karnataka", Lat: 15.3173, Lng: 75.7139, Level: model.LevelState, Parent: "india", Cities: []string{"Bangalore", "Mysore", "Hubli"}},
	{ID: "tamil_nadu", Name: "Tamil Nadu", Lat: 11.1271, Lng: 78.6569, Level: model.LevelState, Parent: "india", Cities: []string{"Chennai", "Coimbatore", "Madurai"}},
	{ID: "west_bengal", Name: "West Bengal", Lat: 22.9868, Lng: 87.8550, Level: model.LevelState, Parent: "india", Cities: []string{"Kolkata", "Siliguri", "Durgapur"}},
	{ID: "telangana", Name: "Telangana", Lat: 18.1124, Lng: 79.0193, Level: model.LevelState, Parent: "india", Cities: []string{"Hyderabad", "Warangal", "Nizamabad"}},
}

// cities は都市名から座標への対応テーブル。
var cities = map[string]Region{
	"Mumbai":    {ID: "mumbai", Name: "Mumbai", Lat: 19.0760, Lng: 72.8777, Level: model.LevelCity, Parent: "maharashtra"},
	"Delhi":     {ID: "delhi_city", Name: "Delhi", Lat: 28.6139, Lng: 77.2090, Level: model.LevelCity, Parent: "delhi"},
	"Bangalore": {ID: "bangalore", Name: "Bangalore", Lat: 12.9716, Lng: 77.5946, Level: model.LevelCity, Parent: "karnataka"},
	"Chennai":   {ID: "chennai", Name: "Chennai", Lat: 13.0827, Lng: 80.2707, Level: model.LevelCity, Parent: "tamil_nadu"},
	"Kolkata":   {ID: "kolkata", Name: "Kolkata", Lat: 22.5726, Lng: 88.3639, Level: model.LevelCity, Parent: "west_bengal"},
	"Hyderabad": {ID: "hyderabad", Name: "Hyderabad", Lat: 17.3850, Lng: 78.4867, Level: model.LevelCity, Parent: "telangana"},
	"Pune":      {ID: "pune", Name: "Pune", Lat: 18.5204, Lng: 73.8567, Level: model.LevelCity, Parent: "maharashtra"},
}

// knownPlaces はニュース本文からの地名抽出に使う探索順リスト。
// 都市名を州名より先に並べ、最初にマッチした地名を採用する。
var knownPlaces = []string{
	"Delhi", "Mumbai", "Bangalore", "Chennai", "Kolkata", "Hyderabad",
	"Maharashtra", "Karnataka", "Tamil Nadu", "Kerala", "Gujarat",
	"Rajasthan", "Uttar Pradesh", "Bihar", "West Bengal",
}

// Country は国レベルのフォールバックLocationを返す。
func Country() model.Location {
	return model.Location{Name: india.Name, Lat: india.Lat, Lng: india.Lng, Level: india.Level}
}

// Resolve は地名をLocationに解決する。都市 > 州 > 国の順で照合し、
// テーブルにない地名は州レベルの国中心座標として扱う。
func Resolve(name string) model.Location {
	if city, ok := cities[name]; ok {
		return model.Location{Name: city.Name, Lat: city.Lat, Lng: city.Lng, Level: model.LevelCity}
	}
	for _, st := range states {
		if strings.EqualFold(st.Name, name) {
			return model.Location{Name: st.Name, Lat: st.Lat, Lng: st.Lng, Level: model.LevelState}
		}
	}
	return model.Location{Name: name, Lat: india.Lat, Lng: india.Lng, Level: model.LevelState}
}

// ExtractFromText はテキスト中から既知の地名を探し、最初に見つかった地名の
// Locationを返す。見つからない場合は国レベルのフォールバックを返す。
func ExtractFromText(text string) model.Location {
	lower := strings.ToLower(text)
	for _, place := range knownPlaces {
		if strings.Contains(lower, strings.ToLower(place)) {
			return Resolve(place)
		}
	}
	return Country()
}

// ChildRegions は指定した親地域の子地域一覧を返す。
// parentIDが空または"india"の場合は州一覧、州IDの場合はその州の都市一覧を返す。
func ChildRegions(parentID string) []Region {
	if parentID == "" || parentID == india.ID {
		out := make([]Region, len(states))
		copy(out, states)
		return out
	}

	for _, st := range states {
		if st.ID != parentID {
			continue
		}
		out := make([]Region, 0, len(st.Cities))
		for _, name := range st.Cities {
			if city, ok := cities[name]; ok {
				out = append(out, city)
				continue
			}
			// 座標テーブル未登録の都市は州の座標を引き継ぐ
			out = append(out, Region{
				ID:     strings.ToLower(strings.ReplaceAll(name, " ", "_")),
				Name:   name,
				Lat:    st.Lat,
				Lng:    st.Lng,
				Level:  model.LevelCity,
				Parent: st.ID,
			})
		}
		return out
	}

	return nil
}

// ZoomLevel は地域階層レベルに対応する地図ズームレベルを返す。
func ZoomLevel(level string) int {
	switch level {
	case "country":
		return 5
	case "state":
		return 7
	case "city":
		return 11
	case "district":
		return 13
	case "ward":
		return 15
	default:
		return 5
	}
}

// CityBounds は都市の地図表示範囲を表す。
type CityBounds struct {
	City      string     `json:"city"`
	Southwest [2]float64 `json:"southwest"` // [lat, lng]
	Northeast [2]float64 `json:"northeast"`
	Center    [2]float64 `json:"center"`
	Zoom      struct {
		City   int `json:"city"`
		Area   int `json:"area"`
		Street int `json:"street"`
	} `json:"zoom_levels"`
}

// BangaloreBounds はバンガロール市の地図表示範囲を返す。
func BangaloreBounds() CityBounds {
	b := CityBounds{
		City:      "Bangalore, Karnataka, India",
		Southwest: [2]float64{12.7342, 77.4601},
		Northeast: [2]float64{13.1636, 77.8479},
		Center:    [2]float64{12.9716, 77.5946},
	}
	b.Zoom.City = 11
	b.Zoom.Area = 13
	b.Zoom.Street = 15
	return b
}
