package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/civiclens/internal/adapter"
	"github.com/hitoshi/civiclens/internal/cache"
	"github.com/hitoshi/civiclens/internal/location"
	"github.com/hitoshi/civiclens/internal/model"
)

// LayersBuilderInterface はキャッシュミス時のレイヤー構築インターフェース。
type LayersBuilderInterface interface {
	Build(ctx context.Context) model.CivicLayers
}

// RefreshRunner は手動リフレッシュで収集サイクルを起動するインターフェース。
type RefreshRunner interface {
	RunCycle(ctx context.Context) error
}

// CivicHandler は市民データレイヤーのHTTPハンドラー。
// レイヤーは収集サイクルが差し替えるキャッシュから読み、
// キャッシュが空の場合のみその場で構築する。
type CivicHandler struct {
	layerCache *cache.LayersCache
	builder    LayersBuilderInterface
	refresher  RefreshRunner
}

// NewCivicHandler はCivicHandlerを生成する。
func NewCivicHandler(layerCache *cache.LayersCache, builder LayersBuilderInterface, refresher RefreshRunner) *CivicHandler {
	return &CivicHandler{
		layerCache: layerCache,
		builder:    builder,
		refresher:  refresher,
	}
}

// layers は現在のレイヤースナップショットを返す。キャッシュ未設定時は構築する。
func (h *CivicHandler) layers(ctx context.Context) (model.CivicLayers, error) {
	return h.layerCache.GetOrPopulate(ctx, h.builder.Build)
}

// GetLayers は全レイヤーを取得する。
// GET /api/civic/layers
func (h *CivicHandler) GetLayers(w http.ResponseWriter, r *http.Request) {
	layers, err := h.layers(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, layers)
}

// GetLayer は指定レイヤーを取得する。
// GET /api/civic/layers/{name}
func (h *CivicHandler) GetLayer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	layers, err := h.layers(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var layer any
	switch name {
	case "air_quality":
		layer = layers.AirQuality
	case "crime_stats":
		layer = layers.CrimeStats
	case "infrastructure":
		layer = layers.Infrastructure
	case "water_quality":
		layer = layers.WaterQuality
	case "transport":
		layer = layers.Transport
	default:
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewLayerNotFoundError(name))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"layer":        name,
		"data":         layer,
		"last_updated": layers.LastUpdated,
	})
}

// areaDetailResponse はエリア1つ分の全レイヤー横断データ。
type areaDetailResponse struct {
	Area           string                `json:"area"`
	AirQuality     *model.AirQualityArea `json:"air_quality,omitempty"`
	CrimeStats     *model.CrimeArea      `json:"crime_stats,omitempty"`
	Infrastructure *model.InfraArea      `json:"infrastructure,omitempty"`
	WaterQuality   *model.WaterArea      `json:"water_quality,omitempty"`
	Transport      *model.TransportArea  `json:"transport,omitempty"`
	LastUpdated    time.Time             `json:"last_updated"`
}

// GetArea はエリア1つ分の全レイヤーデータを取得する。
// GET /api/civic/areas/{area}
func (h *CivicHandler) GetArea(w http.ResponseWriter, r *http.Request) {
	area := chi.URLParam(r, "area")

	layers, err := h.layers(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := areaDetailResponse{Area: area, LastUpdated: layers.LastUpdated}
	found := false

	if data, ok := layers.AirQuality.Areas[area]; ok {
		resp.AirQuality = &data
		found = true
	}
	if data, ok := layers.CrimeStats.Areas[area]; ok {
		resp.CrimeStats = &data
		found = true
	}
	if data, ok := layers.Infrastructure.Areas[area]; ok {
		resp.Infrastructure = &data
		found = true
	}
	if data, ok := layers.WaterQuality.Areas[area]; ok {
		resp.WaterQuality = &data
		found = true
	}
	if data, ok := layers.Transport.Areas[area]; ok {
		resp.Transport = &data
		found = true
	}

	if !found {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewAreaNotFoundError(area))
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// geoJSONFeature はGeoJSON Feature1つ分。
type geoJSONFeature struct {
	Type       string         `json:"type"`
	Geometry   geoJSONPoint   `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// geoJSONPoint はGeoJSON Point形状。座標は[lng, lat]の順。
type geoJSONPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// newFeature は[lat, lng]の内部座標からGeoJSON Featureを生成する。
func newFeature(coords [2]float64, properties map[string]any) geoJSONFeature {
	return geoJSONFeature{
		Type: "Feature",
		Geometry: geoJSONPoint{
			Type:        "Point",
			Coordinates: [2]float64{coords[1], coords[0]}, // GeoJSONは[lng, lat]
		},
		Properties: properties,
	}
}

// GetMapData は地図表示用のGeoJSON FeatureCollectionを取得する。
// GET /api/civic/map-data
func (h *CivicHandler) GetMapData(w http.ResponseWriter, r *http.Request) {
	layers, err := h.layers(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	features := make([]geoJSONFeature, 0, 5*len(layers.AirQuality.Areas))

	for _, area := range sortedKeys(layers.AirQuality.Areas) {
		data := layers.AirQuality.Areas[area]
		features = append(features, newFeature(data.Coordinates, map[string]any{
			"layer":     "air_quality",
			"area":      area,
			"real_data": true,
			"aqi":       data.AQI,
			"status":    data.Status,
			"station":   data.StationName,
			"source":    layers.AirQuality.Source,
		}))
	}

	for _, area := range sortedKeys(layers.CrimeStats.Areas) {
		data := layers.CrimeStats.Areas[area]
		features = append(features, newFeature(data.Coordinates, map[string]any{
			"layer":        "crime_stats",
			"area":         area,
			"real_data":    false,
			"safety_score": data.SafetyScore,
			"crime_rate":   data.CrimeRate,
			"source":       layers.CrimeStats.Source,
		}))
	}

	for _, area := range sortedKeys(layers.Infrastructure.Areas) {
		data := layers.Infrastructure.Areas[area]
		features = append(features, newFeature(data.Coordinates, map[string]any{
			"layer":        "infrastructure",
			"area":         area,
			"real_data":    false,
			"power_status": data.PowerStatus,
			"water_status": data.WaterStatus,
			"source":       layers.Infrastructure.Source,
		}))
	}

	for _, area := range sortedKeys(layers.WaterQuality.Areas) {
		data := layers.WaterQuality.Areas[area]
		features = append(features, newFeature(data.Coordinates, map[string]any{
			"layer":         "water_quality",
			"area":          area,
			"real_data":     false,
			"quality_index": data.QualityIndex,
			"ph_level":      data.PHLevel,
			"source":        layers.WaterQuality.Source,
		}))
	}

	for _, area := range sortedKeys(layers.Transport.Areas) {
		data := layers.Transport.Areas[area]
		features = append(features, newFeature(data.Coordinates, map[string]any{
			"layer":        "transport",
			"area":         area,
			"real_data":    false,
			"metro_access": data.MetroAccess,
			"bus_routes":   data.BusRoutes,
			"source":       layers.Transport.Source,
		}))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"type":     "FeatureCollection",
		"features": features,
		"metadata": map[string]any{
			"total_features": len(features),
			"last_updated":   layers.LastUpdated,
		},
	})
}

// GetBounds は地図表示範囲を取得する。
// GET /api/civic/bounds
func (h *CivicHandler) GetBounds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, location.BangaloreBounds())
}

// regionResponse は地域階層の1ノードのレスポンス。
type regionResponse struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Level  string  `json:"level"`
	Parent string  `json:"parent,omitempty"`
	Zoom   int     `json:"zoom"`
}

// GetRegions は地域階層を取得する。
// GET /api/regions?parent=xxx
// parentが未指定の場合は州一覧を返す。
func (h *CivicHandler) GetRegions(w http.ResponseWriter, r *http.Request) {
	parent := r.URL.Query().Get("parent")

	regions := location.ChildRegions(parent)
	out := make([]regionResponse, 0, len(regions))
	for _, region := range regions {
		out = append(out, regionResponse{
			ID:     region.ID,
			Name:   region.Name,
			Lat:    region.Lat,
			Lng:    region.Lng,
			Level:  string(region.Level),
			Parent: region.Parent,
			Zoom:   location.ZoomLevel(string(region.Level)),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"regions": out,
		"total":   len(out),
	})
}

// GetSources はデータソースの到達性レポートを取得する。
// GET /api/civic/sources
func (h *CivicHandler) GetSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sources": adapter.DataSources(),
	})
}

// Refresh は収集サイクルを即時実行する。
// POST /api/civic/refresh
func (h *CivicHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.refresher.RunCycle(r.Context()); err != nil {
		writeAPIErrorResponse(w, http.StatusBadGateway, model.NewRefreshFailedError(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "refreshed",
		"last_updated": h.layerCache.LastUpdated(),
	})
}

// sortedKeys はマップのキーを昇順で返す。レスポンスの順序の安定化に使う。
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
