package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hitoshi/civiclens/internal/export"
)

// ExportHandler はデータエクスポートのHTTPハンドラー。
type ExportHandler struct {
	civic *CivicHandler
	now   func() time.Time
}

// NewExportHandler はExportHandlerを生成する。
// レイヤースナップショットの取得はCivicHandlerと同じ経路を使う。
func NewExportHandler(civic *CivicHandler) *ExportHandler {
	return &ExportHandler{
		civic: civic,
		now:   time.Now,
	}
}

// DownloadIncidentsCSV は事件データをCSVでダウンロードする。
// GET /api/export/incidents.csv?area=xxx&incident_type=xxx
func (h *ExportHandler) DownloadIncidentsCSV(w http.ResponseWriter, r *http.Request) {
	layers, err := h.civic.layers(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	q := r.URL.Query()
	filter := export.IncidentFilter{
		Area:         q.Get("area"),
		IncidentType: q.Get("incident_type"),
	}

	filename, content, err := export.BuildIncidentsCSV(layers, filter, h.now())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeCSV(w, filename, content)
}

// DownloadAllDataCSV は全レイヤーのエリア別データをCSVでダウンロードする。
// GET /api/export/civic.csv
func (h *ExportHandler) DownloadAllDataCSV(w http.ResponseWriter, r *http.Request) {
	layers, err := h.civic.layers(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	filename, content, err := export.BuildAllDataCSV(layers, h.now())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeCSV(w, filename, content)
}

// DownloadRawSources は生データソースの到達性レポートをJSONでダウンロードする。
// GET /api/export/raw-sources.json
func (h *ExportHandler) DownloadRawSources(w http.ResponseWriter, r *http.Request) {
	report := export.BuildRawSourcesReport(h.now())

	filename := fmt.Sprintf("civic-raw-sources_%s.json", h.now().Format("2006-01-02"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	writeJSON(w, http.StatusOK, report)
}

// writeCSV はCSVダウンロードレスポンスを書き込む。
func writeCSV(w http.ResponseWriter, filename string, content []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}
