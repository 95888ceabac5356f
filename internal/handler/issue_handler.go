package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/civiclens/internal/issue"
	"github.com/hitoshi/civiclens/internal/model"
	"github.com/hitoshi/civiclens/internal/repository"
)

// IssueServiceInterface はIssueハンドラーが必要とするサービスインターフェース。
type IssueServiceInterface interface {
	// List は絞り込み条件に一致するIssue一覧を返す。
	List(ctx context.Context, filter issue.ListFilter) ([]*model.Issue, error)
	// Get はIDでIssueを取得する。見つからない場合は(nil, nil)を返す。
	Get(ctx context.Context, id string) (*model.Issue, error)
	// Summary は地域別の集計サマリーを返す。
	Summary(ctx context.Context, location string) (*repository.LocationSummary, error)
	// LiveUpdates は直近window以内に更新されたIssueを返す。
	LiveUpdates(ctx context.Context, window time.Duration) ([]*model.Issue, error)
	// UpdatedSince は指定時刻以降に更新されたIssueを返す。
	UpdatedSince(ctx context.Context, since time.Time) ([]*model.Issue, error)
}

// IssueHandler はIssue照会のHTTPハンドラー。
type IssueHandler struct {
	service    IssueServiceInterface
	liveWindow time.Duration
	now        func() time.Time
}

// NewIssueHandler はIssueHandlerを生成する。
func NewIssueHandler(service IssueServiceInterface, liveWindow time.Duration) *IssueHandler {
	return &IssueHandler{
		service:    service,
		liveWindow: liveWindow,
		now:        time.Now,
	}
}

// --- レスポンス型 ---

// locationResponse はIssueの発生地域のレスポンス。
type locationResponse struct {
	Name  string  `json:"name"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Level string  `json:"level"`
}

// issueResponse はIssue1件分のレスポンス。
type issueResponse struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Category    string            `json:"category"`
	Title       string            `json:"title"`
	Location    locationResponse  `json:"location"`
	Severity    string            `json:"severity"`
	Progress    float64           `json:"progress"`
	Trend       string            `json:"trend"`
	FirstSeen   time.Time         `json:"first_seen"`
	LastUpdated time.Time         `json:"last_updated"`
	SourceCount int               `json:"source_count"`
	UpdateCount int               `json:"update_count"`
	AgeDays     int               `json:"age_days"`
	Status      string            `json:"status,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// issueListResponse はIssue一覧のレスポンス。
type issueListResponse struct {
	Issues []issueResponse `json:"issues"`
	Total  int             `json:"total"`
}

// summaryResponse は地域別集計のレスポンス。
type summaryResponse struct {
	LocationID     string         `json:"location_id,omitempty"`
	TotalIssues    int            `json:"total_issues"`
	CriticalIssues int            `json:"critical_issues"`
	ActiveIssues   int            `json:"active_issues"`
	ResolvedIssues int            `json:"resolved_issues"`
	Categories     map[string]int `json:"categories"`
	Severities     map[string]int `json:"severities"`
}

// liveResponse はライブ更新のレスポンス。
type liveResponse struct {
	Issues      []issueResponse `json:"issues"`
	Total       int             `json:"total"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// toIssueResponse はmodel.IssueからAPIレスポンスに変換する。
func toIssueResponse(i *model.Issue, now time.Time) issueResponse {
	return issueResponse{
		ID:       i.ID,
		Type:     string(i.Type),
		Category: i.Category,
		Title:    i.Title,
		Location: locationResponse{
			Name:  i.Location.Name,
			Lat:   i.Location.Lat,
			Lng:   i.Location.Lng,
			Level: string(i.Location.Level),
		},
		Severity:    string(i.Severity),
		Progress:    i.Progress,
		Trend:       string(i.Trend),
		FirstSeen:   i.FirstSeen,
		LastUpdated: i.LastUpdated,
		SourceCount: i.SourceCount,
		UpdateCount: i.UpdateCount,
		AgeDays:     i.AgeDays(now),
		Status:      i.Status,
		Metadata:    i.Metadata,
	}
}

// toIssueResponses はIssueスライスをレスポンスに変換する。
func toIssueResponses(issues []*model.Issue, now time.Time) []issueResponse {
	out := make([]issueResponse, 0, len(issues))
	for _, i := range issues {
		out = append(out, toIssueResponse(i, now))
	}
	return out
}

// ListIssues はIssue一覧を取得する。
// GET /api/issues?location=xxx&category=xxx&severity=xxx
func (h *IssueHandler) ListIssues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := issue.ListFilter{
		Location: q.Get("location"),
		Category: q.Get("category"),
		Severity: q.Get("severity"),
	}

	issues, err := h.service.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := toIssueResponses(issues, h.now())
	writeJSON(w, http.StatusOK, issueListResponse{
		Issues: responses,
		Total:  len(responses),
	})
}

// GetIssue はIssue詳細を取得する。
// GET /api/issues/{id}
func (h *IssueHandler) GetIssue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	found, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if found == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewIssueNotFoundError(id))
		return
	}

	writeJSON(w, http.StatusOK, toIssueResponse(found, h.now()))
}

// GetSummary は地域別の集計サマリーを取得する。
// GET /api/issues/summary?location=xxx
func (h *IssueHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")

	summary, err := h.service.Summary(r.Context(), location)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		LocationID:     summary.LocationID,
		TotalIssues:    summary.TotalIssues,
		CriticalIssues: summary.CriticalIssues,
		ActiveIssues:   summary.ActiveIssues,
		ResolvedIssues: summary.ResolvedIssues,
		Categories:     summary.Categories,
		Severities:     summary.Severities,
	})
}

// LiveUpdates は直近に更新されたIssueを取得する。
// GET /api/issues/live?since=RFC3339
// sinceが未指定の場合は既定のライブウィンドウを使用する。
func (h *IssueHandler) LiveUpdates(w http.ResponseWriter, r *http.Request) {
	var (
		issues []*model.Issue
		err    error
	)

	if raw := r.URL.Query().Get("since"); raw != "" {
		since, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidSinceError(raw))
			return
		}
		issues, err = h.service.UpdatedSince(r.Context(), since)
	} else {
		issues, err = h.service.LiveUpdates(r.Context(), h.liveWindow)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	now := h.now()
	responses := toIssueResponses(issues, now)
	writeJSON(w, http.StatusOK, liveResponse{
		Issues:      responses,
		Total:       len(responses),
		GeneratedAt: now,
	})
}
