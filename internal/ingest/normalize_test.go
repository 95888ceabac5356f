package ingest

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/civiclens/internal/model"
)

// newTestNormalizer は時刻を固定したNormalizerとログバッファを返す。
func newTestNormalizer(now time.Time) (*Normalizer, *bytes.Buffer) {
	var buf bytes.Buffer
	n := NewNormalizer(slog.New(slog.NewJSONHandler(&buf, nil)))
	n.now = func() time.Time { return now }
	return n, &buf
}

// --- ストーリー正規化テスト ---

// TestFromStory_DerivesSeverityAndTrend はストーリーの更新頻度から深刻度とトレンドが導出されることをテストする。
func TestFromStory_DerivesSeverityAndTrend(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	n, _ := newTestNormalizer(now)

	story := &model.NewsStory{
		Key:         "crime_Bangalore_fraud_gang_police",
		Category:    "crime",
		Location:    model.Location{Name: "Bangalore", Level: model.LevelCity},
		Sources:     []string{"The Hindu", "Indian Express", "The Hindu"},
		Titles:      []string{"Police arrest fraud gang", "Fraud gang police arrest"},
		FirstSeen:   now.Add(-48 * time.Hour), // age 2日
		LastUpdated: now.Add(-1 * time.Hour),
		UpdateCount: 5, // 頻度 5/2 = 2.5
	}

	issue := n.FromStory(story)

	if issue.ID != story.Key {
		t.Errorf("ID = %q, want story key", issue.ID)
	}
	if issue.Type != model.IssueTypeNews {
		t.Errorf("Type = %q, want news", issue.Type)
	}
	// 頻度2.5 > 1.0 かつ crime → critical / worsening
	if issue.Severity != model.SeverityCritical {
		t.Errorf("Severity = %q, want critical", issue.Severity)
	}
	if issue.Trend != model.TrendWorsening {
		t.Errorf("Trend = %q, want worsening", issue.Trend)
	}
	if issue.SourceCount != 2 {
		t.Errorf("SourceCount = %d, want 2 (重複排除後)", issue.SourceCount)
	}
	if issue.Title != "Police arrest fraud gang" {
		t.Errorf("Title = %q, want first story title", issue.Title)
	}
	if issue.Progress != 0.0 {
		t.Errorf("Progress = %v, want 0.0", issue.Progress)
	}
}

// TestFromStory_EmptyTitlesFallsBack はタイトルのないストーリーが既定タイトルを得ることをテストする。
func TestFromStory_EmptyTitlesFallsBack(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	n, _ := newTestNormalizer(now)

	story := &model.NewsStory{
		Key:         "general_Delhi_",
		Category:    "general",
		FirstSeen:   now,
		LastUpdated: now,
		UpdateCount: 1,
	}

	issue := n.FromStory(story)
	if issue.Title != "News Update" {
		t.Errorf("Title = %q, want %q", issue.Title, "News Update")
	}
}

// --- 裁判案件の正規化テスト ---

// TestFromCourtCase_LongRunningCaseIsHigh は係争1年超の案件がhigh/stableになることをテストする。
func TestFromCourtCase_LongRunningCaseIsHigh(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	n, _ := newTestNormalizer(now)

	c := model.RawCourtCase{
		ID:          "case_001",
		Title:       "PIL on lake encroachment",
		FiledDate:   "2025-01-10", // 約425日前
		Status:      "ongoing",
		Court:       "High Court",
		Location:    model.Location{Name: "Delhi", Level: model.LevelCity},
		Progress:    0.65,
		Category:    "environment",
		NextHearing: "2026-04-01",
	}

	issue, err := n.FromCourtCase(c)
	if err != nil {
		t.Fatalf("FromCourtCase returned error: %v", err)
	}

	if issue.Type != model.IssueTypeLegal {
		t.Errorf("Type = %q, want legal", issue.Type)
	}
	if issue.Severity != model.SeverityHigh {
		t.Errorf("Severity = %q, want high", issue.Severity)
	}
	if issue.Trend != model.TrendStable {
		t.Errorf("Trend = %q, want stable", issue.Trend)
	}
	if issue.Category != "environment" {
		t.Errorf("Category = %q, want environment", issue.Category)
	}
	if issue.Metadata["court"] != "High Court" {
		t.Errorf("Metadata[court] = %q, want High Court", issue.Metadata["court"])
	}
	if issue.Metadata["next_hearing"] != "2026-04-01" {
		t.Errorf("Metadata[next_hearing] = %q, want 2026-04-01", issue.Metadata["next_hearing"])
	}
	if !issue.FirstSeen.Equal(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("FirstSeen = %v, want filed date", issue.FirstSeen)
	}
}

// TestFromCourtCase_EmptyCategoryDefaultsToLegal はカテゴリ未設定がlegalに補完されることをテストする。
func TestFromCourtCase_EmptyCategoryDefaultsToLegal(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	n, _ := newTestNormalizer(now)

	issue, err := n.FromCourtCase(model.RawCourtCase{
		ID:        "case_002",
		Title:     "Contract dispute",
		FiledDate: "2026-01-05",
		Status:    "ongoing",
	})
	if err != nil {
		t.Fatalf("FromCourtCase returned error: %v", err)
	}
	if issue.Category != "legal" {
		t.Errorf("Category = %q, want legal", issue.Category)
	}
}

// TestFromCourtCase_MalformedDateReturnsConversionError は不正な日付がConversionErrorになることをテストする。
func TestFromCourtCase_MalformedDateReturnsConversionError(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	n, _ := newTestNormalizer(now)

	_, err := n.FromCourtCase(model.RawCourtCase{
		ID:        "case_bad",
		FiledDate: "10/03/2026",
	})
	if err == nil {
		t.Fatal("expected error for malformed filed_date")
	}
	convErr, ok := err.(*ConversionError)
	if !ok {
		t.Fatalf("error type = %T, want *ConversionError", err)
	}
	if convErr.Kind != "court_case" {
		t.Errorf("Kind = %q, want court_case", convErr.Kind)
	}
	if convErr.RecordID != "case_bad" {
		t.Errorf("RecordID = %q, want case_bad", convErr.RecordID)
	}
}

// --- 犯罪報告の正規化テスト ---

// TestFromCrimeReport_TitleAndMetadata はタイトル整形とメタデータ設定をテストする。
func TestFromCrimeReport_TitleAndMetadata(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	n, _ := newTestNormalizer(now)

	issue, err := n.FromCrimeReport(model.RawCrimeReport{
		ID:           "crime_001",
		Type:         "theft",
		Area:         "Electronic City",
		ReportedDate: "2026-02-15",
		Status:       "fir_filed",
		Frequency:    12,
	})
	if err != nil {
		t.Fatalf("FromCrimeReport returned error: %v", err)
	}

	if issue.Title != "Theft - Electronic City" {
		t.Errorf("Title = %q, want %q", issue.Title, "Theft - Electronic City")
	}
	if issue.Category != "security" {
		t.Errorf("Category = %q, want security", issue.Category)
	}
	// 頻度12 > 10 → critical、> 5 → worsening
	if issue.Severity != model.SeverityCritical {
		t.Errorf("Severity = %q, want critical", issue.Severity)
	}
	if issue.Trend != model.TrendWorsening {
		t.Errorf("Trend = %q, want worsening", issue.Trend)
	}
	if issue.Progress != 0.2 {
		t.Errorf("Progress = %v, want 0.2 (fir_filed)", issue.Progress)
	}
	if issue.Metadata["frequency"] != "12" {
		t.Errorf("Metadata[frequency] = %q, want 12", issue.Metadata["frequency"])
	}
}

// --- インフラ事業の正規化テスト ---

// TestFromInfraProject_DelayedProject は遅延事業がhigh/worseningになることをテストする。
func TestFromInfraProject_DelayedProject(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	n, _ := newTestNormalizer(now)

	issue, err := n.FromInfraProject(model.RawInfraProject{
		ID:                 "infra_001",
		Name:               "Metro Phase 3",
		Started:            "2023-06-01",
		ExpectedCompletion: "2027-12-31",
		Progress:           0.35,
		Status:             "delayed",
		Budget:             "15000 crores",
		Contractor:         "L&T",
	})
	if err != nil {
		t.Fatalf("FromInfraProject returned error: %v", err)
	}

	if issue.Type != model.IssueTypeInfrastructure {
		t.Errorf("Type = %q, want infrastructure", issue.Type)
	}
	if issue.Severity != model.SeverityHigh {
		t.Errorf("Severity = %q, want high", issue.Severity)
	}
	if issue.Trend != model.TrendWorsening {
		t.Errorf("Trend = %q, want worsening", issue.Trend)
	}
	if issue.Metadata["budget"] != "15000 crores" {
		t.Errorf("Metadata[budget] = %q, want 15000 crores", issue.Metadata["budget"])
	}
	if issue.Metadata["contractor"] != "L&T" {
		t.Errorf("Metadata[contractor] = %q, want L&T", issue.Metadata["contractor"])
	}
}

// --- バッチ正規化テスト ---

// TestNormalizeBatch_DropsMalformedRecords は不正レコードのみが破棄されバッチが継続することをテストする。
func TestNormalizeBatch_DropsMalformedRecords(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	n, buf := newTestNormalizer(now)

	batch := Batch{
		Stories: map[string]*model.NewsStory{
			"general_Delhi_x": {
				Key: "general_Delhi_x", Category: "general",
				FirstSeen: now, LastUpdated: now, UpdateCount: 1,
			},
		},
		CourtCases: []model.RawCourtCase{
			{ID: "case_ok", Title: "Valid case", FiledDate: "2026-01-01", Status: "ongoing"},
			{ID: "case_bad", Title: "Broken case", FiledDate: "not-a-date"},
		},
		Crimes: []model.RawCrimeReport{
			{ID: "crime_bad", Type: "theft", Area: "BTM", ReportedDate: ""},
		},
		Projects: []model.RawInfraProject{
			{ID: "infra_ok", Name: "Flyover", Started: "2025-05-01", Status: "on_track"},
		},
	}

	issues, dropped := n.NormalizeBatch(batch)

	if dropped != 2 {
		t.Errorf("dropped = %d, want 2", dropped)
	}
	if len(issues) != 3 {
		t.Errorf("len(issues) = %d, want 3", len(issues))
	}
	// 破棄理由が構造化ログに残ること
	if !strings.Contains(buf.String(), "case_bad") {
		t.Errorf("log should contain dropped record id, got: %s", buf.String())
	}
}
