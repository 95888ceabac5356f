package ingest

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/civiclens/internal/model"
)

// dateLayout はソースレコードの日付フィールドの形式。
const dateLayout = "2006-01-02"

// ConversionError は生レコード1件の正規化失敗を表す。
// 対象レコードのみを破棄し、バッチ全体は継続させるために使う。
type ConversionError struct {
	Kind     string // レコード種別: court_case / crime_report / infra_project
	RecordID string
	Reason   string
	Err      error
}

// Error はerrorインターフェースを実装する。
func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s %s の変換に失敗: %s", e.Kind, e.RecordID, e.Reason)
}

// Unwrap は原因エラーを返す。
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Normalizer はソース別の生レコードを統一Issueスキーマへ射影する。
// 射影は固定のフィールド対応であり、レコード間の結合は行わない純粋変換。
type Normalizer struct {
	logger *slog.Logger
	now    func() time.Time // テスト用に差し替え可能
}

// NewNormalizer はNormalizerの新しいインスタンスを生成する。
func NewNormalizer(logger *slog.Logger) *Normalizer {
	return &Normalizer{
		logger: logger,
		now:    time.Now,
	}
}

// FromStory はグルーピング済みストーリーをIssueへ正規化する。
// ストーリーは構造上必須フィールドを欠かないため失敗しない。
func (n *Normalizer) FromStory(story *model.NewsStory) *model.Issue {
	now := n.now()
	ageDays := ageDaysSince(story.FirstSeen, now)

	title := "News Update"
	if len(story.Titles) > 0 {
		title = story.Titles[0]
	}

	return &model.Issue{
		ID:          story.Key,
		Type:        model.IssueTypeNews,
		Category:    story.Category,
		Title:       model.TruncateTitle(title),
		Location:    story.Location,
		Severity:    SeverityForStory(story.Category, UpdateFrequency(story.UpdateCount, ageDays)),
		Progress:    0.0,
		Trend:       TrendForStory(story.UpdateCount, ageDays),
		FirstSeen:   story.FirstSeen,
		LastUpdated: story.LastUpdated,
		SourceCount: story.DistinctSourceCount(),
		UpdateCount: story.UpdateCount,
	}
}

// FromCourtCase は裁判案件をIssueへ正規化する。
// filed_dateがパースできない場合はConversionErrorを返す。
func (n *Normalizer) FromCourtCase(c model.RawCourtCase) (*model.Issue, error) {
	filed, err := time.Parse(dateLayout, c.FiledDate)
	if err != nil {
		return nil, &ConversionError{
			Kind:     "court_case",
			RecordID: c.ID,
			Reason:   fmt.Sprintf("filed_dateをパースできません: %q", c.FiledDate),
			Err:      err,
		}
	}

	now := n.now()
	ageDays := ageDaysSince(filed, now)

	category := c.Category
	if category == "" {
		category = "legal"
	}

	metadata := map[string]string{"court": c.Court}
	if c.NextHearing != "" {
		metadata["next_hearing"] = c.NextHearing
	}
	if c.LastHearing != "" {
		metadata["last_hearing"] = c.LastHearing
	}

	return &model.Issue{
		ID:          c.ID,
		Type:        model.IssueTypeLegal,
		Category:    category,
		Title:       model.TruncateTitle(c.Title),
		Location:    c.Location,
		Severity:    SeverityForCase(ageDays),
		Progress:    c.Progress,
		Trend:       TrendForCase(c.Status),
		FirstSeen:   filed,
		LastUpdated: now,
		SourceCount: 1,
		UpdateCount: 1,
		Status:      c.Status,
		Metadata:    metadata,
	}, nil
}

// FromCrimeReport は犯罪報告をIssueへ正規化する。
// reported_dateがパースできない場合はConversionErrorを返す。
func (n *Normalizer) FromCrimeReport(c model.RawCrimeReport) (*model.Issue, error) {
	reported, err := time.Parse(dateLayout, c.ReportedDate)
	if err != nil {
		return nil, &ConversionError{
			Kind:     "crime_report",
			RecordID: c.ID,
			Reason:   fmt.Sprintf("reported_dateをパースできません: %q", c.ReportedDate),
			Err:      err,
		}
	}

	now := n.now()

	return &model.Issue{
		ID:          c.ID,
		Type:        model.IssueTypeCrime,
		Category:    "security",
		Title:       model.TruncateTitle(fmt.Sprintf("%s - %s", titleCase(c.Type), c.Area)),
		Location:    c.Location,
		Severity:    SeverityForCrime(c.Frequency),
		Progress:    ProgressForCrime(c.Status),
		Trend:       TrendForCrime(c.Frequency),
		FirstSeen:   reported,
		LastUpdated: now,
		SourceCount: 1,
		UpdateCount: 1,
		Status:      c.Status,
		Metadata:    map[string]string{"frequency": fmt.Sprintf("%d", c.Frequency)},
	}, nil
}

// FromInfraProject はインフラ事業をIssueへ正規化する。
// startedがパースできない場合はConversionErrorを返す。
func (n *Normalizer) FromInfraProject(p model.RawInfraProject) (*model.Issue, error) {
	started, err := time.Parse(dateLayout, p.Started)
	if err != nil {
		return nil, &ConversionError{
			Kind:     "infra_project",
			RecordID: p.ID,
			Reason:   fmt.Sprintf("startedをパースできません: %q", p.Started),
			Err:      err,
		}
	}

	now := n.now()

	metadata := map[string]string{"expected_completion": p.ExpectedCompletion}
	if p.Budget != "" {
		metadata["budget"] = p.Budget
	}
	if p.Contractor != "" {
		metadata["contractor"] = p.Contractor
	}

	return &model.Issue{
		ID:          p.ID,
		Type:        model.IssueTypeInfrastructure,
		Category:    "development",
		Title:       model.TruncateTitle(p.Name),
		Location:    p.Location,
		Severity:    SeverityForInfra(p.Status),
		Progress:    p.Progress,
		Trend:       TrendForInfra(p.Status),
		FirstSeen:   started,
		LastUpdated: now,
		SourceCount: 1,
		UpdateCount: 1,
		Status:      p.Status,
		Metadata:    metadata,
	}, nil
}

// Batch は収集サイクル1回分の生レコード一式。
type Batch struct {
	Stories    map[string]*model.NewsStory
	CourtCases []model.RawCourtCase
	Crimes     []model.RawCrimeReport
	Projects   []model.RawInfraProject
}

// NormalizeBatch はバッチ全体をIssueへ正規化する。
// 変換に失敗したレコードは理由をログに残して破棄し、バッチは継続する。
// 戻り値の2番目は破棄されたレコード数。
func (n *Normalizer) NormalizeBatch(batch Batch) ([]*model.Issue, int) {
	issues := make([]*model.Issue, 0,
		len(batch.Stories)+len(batch.CourtCases)+len(batch.Crimes)+len(batch.Projects))
	dropped := 0

	for _, story := range batch.Stories {
		issues = append(issues, n.FromStory(story))
	}

	for _, c := range batch.CourtCases {
		issue, err := n.FromCourtCase(c)
		if err != nil {
			n.logDropped(err)
			dropped++
			continue
		}
		issues = append(issues, issue)
	}

	for _, c := range batch.Crimes {
		issue, err := n.FromCrimeReport(c)
		if err != nil {
			n.logDropped(err)
			dropped++
			continue
		}
		issues = append(issues, issue)
	}

	for _, p := range batch.Projects {
		issue, err := n.FromInfraProject(p)
		if err != nil {
			n.logDropped(err)
			dropped++
			continue
		}
		issues = append(issues, issue)
	}

	return issues, dropped
}

// logDropped は破棄レコードの理由を構造化ログに残す。
func (n *Normalizer) logDropped(err error) {
	if convErr, ok := err.(*ConversionError); ok {
		n.logger.Warn("レコードを正規化できないため破棄します",
			slog.String("kind", convErr.Kind),
			slog.String("record_id", convErr.RecordID),
			slog.String("reason", convErr.Reason),
		)
		return
	}
	n.logger.Warn("レコードを正規化できないため破棄します",
		slog.String("error", err.Error()),
	)
}

// ageDaysSince は経過日数（切り捨て、負値は0）を返す。
func ageDaysSince(from, now time.Time) int {
	days := int(now.Sub(from).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// titleCase は語ごとに先頭文字を大文字化する（"theft" → "Theft"）。
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
