// Package model はドメインモデルを定義する。
package model

import "time"

// maxTitleLen はIssueタイトルの最大長。超過分は切り詰められる。
const maxTitleLen = 200

// IssueType はIssueの発生源の種別を表す。
type IssueType string

const (
	// IssueTypeNews はニュース報道由来のIssue。
	IssueTypeNews IssueType = "news"
	// IssueTypeLegal は裁判・訴訟由来のIssue。
	IssueTypeLegal IssueType = "legal"
	// IssueTypeCrime は犯罪報告由来のIssue。
	IssueTypeCrime IssueType = "crime"
	// IssueTypeInfrastructure はインフラ事業由来のIssue。
	IssueTypeInfrastructure IssueType = "infrastructure"
)

// Severity はIssueの深刻度ラベルを表す。low < medium < high < critical の順序を持つ。
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRanks はSeverityの順序比較用のランク値。
var severityRanks = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank はSeverityの順序ランクを返す。未知のラベルは-1。
func (s Severity) Rank() int {
	if r, ok := severityRanks[s]; ok {
		return r
	}
	return -1
}

// Trend はIssueの変化方向ラベルを表す。
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendActive    Trend = "active"
	TrendWorsening Trend = "worsening"
)

// IsActive はトレンドが「活動中」とみなされるか（worseningまたはactive）を返す。
func (t Trend) IsActive() bool {
	return t == TrendWorsening || t == TrendActive
}

// LocationLevel は地域の階層レベルを表す。
type LocationLevel string

const (
	LevelCountry LocationLevel = "country"
	LevelState   LocationLevel = "state"
	LevelCity    LocationLevel = "city"
)

// Location はIssueの発生地域を表す。
type Location struct {
	Name  string
	Lat   float64
	Lng   float64
	Level LocationLevel
}

// Issue は追跡対象の市民課題1件を表す統一レコード。
// IDはソースと内容から導出される安定識別子であり、同一の論理的事象を
// 再取り込みしても同じIDに解決される。
type Issue struct {
	ID          string
	Type        IssueType
	Category    string
	Title       string
	Location    Location
	Severity    Severity
	Progress    float64 // 0.0〜1.0
	Trend       Trend
	FirstSeen   time.Time // 作成後は不変
	LastUpdated time.Time
	SourceCount int
	UpdateCount int
	Status      string
	Metadata    map[string]string
}

// AgeDays はFirstSeenからの経過日数（切り捨て）を返す。導出値であり保存されない。
func (i *Issue) AgeDays(now time.Time) int {
	days := int(now.Sub(i.FirstSeen).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// TruncateTitle はタイトルを表示上限の長さに切り詰める。
func TruncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleLen {
		return title
	}
	return string(runes[:maxTitleLen])
}
