package model

import "time"

// RawNewsItem はニュースアダプタが返す1記事分の生レコード。
// アダプタ境界で必須フィールドを検証済みであることが契約であり、
// 欠損フィールドを持つレコードはアダプタから出てこない。
type RawNewsItem struct {
	Title     string
	Summary   string // サニタイズ済みプレーンテキスト（最大200文字）
	Link      string
	Source    string // 媒体名（例: "The Hindu"）
	Category  string
	Location  Location
	Published time.Time
}

// RawCourtCase は裁判所アダプタが返す1件分の生レコード。
type RawCourtCase struct {
	ID          string
	Title       string
	FiledDate   string // "2006-01-02" 形式。パース失敗はそのレコードのみ破棄される。
	Status      string // "ongoing" / "resolved" など
	Court       string
	Location    Location
	Progress    float64
	Category    string
	LastHearing string
	NextHearing string
}

// RawCrimeReport は犯罪データアダプタが返す1件分の生レコード。
type RawCrimeReport struct {
	ID           string
	Type         string // "theft" / "cybercrime" など
	Area         string
	Location     Location
	ReportedDate string // "2006-01-02" 形式
	Status       string // "fir_filed" / "under_investigation" など
	Frequency    int    // 同種事案の発生頻度
}

// RawInfraProject はインフラアダプタが返す1事業分の生レコード。
type RawInfraProject struct {
	ID                 string
	Name               string
	Location           Location
	Started            string // "2006-01-02" 形式
	ExpectedCompletion string
	Progress           float64
	Status             string // "on_track" / "delayed" など
	Budget             string
	Contractor         string
}

// NewsStory は収集サイクル内でのみ存在する中間レコード。
// 近接重複するニュース記事をグルーピングキーで1つの論理的ストーリーに束ね、
// 正規化時にIssueへ畳み込まれる。
type NewsStory struct {
	Key         string
	Category    string
	Location    Location
	Sources     []string // 重複を含む媒体名リスト。SourceCountは重複排除後の数。
	Titles      []string
	FirstSeen   time.Time
	LastUpdated time.Time
	UpdateCount int
}

// DistinctSourceCount は重複を除いた媒体数を返す。
func (s *NewsStory) DistinctSourceCount() int {
	seen := make(map[string]struct{}, len(s.Sources))
	for _, src := range s.Sources {
		seen[src] = struct{}{}
	}
	return len(seen)
}
