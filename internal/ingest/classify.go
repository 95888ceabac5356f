package ingest

import "github.com/hitoshi/civiclens/internal/model"

// UpdateFrequency は更新頻度（1日あたりの更新回数）を計算する。
// age_daysが0の場合は1日として扱う。
func UpdateFrequency(updateCount, ageDays int) float64 {
	if ageDays < 1 {
		ageDays = 1
	}
	return float64(updateCount) / float64(ageDays)
}

// SeverityForStory はニュースストーリーの深刻度を分類する。
// 判定は上から順に評価され、最初にマッチした分岐が採用される。
// crime/healthカテゴリで頻度が1.0以下の場合は自分岐を素通りして
// 汎用の0.2閾値に落ちる（crimeで頻度0.3ならmedium）。
// 比較はすべて厳密な「より大きい」であり、境界値はマッチしない。
func SeverityForStory(category string, updateFrequency float64) model.Severity {
	switch {
	case (category == "crime" || category == "health") && updateFrequency > 1.0:
		return model.SeverityCritical
	case (category == "legal" || category == "governance") && updateFrequency > 0.5:
		return model.SeverityHigh
	case updateFrequency > 0.2:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// TrendForStory はニュースストーリーのトレンドを分類する。
// rate=1.0ちょうどは「> 1.0」にマッチせず「> 0.5」に落ちてactiveになる。
// rate=0.1ちょうどは「> 0.1」にマッチせずimprovingになる。
func TrendForStory(updateCount, ageDays int) model.Trend {
	rate := UpdateFrequency(updateCount, ageDays)

	switch {
	case rate > 1.0:
		return model.TrendWorsening
	case rate > 0.5:
		return model.TrendActive
	case rate > 0.1:
		return model.TrendStable
	default:
		return model.TrendImproving
	}
}

// --- ソース種別ごとの分類規則。ニュース向けの汎用規則とは統合しない。 ---

// SeverityForCase は裁判案件の深刻度を分類する。係争1年超でhigh。
func SeverityForCase(ageDays int) model.Severity {
	if ageDays > 365 {
		return model.SeverityHigh
	}
	return model.SeverityMedium
}

// TrendForCase は裁判案件のトレンドを分類する。
func TrendForCase(status string) model.Trend {
	if status == "ongoing" {
		return model.TrendStable
	}
	return model.TrendImproving
}

// SeverityForCrime は犯罪報告の深刻度を分類する。発生頻度10超でcritical。
func SeverityForCrime(frequency int) model.Severity {
	if frequency > 10 {
		return model.SeverityCritical
	}
	return model.SeverityHigh
}

// TrendForCrime は犯罪報告のトレンドを分類する。発生頻度5超でworsening。
func TrendForCrime(frequency int) model.Trend {
	if frequency > 5 {
		return model.TrendWorsening
	}
	return model.TrendStable
}

// ProgressForCrime は犯罪報告の進捗を状態から導出する。
// FIR登録直後は0.2、捜査が動いている状態は0.5。
func ProgressForCrime(status string) float64 {
	if status == "fir_filed" {
		return 0.2
	}
	return 0.5
}

// SeverityForInfra はインフラ事業の深刻度を分類する。遅延中はhigh。
func SeverityForInfra(status string) model.Severity {
	if status == "delayed" {
		return model.SeverityHigh
	}
	return model.SeverityLow
}

// TrendForInfra はインフラ事業のトレンドを分類する。
func TrendForInfra(status string) model.Trend {
	if status == "on_track" {
		return model.TrendImproving
	}
	return model.TrendWorsening
}
