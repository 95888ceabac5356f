// Package ingest は生レコードからIssueを導出するパイプラインを提供する。
// ストーリーのグルーピング、深刻度・トレンドの分類、統一スキーマへの正規化、
// IssueのUPSERT処理を含む。
package ingest

import (
	"sort"
	"strings"

	"github.com/hitoshi/civiclens/internal/model"
)

// stopWords はグルーピングキーから除外する語。
var stopWords = map[string]struct{}{
	"their": {},
	"there": {},
	"which": {},
	"where": {},
}

// significantWordLen はキーに採用する語の最小長（この長さを超える語のみ採用）。
const significantWordLen = 4

// maxKeyWords はキーに採用する語の最大数。
const maxKeyWords = 3

// StoryKey はニュース記事からグルーピングキーを導出する。
// キーは カテゴリ + 地域名 + タイトル語集合の先頭3つの有意語（ソート済み）で構成される。
// 有意語はタイトルの出現順で重複排除した語のうち、5文字以上かつ除外語でないもの。
//
// これは意図的に粗い指紋であり、語順の違いや余分な語を含む近接重複タイトルは
// 別ストーリーに分かれることがある。近似ヒューリスティックとして扱い、
// 同一性の厳密な根拠にはしないこと。
func StoryKey(item model.RawNewsItem) string {
	words := strings.Fields(strings.ToLower(item.Title))

	// 出現順を保った重複排除（決定的な「語集合」の走査順を保証する）
	seen := make(map[string]struct{}, len(words))
	significant := make([]string, 0, maxKeyWords)
	for _, w := range words {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}

		if len(w) <= significantWordLen {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		significant = append(significant, w)
		if len(significant) == maxKeyWords {
			break
		}
	}

	sort.Strings(significant)

	parts := []string{
		item.Category,
		item.Location.Name,
		strings.Join(significant, "_"),
	}
	return strings.Join(parts, "_")
}

// GroupStories は近接重複するニュース記事を論理的ストーリーに束ねる。
// 入力順が同じであれば常に同じキー集合と所属を生成する（決定的）。
// グループサイズに上限はなく、時間窓によるカットオフも行わない。
// 1年前のストーリーでも同じキーを持つ新着記事を取り込む。
func GroupStories(items []model.RawNewsItem) map[string]*model.NewsStory {
	stories := make(map[string]*model.NewsStory)

	for _, item := range items {
		key := StoryKey(item)

		story, ok := stories[key]
		if !ok {
			story = &model.NewsStory{
				Key:         key,
				Category:    item.Category,
				Location:    item.Location,
				FirstSeen:   item.Published,
				LastUpdated: item.Published,
			}
			stories[key] = story
		}

		story.Sources = append(story.Sources, item.Source)
		story.Titles = append(story.Titles, item.Title)
		story.UpdateCount++

		if item.Published.After(story.LastUpdated) {
			story.LastUpdated = item.Published
		}
	}

	return stories
}
