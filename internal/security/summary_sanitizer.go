package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// SummarySanitizerService はニュース要約のサニタイズ機能のインターフェースを定義する。
// RSSフィードのdescriptionはHTML断片を含むことが多いため、
// Issueに保存する前にプレーンテキスト化する。
type SummarySanitizerService interface {
	// Sanitize はHTML断片からタグをすべて除去し、実体参照をデコードした
	// プレーンテキストを返す。空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(rawHTML string) string
}

// summarySanitizer はSummarySanitizerServiceの実装。
// bluemondayのStrictPolicy（全タグ除去）を保持し、スレッドセーフに動作する。
type summarySanitizer struct {
	policy *bluemonday.Policy
}

// NewSummarySanitizer はSummarySanitizerServiceの新しいインスタンスを生成する。
// 要約は地図UIのカードにテキスト表示されるだけなので、許可タグは一切なし。
func NewSummarySanitizer() *summarySanitizer {
	return &summarySanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はHTML断片をプレーンテキストに変換する。
// StrictPolicyはタグ除去後にエスケープされた実体参照を残すため、
// html.UnescapeStringで可読テキストに戻し、前後の空白を刈り取る。
func (s *summarySanitizer) Sanitize(rawHTML string) string {
	stripped := s.policy.Sanitize(rawHTML)
	return strings.TrimSpace(html.UnescapeString(stripped))
}
