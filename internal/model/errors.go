package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, data, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeIssueNotFound = "ISSUE_NOT_FOUND"
	ErrCodeLayerNotFound = "LAYER_NOT_FOUND"
	ErrCodeAreaNotFound  = "AREA_NOT_FOUND"
	ErrCodeInvalidSince  = "INVALID_SINCE"
	ErrCodeRefreshFailed = "REFRESH_FAILED"
)

// NewIssueNotFoundError はIssue未検出エラーを生成する。
func NewIssueNotFoundError(issueID string) *APIError {
	return &APIError{
		Code:     ErrCodeIssueNotFound,
		Message:  fmt.Sprintf("指定されたIssueが見つかりません: %s", issueID),
		Category: "data",
		Action:   "Issue IDを確認してください。",
	}
}

// NewLayerNotFoundError は市民データレイヤー未検出エラーを生成する。
func NewLayerNotFoundError(layer string) *APIError {
	return &APIError{
		Code:     ErrCodeLayerNotFound,
		Message:  fmt.Sprintf("指定されたレイヤーが見つかりません: %s", layer),
		Category: "validation",
		Action:   "レイヤー名には air_quality、crime_stats、infrastructure、water_quality、transport のいずれかを指定してください。",
	}
}

// NewAreaNotFoundError はエリア未検出エラーを生成する。
func NewAreaNotFoundError(area string) *APIError {
	return &APIError{
		Code:     ErrCodeAreaNotFound,
		Message:  fmt.Sprintf("指定されたエリアが見つかりません: %s", area),
		Category: "data",
		Action:   "エリア名を確認してください。",
	}
}

// NewInvalidSinceError はsinceパラメータが無効な場合のエラーを生成する。
func NewInvalidSinceError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSince,
		Message:  fmt.Sprintf("無効なsinceパラメータです: %s", raw),
		Category: "validation",
		Action:   "sinceにはRFC 3339形式のタイムスタンプを指定してください。",
	}
}

// NewRefreshFailedError は手動リフレッシュ失敗エラーを生成する。
func NewRefreshFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeRefreshFailed,
		Message:  fmt.Sprintf("データの再収集に失敗しました: %s", reason),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
