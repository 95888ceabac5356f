package adapter

import (
	"sync"
	"time"
)

// FetchResult はHTTPステータスコードに基づくフェッチ結果の分類。
type FetchResult int

const (
	// FetchResultOK はフェッチ成功（200）。
	FetchResultOK FetchResult = iota
	// FetchResultGone は当面回復が見込めないステータス（404/410/401/403）。
	FetchResultGone
	// FetchResultBackoff はバックオフが必要なステータス（429/5xx）。
	FetchResultBackoff
	// FetchResultUnknown は未知のステータスコード。
	FetchResultUnknown
)

const (
	// initialBackoff は指数バックオフの初回遅延（30分）。
	initialBackoff = 30 * time.Minute
	// maxBackoff は指数バックオフの最大遅延（12時間）。
	maxBackoff = 12 * time.Hour
)

// ClassifyHTTPStatus はHTTPステータスコードをフェッチ結果に分類する。
func ClassifyHTTPStatus(statusCode int) FetchResult {
	switch {
	case statusCode == 200:
		return FetchResultOK
	case statusCode == 404 || statusCode == 410:
		return FetchResultGone
	case statusCode == 401 || statusCode == 403:
		return FetchResultGone
	case statusCode == 429:
		return FetchResultBackoff
	case statusCode >= 500:
		return FetchResultBackoff
	default:
		return FetchResultUnknown
	}
}

// CalculateBackoff は連続エラー回数に基づいて指数バックオフ遅延を計算する。
// 初回30分、2倍ずつ増加、最大12時間。
func CalculateBackoff(consecutiveErrors int) time.Duration {
	delay := initialBackoff
	for i := 0; i < consecutiveErrors; i++ {
		delay *= 2
		if delay > maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// sourceHealth は媒体ごとのフェッチ健全性の追跡。
// 媒体一覧は固定設定のため永続的な停止はせず、回復見込みのない
// ステータスには最大バックオフを即時適用する。
type sourceHealth struct {
	mu                sync.Mutex
	consecutiveErrors map[string]int
	nextFetchAt       map[string]time.Time
}

func newSourceHealth() *sourceHealth {
	return &sourceHealth{
		consecutiveErrors: make(map[string]int),
		nextFetchAt:       make(map[string]time.Time),
	}
}

// ShouldSkip はバックオフ期間中の媒体かどうかを返す。
func (h *sourceHealth) ShouldSkip(key string, now time.Time) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	next, ok := h.nextFetchAt[key]
	return ok && now.Before(next)
}

// ApplySuccess はフェッチ成功時に媒体の状態をリセットする。
func (h *sourceHealth) ApplySuccess(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.consecutiveErrors, key)
	delete(h.nextFetchAt, key)
}

// ApplyFailure はフェッチ失敗時に指数バックオフを適用し、次回フェッチ可能時刻を返す。
// statusCodeが0の場合はネットワークエラーとして通常のバックオフを適用する。
func (h *sourceHealth) ApplyFailure(key string, statusCode int, now time.Time) time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.consecutiveErrors[key]++

	var delay time.Duration
	if ClassifyHTTPStatus(statusCode) == FetchResultGone {
		delay = maxBackoff
	} else {
		delay = CalculateBackoff(h.consecutiveErrors[key] - 1)
	}

	next := now.Add(delay)
	h.nextFetchAt[key] = next
	return next
}
