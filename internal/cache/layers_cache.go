// Package cache は収集サイクル間で共有されるスナップショットの保持を提供する。
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hitoshi/civiclens/internal/model"
)

// PopulateFunc はキャッシュミス時にレイヤー一式を構築する関数。
type PopulateFunc func(ctx context.Context) model.CivicLayers

// LayersCache は市民データレイヤーのスナップショットキャッシュ。
// 収集サイクルが定期的にSetで差し替え、ハンドラはGetで読む。
// キャッシュが空の状態で複数リクエストが同時に来ても、
// 構築処理は1つだけ実行され、残りはその完了を待って同じ結果を受け取る。
type LayersCache struct {
	mu       sync.Mutex
	layers   *model.CivicLayers
	inflight chan struct{} // 構築中のみ非nil。closeで完了を通知する。
}

// NewLayersCache はLayersCacheの新しいインスタンスを生成する。
func NewLayersCache() *LayersCache {
	return &LayersCache{}
}

// Set はスナップショットをまるごと差し替える。
func (c *LayersCache) Set(layers model.CivicLayers) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layers = &layers
}

// Get は現在のスナップショットを返す。未設定の場合はok=falseを返す。
func (c *LayersCache) Get() (model.CivicLayers, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.layers == nil {
		return model.CivicLayers{}, false
	}
	return *c.layers, true
}

// GetOrPopulate は現在のスナップショットを返し、未設定の場合はpopulateで構築する。
// 構築は同時に1つしか実行されず、後続の呼び出しは先行の構築完了を待つ。
// ctxのキャンセル時は構築を待たずにゼロ値とctx.Err()を返す。
func (c *LayersCache) GetOrPopulate(ctx context.Context, populate PopulateFunc) (model.CivicLayers, error) {
	for {
		c.mu.Lock()
		if c.layers != nil {
			layers := *c.layers
			c.mu.Unlock()
			return layers, nil
		}

		if c.inflight != nil {
			// 別の呼び出しが構築中。完了を待って再取得する。
			done := c.inflight
			c.mu.Unlock()
			select {
			case <-done:
				continue
			case <-ctx.Done():
				return model.CivicLayers{}, ctx.Err()
			}
		}

		// 自分が構築担当になる
		done := make(chan struct{})
		c.inflight = done
		c.mu.Unlock()

		layers := populate(ctx)

		c.mu.Lock()
		c.layers = &layers
		c.inflight = nil
		c.mu.Unlock()
		close(done)

		return layers, nil
	}
}

// LastUpdated はスナップショットの最終更新時刻を返す。未設定の場合はゼロ値。
func (c *LayersCache) LastUpdated() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.layers == nil {
		return time.Time{}
	}
	return c.layers.LastUpdated
}
