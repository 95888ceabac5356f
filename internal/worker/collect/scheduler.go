package collect

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler は収集サイクルの定期実行を行う。
// 起動直後に1回実行し、以降は指定間隔のティッカーで繰り返す。
type Scheduler struct {
	collector *Collector
	logger    *slog.Logger
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
func NewScheduler(collector *Collector, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		collector: collector,
		logger:    logger,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("収集スケジューラを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	if err := s.collector.RunCycle(ctx); err != nil {
		s.logger.Error("収集サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("収集スケジューラを停止しました")
			return
		case <-ticker.C:
			if err := s.collector.RunCycle(ctx); err != nil {
				s.logger.Error("収集サイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
