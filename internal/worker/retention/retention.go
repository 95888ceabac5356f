// Package retention はIssueデータの保持期間管理ジョブを提供する。
// 保持日数を超えて更新のないIssueを日次バッチで削除する。
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/civiclens/internal/repository"
)

// defaultInterval は保持ジョブの実行間隔。
const defaultInterval = 24 * time.Hour

// RetentionJob は保持期間を超過したIssueの自動削除ジョブ。
// RetentionDaysが0以下の場合は何も削除しない（無期限保持）。
// 冪等: 削除対象がない場合でもエラーにならない。
type RetentionJob struct {
	issueRepo     repository.IssueRepository
	logger        *slog.Logger
	RetentionDays int
	now           func() time.Time
}

// NewRetentionJob は新しいRetentionJobを生成する。
func NewRetentionJob(issueRepo repository.IssueRepository, logger *slog.Logger, retentionDays int) *RetentionJob {
	return &RetentionJob{
		issueRepo:     issueRepo,
		logger:        logger,
		RetentionDays: retentionDays,
		now:           time.Now,
	}
}

// Run はLastUpdatedが保持期間より古いIssueを削除する。
func (j *RetentionJob) Run(ctx context.Context) error {
	if j.RetentionDays <= 0 {
		j.logger.Info("保持期間が未設定のためIssue削除をスキップします")
		return nil
	}

	start := j.now()
	cutoff := start.AddDate(0, 0, -j.RetentionDays)

	deleted, err := j.issueRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error("Issue保持ジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("Issue保持ジョブの実行に失敗: %w", err)
	}

	j.logger.Info("Issue保持ジョブが完了しました",
		slog.Int("deleted_count", deleted),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// Start は日次ティッカーで保持ジョブを起動する。
// 起動直後に1回実行し、コンテキストがキャンセルされるまで継続する。
func (j *RetentionJob) Start(ctx context.Context) {
	ticker := time.NewTicker(defaultInterval)
	defer ticker.Stop()

	if err := j.Run(ctx); err != nil {
		j.logger.Error("Issue保持ジョブの初回実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("Issue保持ジョブを停止しました")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("Issue保持ジョブの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
