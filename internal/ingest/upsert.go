package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/civiclens/internal/model"
	"github.com/hitoshi/civiclens/internal/repository"
)

// IssueUpsertService は正規化済みIssueのUPSERT処理を提供する。
// 同一性判定はIssue ID（ストーリーキーまたはソース由来ID）のみで行い、
// 原子性はリポジトリ実装に委譲する。
type IssueUpsertService struct {
	issueRepo repository.IssueRepository
}

// NewIssueUpsertService はIssueUpsertServiceの新しいインスタンスを生成する。
func NewIssueUpsertService(issueRepo repository.IssueRepository) *IssueUpsertService {
	return &IssueUpsertService{
		issueRepo: issueRepo,
	}
}

// UpsertIssues は正規化済みIssueをUPSERTする。
// 既存IssueのFirstSeenは保持され、LastUpdatedとカウント類が更新される。
// 戻り値は挿入数、更新数、エラー。途中で失敗した場合はその時点までの件数を返す。
func (s *IssueUpsertService) UpsertIssues(
	ctx context.Context,
	issues []*model.Issue,
) (inserted int, updated int, err error) {
	if len(issues) == 0 {
		return 0, 0, nil
	}

	for _, issue := range issues {
		wasInserted, upsertErr := s.issueRepo.Upsert(ctx, issue)
		if upsertErr != nil {
			slog.Error("IssueのUPSERTでエラー",
				"issue_id", issue.ID,
				"category", issue.Category,
				"error", upsertErr,
			)
			return inserted, updated, fmt.Errorf("IssueのUPSERTに失敗: %w", upsertErr)
		}
		if wasInserted {
			inserted++
		} else {
			updated++
		}
	}

	slog.Info("Issue UPSERT完了",
		"inserted", inserted,
		"updated", updated,
	)

	return inserted, updated, nil
}
