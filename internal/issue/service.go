// Package issue はIssueの照会機能を提供する。
package issue

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/civiclens/internal/model"
	"github.com/hitoshi/civiclens/internal/repository"
)

// ListFilter はIssue一覧の絞り込み条件。ゼロ値のフィールドは条件なしとして扱う。
type ListFilter struct {
	Location string
	Category string
	Severity string
}

// Service はIssueの照会サービス。
type Service struct {
	issueRepo repository.IssueRepository
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(issueRepo repository.IssueRepository) *Service {
	return &Service{
		issueRepo: issueRepo,
		now:       time.Now,
	}
}

// List は絞り込み条件に一致するIssue一覧を返す。
// 結果はLastUpdated降順（同時刻はID昇順）で安定している。
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*model.Issue, error) {
	issues, err := s.issueRepo.ListByLocation(ctx, filter.Location)
	if err != nil {
		return nil, fmt.Errorf("Issue一覧の取得に失敗: %w", err)
	}

	if filter.Category == "" && filter.Severity == "" {
		return issues, nil
	}

	filtered := make([]*model.Issue, 0, len(issues))
	for _, issue := range issues {
		if filter.Category != "" && issue.Category != filter.Category {
			continue
		}
		if filter.Severity != "" && string(issue.Severity) != filter.Severity {
			continue
		}
		filtered = append(filtered, issue)
	}
	return filtered, nil
}

// Get はIDでIssueを1件取得する。存在しない場合は(nil, nil)を返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Issue, error) {
	issue, err := s.issueRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Issueの取得に失敗: %w", err)
	}
	return issue, nil
}

// Summary は地域別の集計サマリーを返す。locationが空の場合は全地域を対象とする。
func (s *Service) Summary(ctx context.Context, location string) (*repository.LocationSummary, error) {
	summary, err := s.issueRepo.Summarize(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("サマリーの集計に失敗: %w", err)
	}
	return summary, nil
}

// LiveUpdates は直近window以内に更新されたIssueを返す。
// ライブフィードとWebSocketプッシュの両方がこの結果を使う。
func (s *Service) LiveUpdates(ctx context.Context, window time.Duration) ([]*model.Issue, error) {
	since := s.now().Add(-window)
	issues, err := s.issueRepo.ListUpdatedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("ライブ更新の取得に失敗: %w", err)
	}
	return issues, nil
}

// UpdatedSince は指定時刻以降に更新されたIssueを返す。
func (s *Service) UpdatedSince(ctx context.Context, since time.Time) ([]*model.Issue, error) {
	issues, err := s.issueRepo.ListUpdatedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("ライブ更新の取得に失敗: %w", err)
	}
	return issues, nil
}
