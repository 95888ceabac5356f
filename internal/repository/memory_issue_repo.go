package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/civiclens/internal/model"
)

// MemoryIssueRepo はプロセス内メモリを使用したIssueリポジトリ。
// 外部永続化を必要としないデプロイのデフォルト実装であり、
// UPSERT意味論のリファレンス実装でもある。
// 全操作はRWMutexで保護され、同一IDへの並行UPSERTはロックで直列化される。
// 格納・返却時にIssueを複製するため、呼び出し側の変更が内部状態に漏れない。
type MemoryIssueRepo struct {
	mu     sync.RWMutex
	issues map[string]*model.Issue
	now    func() time.Time // テスト用に差し替え可能
}

// NewMemoryIssueRepo はMemoryIssueRepoを生成する。
func NewMemoryIssueRepo() *MemoryIssueRepo {
	return &MemoryIssueRepo{
		issues: make(map[string]*model.Issue),
		now:    time.Now,
	}
}

// Upsert はIssueをID単位で挿入または上書きする。
// 既存レコードのFirstSeenは保持され、それ以外の全フィールドが着信値で置き換わる。
// FirstSeen <= LastUpdated の不変条件を維持するため、
// 着信LastUpdatedがFirstSeenより前の場合はFirstSeenに繰り上げる。
func (r *MemoryIssueRepo) Upsert(_ context.Context, issue *model.Issue) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	incoming := cloneIssue(issue)

	existing, ok := r.issues[issue.ID]
	if ok {
		incoming.FirstSeen = existing.FirstSeen
	} else if incoming.FirstSeen.IsZero() {
		incoming.FirstSeen = now
	}

	if incoming.LastUpdated.IsZero() || incoming.LastUpdated.Before(incoming.FirstSeen) {
		incoming.LastUpdated = incoming.FirstSeen
	}

	r.issues[issue.ID] = incoming
	return !ok, nil
}

// FindByID は指定IDのIssueを取得する。見つからない場合はnilを返す。
func (r *MemoryIssueRepo) FindByID(_ context.Context, id string) (*model.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	issue, ok := r.issues[id]
	if !ok {
		return nil, nil
	}
	return cloneIssue(issue), nil
}

// ListByLocation は地域名が一致するIssue一覧を返す。nameが空の場合は全件。
func (r *MemoryIssueRepo) ListByLocation(_ context.Context, name string) ([]*model.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Issue, 0, len(r.issues))
	for _, issue := range r.issues {
		if name != "" && issue.Location.Name != name {
			continue
		}
		out = append(out, cloneIssue(issue))
	}
	sortIssues(out)
	return out, nil
}

// ListUpdatedSince はlast_updatedがcutoff以降のIssue一覧を返す。
func (r *MemoryIssueRepo) ListUpdatedSince(_ context.Context, cutoff time.Time) ([]*model.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Issue, 0)
	for _, issue := range r.issues {
		if issue.LastUpdated.Before(cutoff) {
			continue
		}
		out = append(out, cloneIssue(issue))
	}
	sortIssues(out)
	return out, nil
}

// ListAll は全Issueを返す。
func (r *MemoryIssueRepo) ListAll(ctx context.Context) ([]*model.Issue, error) {
	return r.ListByLocation(ctx, "")
}

// Summarize は地域単位の集計を返す。nameが空の場合は全体を集計する。
func (r *MemoryIssueRepo) Summarize(_ context.Context, name string) (*LocationSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary := &LocationSummary{
		LocationID: name,
		Categories: make(map[string]int),
		Severities: make(map[string]int),
	}

	for _, issue := range r.issues {
		if name != "" && issue.Location.Name != name {
			continue
		}
		summary.TotalIssues++
		if issue.Severity == model.SeverityCritical {
			summary.CriticalIssues++
		}
		if issue.Trend.IsActive() {
			summary.ActiveIssues++
		}
		if issue.Progress >= 1.0 {
			summary.ResolvedIssues++
		}
		summary.Categories[issue.Category]++
		summary.Severities[string(issue.Severity)]++
	}

	return summary, nil
}

// DeleteOlderThan はlast_updatedがcutoffより古いIssueを削除し、削除数を返す。
func (r *MemoryIssueRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for id, issue := range r.issues {
		if issue.LastUpdated.Before(cutoff) {
			delete(r.issues, id)
			deleted++
		}
	}
	return deleted, nil
}

// Ping はメモリ実装では常に成功する。
func (r *MemoryIssueRepo) Ping(_ context.Context) error {
	return nil
}

// cloneIssue はIssueの独立した複製を返す。Metadataマップも複製する。
func cloneIssue(issue *model.Issue) *model.Issue {
	clone := *issue
	if issue.Metadata != nil {
		clone.Metadata = make(map[string]string, len(issue.Metadata))
		for k, v := range issue.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}

// sortIssues は一覧応答の順序を安定させるためlast_updated降順・ID昇順でソートする。
func sortIssues(issues []*model.Issue) {
	sort.Slice(issues, func(i, j int) bool {
		if !issues[i].LastUpdated.Equal(issues[j].LastUpdated) {
			return issues[i].LastUpdated.After(issues[j].LastUpdated)
		}
		return issues[i].ID < issues[j].ID
	})
}
