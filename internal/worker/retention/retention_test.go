package retention

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/civiclens/internal/model"
	"github.com/hitoshi/civiclens/internal/repository"
)

// mockIssueRepo はDeleteOlderThanの呼び出しを記録するモックリポジトリ。
type mockIssueRepo struct {
	repository.IssueRepository
	deleteCalls  int
	deleteCutoff time.Time
	deleteCount  int
	deleteErr    error
}

func (m *mockIssueRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	m.deleteCalls++
	m.deleteCutoff = cutoff
	return m.deleteCount, m.deleteErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestRun_SkipsWhenRetentionDisabled は保持日数0以下で削除が走らないことをテストする。
func TestRun_SkipsWhenRetentionDisabled(t *testing.T) {
	for _, days := range []int{0, -1} {
		repo := &mockIssueRepo{}
		job := NewRetentionJob(repo, discardLogger(), days)

		if err := job.Run(context.Background()); err != nil {
			t.Fatalf("Run(days=%d) returned error: %v", days, err)
		}
		if repo.deleteCalls != 0 {
			t.Errorf("deleteCalls = %d, want 0 when retention days = %d", repo.deleteCalls, days)
		}
	}
}

// TestRun_DeletesWithComputedCutoff はカットオフが現在時刻から保持日数分遡ることをテストする。
func TestRun_DeletesWithComputedCutoff(t *testing.T) {
	repo := &mockIssueRepo{deleteCount: 12}
	job := NewRetentionJob(repo, discardLogger(), 30)
	fixed := time.Date(2026, 3, 6, 3, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return fixed }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if repo.deleteCalls != 1 {
		t.Fatalf("deleteCalls = %d, want 1", repo.deleteCalls)
	}
	want := fixed.AddDate(0, 0, -30)
	if !repo.deleteCutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", repo.deleteCutoff, want)
	}
}

// TestRun_NoMatchesIsNotAnError は削除対象ゼロでも正常終了することをテストする。
func TestRun_NoMatchesIsNotAnError(t *testing.T) {
	repo := &mockIssueRepo{deleteCount: 0}
	job := NewRetentionJob(repo, discardLogger(), 7)

	if err := job.Run(context.Background()); err != nil {
		t.Errorf("Run returned error: %v", err)
	}
}

// TestRun_WrapsRepositoryError はリポジトリエラーがラップして返ることをテストする。
func TestRun_WrapsRepositoryError(t *testing.T) {
	repoErr := errors.New("connection reset")
	repo := &mockIssueRepo{deleteErr: repoErr}
	job := NewRetentionJob(repo, discardLogger(), 7)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("Run should have returned error")
	}
	if !errors.Is(err, repoErr) {
		t.Errorf("err = %v, should wrap %v", err, repoErr)
	}
}

// TestRun_DeletesOldIssuesFromMemoryRepo はメモリ実装と組み合わせた削除動作をテストする。
func TestRun_DeletesOldIssuesFromMemoryRepo(t *testing.T) {
	repo := repository.NewMemoryIssueRepo()
	ctx := context.Background()

	fixed := time.Date(2026, 3, 6, 3, 0, 0, 0, time.UTC)
	old := &model.Issue{ID: "stale", Location: model.Location{Name: "Bangalore"}, FirstSeen: fixed.AddDate(0, 0, -60), LastUpdated: fixed.AddDate(0, 0, -60)}
	fresh := &model.Issue{ID: "fresh", Location: model.Location{Name: "Bangalore"}, FirstSeen: fixed.AddDate(0, 0, -1), LastUpdated: fixed.AddDate(0, 0, -1)}
	for _, issue := range []*model.Issue{old, fresh} {
		if _, err := repo.Upsert(ctx, issue); err != nil {
			t.Fatalf("seed upsert failed: %v", err)
		}
	}

	job := NewRetentionJob(repo, discardLogger(), 30)
	job.now = func() time.Time { return fixed }

	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got, _ := repo.FindByID(ctx, "stale"); got != nil {
		t.Error("stale issue should have been deleted")
	}
	if got, _ := repo.FindByID(ctx, "fresh"); got == nil {
		t.Error("fresh issue should have been kept")
	}
}
