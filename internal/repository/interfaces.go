// Package repository はIssueデータの永続化インターフェースを定義する。
// デフォルトはプロセス内メモリ実装で、DATABASE_URLが設定されている場合は
// PostgreSQL実装が選択される。両者は同一のUPSERT意味論を持つ。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/civiclens/internal/model"
)

// LocationSummary は地域単位のIssue集計結果。
type LocationSummary struct {
	LocationID     string
	TotalIssues    int
	CriticalIssues int
	ActiveIssues   int // trendがworseningまたはactiveのIssue数
	ResolvedIssues int // progress >= 1.0のIssue数
	Categories     map[string]int
	Severities     map[string]int
}

// IssueRepository はIssueの永続化インターフェース。
// 全操作はIssue単位でアトミックであり、同一IDへの並行UPSERTは直列化される。
type IssueRepository interface {
	// Upsert はIssueをID単位で挿入または上書きする。
	// 既存IssueがあればIDとFirstSeenを除く全フィールドを着信値で上書きする
	// （last-write-wins、フィールド単位のディープマージはしない）。
	// FirstSeenは作成後不変。新規挿入でFirstSeenがゼロ値の場合は現在時刻を設定する。
	// 戻り値は新規挿入だったかどうか。
	Upsert(ctx context.Context, issue *model.Issue) (inserted bool, err error)

	// FindByID は指定IDのIssueを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Issue, error)

	// ListByLocation は地域名が一致するIssue一覧を返す。
	// nameが空の場合は全Issueを返す。
	ListByLocation(ctx context.Context, name string) ([]*model.Issue, error)

	// ListUpdatedSince はlast_updatedがcutoff以降のIssue一覧を返す。
	// ライブ更新の配信に使用する。
	ListUpdatedSince(ctx context.Context, cutoff time.Time) ([]*model.Issue, error)

	// ListAll は全Issueを返す。エクスポートのフルスキャン用。
	ListAll(ctx context.Context) ([]*model.Issue, error)

	// Summarize は地域単位の集計（総数、critical数、活動中数、解決済み数、
	// カテゴリ別・深刻度別の内訳）を返す。nameが空の場合は全体を集計する。
	Summarize(ctx context.Context, name string) (*LocationSummary, error)

	// DeleteOlderThan はlast_updatedがcutoffより古いIssueを削除し、削除数を返す。
	// 保持期間ジョブ用。冪等であり削除対象がなくてもエラーにならない。
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	// Ping はバックエンドの死活確認を行う。
	Ping(ctx context.Context) error
}
