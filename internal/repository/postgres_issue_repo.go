package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hitoshi/civiclens/internal/model"
)

// issueColumns はSELECT句で使用するissuesテーブルの列並び。
const issueColumns = `id, type, category, title,
       location_name, location_lat, location_lng, location_level,
       severity, progress, trend, first_seen, last_updated,
       source_count, update_count, status, metadata`

// PostgresIssueRepo はPostgreSQLを使用したIssueリポジトリ。
// UPSERTはINSERT ... ON CONFLICTで行単位にアトミックに実行され、
// 同一IDへの並行UPSERTは行ロックで直列化される。
type PostgresIssueRepo struct {
	db *sql.DB
}

// NewPostgresIssueRepo はPostgresIssueRepoを生成する。
func NewPostgresIssueRepo(db *sql.DB) *PostgresIssueRepo {
	return &PostgresIssueRepo{db: db}
}

// Upsert はIssueをID単位で挿入または上書きする。
// 既存行のfirst_seenはSET句に含めないことで保持される。
// last_updatedはfirst_seenより前に戻らないようGREATESTで繰り上げる。
func (r *PostgresIssueRepo) Upsert(ctx context.Context, issue *model.Issue) (bool, error) {
	firstSeen := issue.FirstSeen
	if firstSeen.IsZero() {
		firstSeen = time.Now()
	}
	lastUpdated := issue.LastUpdated
	if lastUpdated.IsZero() || lastUpdated.Before(firstSeen) {
		lastUpdated = firstSeen
	}

	metadata, err := json.Marshal(issue.Metadata)
	if err != nil {
		return false, fmt.Errorf("metadataのJSONエンコードに失敗しました: %w", err)
	}

	var inserted bool
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO issues (
		     id, type, category, title,
		     location_name, location_lat, location_lng, location_level,
		     severity, progress, trend, first_seen, last_updated,
		     source_count, update_count, status, metadata
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 ON CONFLICT (id) DO UPDATE SET
		     type           = EXCLUDED.type,
		     category       = EXCLUDED.category,
		     title          = EXCLUDED.title,
		     location_name  = EXCLUDED.location_name,
		     location_lat   = EXCLUDED.location_lat,
		     location_lng   = EXCLUDED.location_lng,
		     location_level = EXCLUDED.location_level,
		     severity       = EXCLUDED.severity,
		     progress       = EXCLUDED.progress,
		     trend          = EXCLUDED.trend,
		     last_updated   = GREATEST(EXCLUDED.last_updated, issues.first_seen),
		     source_count   = EXCLUDED.source_count,
		     update_count   = EXCLUDED.update_count,
		     status         = EXCLUDED.status,
		     metadata       = EXCLUDED.metadata
		 RETURNING (xmax = 0)`,
		issue.ID, string(issue.Type), issue.Category, issue.Title,
		issue.Location.Name, issue.Location.Lat, issue.Location.Lng, string(issue.Location.Level),
		string(issue.Severity), issue.Progress, string(issue.Trend), firstSeen, lastUpdated,
		issue.SourceCount, issue.UpdateCount, issue.Status, metadata,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("IssueのUPSERTに失敗しました: %w", err)
	}

	return inserted, nil
}

// FindByID は指定IDのIssueを取得する。見つからない場合はnilを返す。
func (r *PostgresIssueRepo) FindByID(ctx context.Context, id string) (*model.Issue, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+issueColumns+` FROM issues WHERE id = $1`, id)

	issue, err := scanIssue(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Issueの取得に失敗しました: %w", err)
	}
	return issue, nil
}

// ListByLocation は地域名が一致するIssue一覧を返す。nameが空の場合は全件。
func (r *PostgresIssueRepo) ListByLocation(ctx context.Context, name string) ([]*model.Issue, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+issueColumns+` FROM issues
		 WHERE $1 = '' OR location_name = $1
		 ORDER BY last_updated DESC, id`, name)
	if err != nil {
		return nil, fmt.Errorf("地域別Issue一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectIssues(rows)
}

// ListUpdatedSince はlast_updatedがcutoff以降のIssue一覧を返す。
func (r *PostgresIssueRepo) ListUpdatedSince(ctx context.Context, cutoff time.Time) ([]*model.Issue, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+issueColumns+` FROM issues
		 WHERE last_updated >= $1
		 ORDER BY last_updated DESC, id`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("更新Issue一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectIssues(rows)
}

// ListAll は全Issueを返す。
func (r *PostgresIssueRepo) ListAll(ctx context.Context) ([]*model.Issue, error) {
	return r.ListByLocation(ctx, "")
}

// Summarize は地域単位の集計を返す。nameが空の場合は全体を集計する。
func (r *PostgresIssueRepo) Summarize(ctx context.Context, name string) (*LocationSummary, error) {
	summary := &LocationSummary{
		LocationID: name,
		Categories: make(map[string]int),
		Severities: make(map[string]int),
	}

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE severity = 'critical'),
		        COUNT(*) FILTER (WHERE trend IN ('worsening', 'active')),
		        COUNT(*) FILTER (WHERE progress >= 1.0)
		 FROM issues WHERE $1 = '' OR location_name = $1`, name,
	).Scan(&summary.TotalIssues, &summary.CriticalIssues, &summary.ActiveIssues, &summary.ResolvedIssues)
	if err != nil {
		return nil, fmt.Errorf("Issue集計の取得に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT category, severity, COUNT(*) FROM issues
		 WHERE $1 = '' OR location_name = $1
		 GROUP BY category, severity`, name)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ別集計の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category, severity string
		var count int
		if err := rows.Scan(&category, &severity, &count); err != nil {
			return nil, fmt.Errorf("集計行のスキャンに失敗しました: %w", err)
		}
		summary.Categories[category] += count
		summary.Severities[severity] += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("集計行の読み取りに失敗しました: %w", err)
	}

	return summary, nil
}

// DeleteOlderThan はlast_updatedがcutoffより古いIssueを削除し、削除数を返す。
func (r *PostgresIssueRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM issues WHERE last_updated < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("期限切れIssueの削除に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除行数の取得に失敗しました: %w", err)
	}
	return int(affected), nil
}

// Ping はデータベース接続の死活確認を行う。
func (r *PostgresIssueRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// rowScanner は*sql.Rowと*sql.Rowsの共通スキャンインターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanIssue は1行分のIssueをスキャンする。
func scanIssue(row rowScanner) (*model.Issue, error) {
	issue := &model.Issue{}
	var issueType, severity, trend, level string
	var status sql.NullString
	var metadata []byte

	err := row.Scan(
		&issue.ID, &issueType, &issue.Category, &issue.Title,
		&issue.Location.Name, &issue.Location.Lat, &issue.Location.Lng, &level,
		&severity, &issue.Progress, &trend, &issue.FirstSeen, &issue.LastUpdated,
		&issue.SourceCount, &issue.UpdateCount, &status, &metadata,
	)
	if err != nil {
		return nil, err
	}

	issue.Type = model.IssueType(issueType)
	issue.Severity = model.Severity(severity)
	issue.Trend = model.Trend(trend)
	issue.Location.Level = model.LocationLevel(level)
	if status.Valid {
		issue.Status = status.String
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &issue.Metadata); err != nil {
			return nil, fmt.Errorf("metadataのJSONデコードに失敗しました: %w", err)
		}
	}

	return issue, nil
}

// collectIssues は結果セット全体をIssueスライスに変換する。
func collectIssues(rows *sql.Rows) ([]*model.Issue, error) {
	issues := make([]*model.Issue, 0)
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("Issue行のスキャンに失敗しました: %w", err)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Issue行の読み取りに失敗しました: %w", err)
	}
	return issues, nil
}
