// 包 store 提供审计历史的存储实现（SQLite），包含表迁移/写入/查询操作。
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"go-og-audit/internal/model"
)

// SQLite 封装 *sql.DB，基于 modernc.org/sqlite（纯 Go 实现）。
type SQLite struct {
	db *sql.DB
}

// Run 为一次审计的摘要记录。
type Run struct {
	ID           string
	BaseURL      string
	AuditedAt    time.Time
	TotalPages   int
	AverageScore int
}

// PageRecord 为某次审计中的单页得分。
type PageRecord struct {
	URL    string
	Path   string
	Score  int
	Issues []string
}

// OpenSQLite 打开 SQLite 数据库并执行自动迁移。
func OpenSQLite(path string) (*SQLite, error) {
	// modernc sqlite 的 DSN 可直接使用文件路径，或以 'file:...' 前缀表示
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// migrate 执行建表语句，保持幂等。
func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
            id TEXT PRIMARY KEY,
            base_url TEXT,
            audited_at TIMESTAMP,
            total_pages INTEGER,
            average_score INTEGER
        );`,
		`CREATE TABLE IF NOT EXISTS pages (
            run_id TEXT,
            seq INTEGER,
            url TEXT,
            path TEXT,
            score INTEGER,
            issues TEXT,
            PRIMARY KEY (run_id, seq)
        );`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("exec migrate: %w", err)
		}
	}
	return nil
}

// RecordRun 在单个事务中写入一次审计及其全部页面，返回新生成的运行 ID。
func (s *SQLite) RecordRun(ctx context.Context, inv *model.OGInventory) (string, error) {
	if inv == nil {
		return "", errors.New("inventory required")
	}
	id := uuid.NewString()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO runs(id, base_url, audited_at, total_pages, average_score) VALUES(?,?,?,?,?)`,
		id, inv.BaseURL, nowOr(inv.AuditedAt), inv.TotalPages, inv.AverageScore); err != nil {
		return "", fmt.Errorf("insert run %s: %w", inv.BaseURL, err)
	}
	for i, p := range inv.Pages {
		issues, err := json.Marshal(p.Issues)
		if err != nil {
			return "", fmt.Errorf("marshal issues %s: %w", p.URL, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO pages(run_id, seq, url, path, score, issues) VALUES(?,?,?,?,?,?)`,
			id, i, p.URL, p.Path, p.Score, string(issues)); err != nil {
			return "", fmt.Errorf("insert page %s: %w", p.URL, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return id, nil
}

// ListRuns 返回审计记录，按时间倒序；limit<=0 表示不限制。
func (s *SQLite) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT id, base_url, audited_at, total_pages, average_score FROM runs ORDER BY audited_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var r Run
		var auditedAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.BaseURL, &auditedAt, &r.TotalPages, &r.AverageScore); err != nil {
			return nil, fmt.Errorf("scan runs: %w", err)
		}
		if auditedAt.Valid {
			r.AuditedAt = auditedAt.Time
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// ListPages 返回某次审计的页面记录，保持写入顺序。
func (s *SQLite) ListPages(ctx context.Context, runID string) ([]PageRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url, path, score, issues FROM pages WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()
	var out []PageRecord
	for rows.Next() {
		var p PageRecord
		var issues string
		if err := rows.Scan(&p.URL, &p.Path, &p.Score, &issues); err != nil {
			return nil, fmt.Errorf("scan pages: %w", err)
		}
		if err := json.Unmarshal([]byte(issues), &p.Issues); err != nil {
			return nil, fmt.Errorf("decode issues %s: %w", p.URL, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return out, nil
}

func nowOr(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
