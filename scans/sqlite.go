package scans

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore keeps scans in a local SQLite file, with list columns as JSON
// text. It suits single-instance deployments and the CLI.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// openDB opens a SQLite database at the given path
func openDB(dbPath string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps ":memory:" databases shared and serializes writers
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return sqlDB, nil
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists. ":memory:" gives a throwaway database.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: db, path: path}
	if err := s.InitSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path
func (s *SQLiteStore) Path() string {
	return s.path
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS scans (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    domain TEXT NOT NULL,
    url TEXT NOT NULL,
    overall_score INTEGER NOT NULL,
    human_score INTEGER NOT NULL,
    ai_score INTEGER NOT NULL,
    human_clarity_description TEXT NOT NULL DEFAULT '',
    human_value_prop TEXT NOT NULL DEFAULT '',
    human_audience TEXT NOT NULL DEFAULT '',
    human_confusions TEXT NOT NULL DEFAULT '[]',
    ai_comprehension TEXT NOT NULL DEFAULT '',
    ai_indexer_read TEXT NOT NULL DEFAULT '',
    ai_missing_keywords TEXT NOT NULL DEFAULT '[]',
    suggested_headline TEXT NOT NULL DEFAULT '',
    suggested_subheadline TEXT NOT NULL DEFAULT '',
    suggested_cta TEXT NOT NULL DEFAULT '',
    action_plan TEXT NOT NULL DEFAULT '[]',
    ai_prompt TEXT NOT NULL DEFAULT '',
    issues TEXT NOT NULL DEFAULT '[]',
    checklist TEXT NOT NULL DEFAULT '[]',
    suggestions TEXT NOT NULL DEFAULT '[]',
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scans_user_created ON scans(user_id, created_at);

CREATE TABLE IF NOT EXISTS mailcollection (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    url TEXT,
    source_url TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);
`

// InitSchema initializes the database schema
func (s *SQLiteStore) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func (s *SQLiteStore) Create(ctx context.Context, rec *ScanRecord) error {
	prepareRecord(rec)
	confusions, keywords, plan, issues, checklist, suggest, err := jsonColumns(rec)
	if err != nil {
		return err
	}

	query := `INSERT INTO scans (` + scanColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.Domain, rec.URL,
		rec.OverallScore, rec.HumanScore, rec.AIScore,
		rec.HumanClarityDescription, rec.HumanValueProp, rec.HumanAudience, string(confusions),
		rec.AIComprehension, rec.AIIndexerRead, string(keywords),
		rec.SuggestedHeadline, rec.SuggestedSubheadline, rec.SuggestedCTA,
		string(plan), rec.AIPrompt, string(issues), string(checklist), string(suggest),
		formatTime(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save scan: %w", err)
	}
	return nil
}

func scanSQLite(row rowScanner) (*ScanRecord, error) {
	var (
		r       scanRow
		created string
	)
	if err := row.Scan(r.dest(&created)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load scan: %w", err)
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at %q: %w", created, err)
	}
	r.rec.CreatedAt = t
	return r.decode()
}

func (s *SQLiteStore) Get(ctx context.Context, userID, id string) (*ScanRecord, error) {
	query := `SELECT ` + scanColumns + ` FROM scans WHERE id = ? AND user_id = ?`
	return scanSQLite(s.db.QueryRowContext(ctx, query, id, userID))
}

func (s *SQLiteStore) List(ctx context.Context, userID string, opts ListOptions) ([]*ScanRecord, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + scanColumns + ` FROM scans WHERE user_id = ?`)
	args := []any{userID}
	switch opts.Filter {
	case FilterRecent:
		args = append(args, formatTime(opts.now().Add(-RecentWindow)))
		b.WriteString(" AND created_at >= ?")
	case FilterLowScore:
		args = append(args, LowScoreThreshold)
		b.WriteString(" AND overall_score < ?")
	}
	b.WriteString(orderClause(opts.SortBy))

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	out := []*ScanRecord{}
	for rows.Next() {
		rec, err := scanSQLite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) UpdateChecklist(ctx context.Context, userID, id string, checklist []ChecklistItem) (*ScanRecord, error) {
	data, err := marshalChecklist(checklist)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE scans SET checklist = ? WHERE id = ? AND user_id = ?`, string(data), id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update scan: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, userID, id)
}

func (s *SQLiteStore) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete scan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete scan: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Stats(ctx context.Context, userID string, now time.Time) (*Stats, error) {
	records, err := s.List(ctx, userID, ListOptions{Now: now})
	if err != nil {
		return nil, err
	}
	return computeStats(records, now), nil
}

func (s *SQLiteStore) AddPreorder(ctx context.Context, p *Preorder) error {
	preparePreorder(p)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mailcollection (id, email, url, source_url, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Email, nullString(p.URL), p.SourceURL, formatTime(p.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to save preorder: %w", err)
	}
	return nil
}
