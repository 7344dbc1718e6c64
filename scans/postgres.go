package scans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

const uniqueViolation = "23505"

// PostgresStore keeps scans in PostgreSQL, with list columns as JSONB.
type PostgresStore struct {
	pool DBPool
}

// NewPostgresStore connects a pool to connString.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return NewPostgresStoreWithPool(pool), nil
}

// NewPostgresStoreWithPool wraps an existing pool, such as a pgxmock pool in
// tests.
func NewPostgresStoreWithPool(pool DBPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresSchema = `
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
		human_confusions JSONB NOT NULL DEFAULT '[]',
		ai_comprehension TEXT NOT NULL DEFAULT '',
		ai_indexer_read TEXT NOT NULL DEFAULT '',
		ai_missing_keywords JSONB NOT NULL DEFAULT '[]',
		suggested_headline TEXT NOT NULL DEFAULT '',
		suggested_subheadline TEXT NOT NULL DEFAULT '',
		suggested_cta TEXT NOT NULL DEFAULT '',
		action_plan JSONB NOT NULL DEFAULT '[]',
		ai_prompt TEXT NOT NULL DEFAULT '',
		issues JSONB NOT NULL DEFAULT '[]',
		checklist JSONB NOT NULL DEFAULT '[]',
		suggestions JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_scans_user_created ON scans (user_id, created_at DESC);
	CREATE TABLE IF NOT EXISTS mailcollection (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		url TEXT,
		source_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
`

// InitSchema creates the necessary tables if they don't exist
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func prepareRecord(rec *ScanRecord) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
}

func (s *PostgresStore) Create(ctx context.Context, rec *ScanRecord) error {
	prepareRecord(rec)
	confusions, keywords, plan, issues, checklist, suggest, err := jsonColumns(rec)
	if err != nil {
		return err
	}

	query := `INSERT INTO scans (` + scanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`
	_, err = s.pool.Exec(ctx, query,
		rec.ID, rec.UserID, rec.Domain, rec.URL,
		rec.OverallScore, rec.HumanScore, rec.AIScore,
		rec.HumanClarityDescription, rec.HumanValueProp, rec.HumanAudience, confusions,
		rec.AIComprehension, rec.AIIndexerRead, keywords,
		rec.SuggestedHeadline, rec.SuggestedSubheadline, rec.SuggestedCTA,
		plan, rec.AIPrompt, issues, checklist, suggest,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save scan: %w", err)
	}
	return nil
}

func (s *PostgresStore) scanOne(row pgx.Row) (*ScanRecord, error) {
	var r scanRow
	if err := row.Scan(r.dest(&r.rec.CreatedAt)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load scan: %w", err)
	}
	return r.decode()
}

func (s *PostgresStore) Get(ctx context.Context, userID, id string) (*ScanRecord, error) {
	query := `SELECT ` + scanColumns + ` FROM scans WHERE id = $1 AND user_id = $2`
	return s.scanOne(s.pool.QueryRow(ctx, query, id, userID))
}

func (s *PostgresStore) List(ctx context.Context, userID string, opts ListOptions) ([]*ScanRecord, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + scanColumns + ` FROM scans WHERE user_id = $1`)
	args := []any{userID}
	switch opts.Filter {
	case FilterRecent:
		args = append(args, opts.now().Add(-RecentWindow))
		b.WriteString(" AND created_at >= $2")
	case FilterLowScore:
		args = append(args, LowScoreThreshold)
		b.WriteString(" AND overall_score < $2")
	}
	b.WriteString(orderClause(opts.SortBy))

	rows, err := s.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	out := []*ScanRecord{}
	for rows.Next() {
		var r scanRow
		if err := rows.Scan(r.dest(&r.rec.CreatedAt)...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec, err := r.decode()
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

func orderClause(by SortBy) string {
	if by == SortByScore {
		return " ORDER BY overall_score DESC, created_at DESC"
	}
	return " ORDER BY created_at DESC"
}

func (s *PostgresStore) UpdateChecklist(ctx context.Context, userID, id string, checklist []ChecklistItem) (*ScanRecord, error) {
	data, err := marshalChecklist(checklist)
	if err != nil {
		return nil, err
	}
	query := `UPDATE scans SET checklist = $1 WHERE id = $2 AND user_id = $3 RETURNING ` + scanColumns
	return s.scanOne(s.pool.QueryRow(ctx, query, data, id, userID))
}

func (s *PostgresStore) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scans WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete scan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Stats(ctx context.Context, userID string, now time.Time) (*Stats, error) {
	records, err := s.List(ctx, userID, ListOptions{Now: now})
	if err != nil {
		return nil, err
	}
	return computeStats(records, now), nil
}

func (s *PostgresStore) AddPreorder(ctx context.Context, p *Preorder) error {
	preparePreorder(p)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO mailcollection (id, email, url, source_url, created_at) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Email, p.URL, p.SourceURL, p.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to save preorder: %w", err)
	}
	return nil
}

func preparePreorder(p *Preorder) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
}
