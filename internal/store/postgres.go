package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/rfp-cli/internal/db"
	"github.com/sells-group/rfp-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

const (
	sqlSaveAnalysis = `INSERT INTO analyses (id, source, document, similarity, created_at, cleaned_up_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
	source = EXCLUDED.source,
	document = EXCLUDED.document,
	similarity = EXCLUDED.similarity,
	cleaned_up_at = EXCLUDED.cleaned_up_at`
	sqlGetAnalysis    = `SELECT id, source, document, similarity, created_at, cleaned_up_at FROM analyses WHERE id = $1`
	sqlMarkCleanedUp  = `UPDATE analyses SET cleaned_up_at = $1 WHERE id = $2`
	sqlDeleteAnalysis = `DELETE FROM analyses WHERE id = $1`
)

// preparedStatements are prepared on each new connection.
var preparedStatements = map[string]string{
	"save_analysis":   sqlSaveAnalysis,
	"get_analysis":    sqlGetAnalysis,
	"mark_cleaned_up": sqlMarkCleanedUp,
	"delete_analysis": sqlDeleteAnalysis,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Open(ctx, connString, poolCfg, func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "postgres: open")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Document is kept as JSON, not JSONB, so section and field order survive.
const postgresMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id            TEXT PRIMARY KEY,
	source        TEXT NOT NULL,
	document      JSON NOT NULL,
	similarity    DOUBLE PRECISION,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	cleaned_up_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
CREATE INDEX IF NOT EXISTS idx_analyses_source ON analyses(source);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveAnalysis(ctx context.Context, a *model.Analysis) error {
	if err := validate(a); err != nil {
		return err
	}
	docJSON, err := marshalDocument(a.Document)
	if err != nil {
		return err
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx, sqlSaveAnalysis,
		a.ID, a.Source, string(docJSON), a.Similarity, a.CreatedAt, a.CleanedUpAt,
	)
	return eris.Wrapf(err, "postgres: save analysis %s", a.ID)
}

func (s *PostgresStore) GetAnalysis(ctx context.Context, id string) (*model.Analysis, error) {
	a, err := scanPGAnalysis(s.pool.QueryRow(ctx, sqlGetAnalysis, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get analysis %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get analysis %s", id)
	}
	return a, nil
}

func (s *PostgresStore) ListAnalyses(ctx context.Context, filter ListFilter) ([]model.Analysis, error) {
	query := `SELECT id, source, document, similarity, created_at, cleaned_up_at FROM analyses WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Source != "" {
		query += fmt.Sprintf(` AND source = $%d`, argIdx)
		args = append(args, filter.Source)
		argIdx++
	}
	if filter.ActiveOnly {
		query += ` AND cleaned_up_at IS NULL`
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, filter.limit())
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list analyses")
	}
	defer rows.Close()

	var out []model.Analysis
	for rows.Next() {
		a, err := scanPGAnalysis(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: list analyses scan")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list analyses iterate")
}

func (s *PostgresStore) MarkCleanedUp(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, sqlMarkCleanedUp, at.UTC(), id)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark cleaned up %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: %s", id)
	}
	return nil
}

func (s *PostgresStore) DeleteAnalysis(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, sqlDeleteAnalysis, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete analysis %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: %s", id)
	}
	return nil
}

func scanPGAnalysis(row pgx.Row) (*model.Analysis, error) {
	var a model.Analysis
	var docJSON []byte

	if err := row.Scan(&a.ID, &a.Source, &docJSON, &a.Similarity, &a.CreatedAt, &a.CleanedUpAt); err != nil {
		return nil, err
	}
	doc, err := model.ParseDocument(docJSON)
	if err != nil {
		return nil, eris.Wrapf(err, "store: decode document %s", a.ID)
	}
	a.Document = doc
	return &a, nil
}
