package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/rfp-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id            TEXT PRIMARY KEY,
	source        TEXT NOT NULL,
	document      TEXT NOT NULL,
	similarity    REAL,
	created_at    DATETIME NOT NULL,
	cleaned_up_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
CREATE INDEX IF NOT EXISTS idx_analyses_source ON analyses(source);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, a *model.Analysis) error {
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

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, source, document, similarity, created_at, cleaned_up_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			document = excluded.document,
			similarity = excluded.similarity,
			cleaned_up_at = excluded.cleaned_up_at`,
		a.ID, a.Source, string(docJSON), a.Similarity, a.CreatedAt.UTC(), nullTime(a.CleanedUpAt),
	)
	return eris.Wrapf(err, "sqlite: save analysis %s", a.ID)
}

func (s *SQLiteStore) GetAnalysis(ctx context.Context, id string) (*model.Analysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, document, similarity, created_at, cleaned_up_at FROM analyses WHERE id = ?`,
		id,
	)
	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get analysis %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get analysis %s", id)
	}
	return a, nil
}

func (s *SQLiteStore) ListAnalyses(ctx context.Context, filter ListFilter) ([]model.Analysis, error) {
	query := `SELECT id, source, document, similarity, created_at, cleaned_up_at FROM analyses WHERE 1=1`
	var args []any

	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	if filter.ActiveOnly {
		query += ` AND cleaned_up_at IS NULL`
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, filter.limit())

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list analyses")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: list analyses scan")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list analyses iterate")
}

func (s *SQLiteStore) MarkCleanedUp(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET cleaned_up_at = ? WHERE id = ?`,
		at.UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark cleaned up %s", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) DeleteAnalysis(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete analysis %s", id)
	}
	return checkRowsAffected(res, id)
}

// helpers

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: %s", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanAnalysis(row scannable) (*model.Analysis, error) {
	var a model.Analysis
	var docJSON string
	var similarity sql.NullFloat64
	var cleaned sql.NullTime

	if err := row.Scan(&a.ID, &a.Source, &docJSON, &similarity, &a.CreatedAt, &cleaned); err != nil {
		return nil, err
	}
	doc, err := model.ParseDocument([]byte(docJSON))
	if err != nil {
		return nil, eris.Wrapf(err, "store: decode document %s", a.ID)
	}
	a.Document = doc
	if similarity.Valid {
		v := similarity.Float64
		a.Similarity = &v
	}
	if cleaned.Valid {
		t := cleaned.Time
		a.CleanedUpAt = &t
	}
	return &a, nil
}

func marshalDocument(doc *model.Document) ([]byte, error) {
	if doc == nil {
		doc = &model.Document{}
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal document")
	}
	return b, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
