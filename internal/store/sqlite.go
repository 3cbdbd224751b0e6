package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite. Rows are kept
// append-only: each AppendRow inserts, and readers take the latest insert
// per key, matching the CSV backend's supersede semantics.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and configures WAL mode.
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
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS results (
	id         TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	fields     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_results_url ON results(url);
`

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) ReadRow(ctx context.Context, key string) (Row, bool, error) {
	var fieldsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT fields FROM results WHERE url = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		key,
	).Scan(&fieldsJSON)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "sqlite: read row %s", key)
	}

	var row Row
	if err := json.Unmarshal([]byte(fieldsJSON), &row); err != nil {
		return nil, false, eris.Wrapf(err, "sqlite: unmarshal row %s", key)
	}
	return row, true, nil
}

func (s *SQLiteStore) AppendRow(ctx context.Context, key string, row Row) error {
	fieldsJSON, err := json.Marshal(row)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal row")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO results (id, url, fields, created_at) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), key, string(fieldsJSON), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: append row %s", key)
}

func (s *SQLiteStore) KeyExists(ctx context.Context, key string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM results WHERE url = ?`, key,
	).Scan(&n)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: key exists %s", key)
	}
	return n > 0, nil
}

func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url FROM results GROUP BY url ORDER BY MIN(rowid)`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list keys")
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan key")
		}
		keys = append(keys, k)
	}
	return keys, eris.Wrap(rows.Err(), "sqlite: iterate keys")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
