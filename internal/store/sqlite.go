package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/chid93/next-gen-prf/internal/model"
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
CREATE TABLE IF NOT EXISTS markers (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	handle     TEXT NOT NULL UNIQUE,
	session_id TEXT NOT NULL,
	geom       BLOB NOT NULL,
	grid_id    TEXT,
	state      TEXT,
	county     TEXT,
	popup      TEXT NOT NULL,
	source     TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tabs (
	id             TEXT PRIMARY KEY,
	interest       TEXT NOT NULL DEFAULT '',
	interest_error TEXT NOT NULL DEFAULT '{}',
	acres          TEXT NOT NULL DEFAULT '',
	acres_error    TEXT NOT NULL DEFAULT '{}',
	updated_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_markers_session ON markers(session_id, seq);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveMarker(ctx context.Context, sessionID string, m model.Marker) error {
	point, err := encodePoint(m.Lat, m.Lng)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO markers (handle, session_id, geom, grid_id, state, county, popup, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(handle) DO NOTHING`,
		m.Handle, sessionID, point, nullString(m.GridID), nullString(m.State), nullString(m.County),
		m.Popup, m.Source, m.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: save marker %s", m.Handle)
}

func (s *SQLiteStore) DeleteMarker(ctx context.Context, sessionID, handle string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM markers WHERE session_id = ? AND handle = ?`, sessionID, handle)
	return eris.Wrapf(err, "sqlite: delete marker %s", handle)
}

func (s *SQLiteStore) ListMarkers(ctx context.Context, sessionID string) ([]model.Marker, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT handle, geom, grid_id, state, county, popup, source, created_at
		 FROM markers WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list markers")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Marker
	for rows.Next() {
		var (
			m                     model.Marker
			point                 []byte
			gridID, state, county sql.NullString
		)
		if err := rows.Scan(&m.Handle, &point, &gridID, &state, &county, &m.Popup, &m.Source, &m.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan marker")
		}
		if m.Lat, m.Lng, err = decodePoint(point); err != nil {
			return nil, err
		}
		m.GridID = stringPtr(gridID)
		m.State = stringPtr(state)
		m.County = stringPtr(county)
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate markers")
}

func (s *SQLiteStore) SaveTab(ctx context.Context, ts model.TabState) error {
	interestErr, err := encodeFieldError(ts.InterestError)
	if err != nil {
		return err
	}
	acresErr, err := encodeFieldError(ts.AcresError)
	if err != nil {
		return err
	}
	updated := ts.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tabs (id, interest, interest_error, acres, acres_error, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			interest = excluded.interest,
			interest_error = excluded.interest_error,
			acres = excluded.acres,
			acres_error = excluded.acres_error,
			updated_at = excluded.updated_at`,
		ts.ID, ts.Interest, interestErr, ts.Acres, acresErr, updated.UTC(),
	)
	return eris.Wrapf(err, "sqlite: save tab %s", ts.ID)
}

func (s *SQLiteStore) GetTab(ctx context.Context, id string) (*model.TabState, error) {
	var (
		ts                    model.TabState
		interestErr, acresErr string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, interest, interest_error, acres, acres_error, updated_at FROM tabs WHERE id = ?`, id,
	).Scan(&ts.ID, &ts.Interest, &interestErr, &ts.Acres, &acresErr, &ts.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get tab %s", id)
	}
	if ts.InterestError, err = decodeFieldError(interestErr); err != nil {
		return nil, err
	}
	if ts.AcresError, err = decodeFieldError(acresErr); err != nil {
		return nil, err
	}
	return &ts, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
