package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/chid93/next-gen-prf/internal/db"
	"github.com/chid93/next-gen-prf/internal/model"
)

// PostgresStore implements Store on PostGIS.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres connects a pool and wraps it in a store.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Close does not close it.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE EXTENSION IF NOT EXISTS postgis;

CREATE TABLE IF NOT EXISTS prf_markers (
	seq        BIGSERIAL PRIMARY KEY,
	handle     TEXT NOT NULL UNIQUE,
	session_id TEXT NOT NULL,
	geom       geometry(Point, 4326) NOT NULL,
	grid_id    TEXT,
	state      TEXT,
	county     TEXT,
	popup      TEXT NOT NULL,
	source     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS prf_tabs (
	id             TEXT PRIMARY KEY,
	interest       TEXT NOT NULL DEFAULT '',
	interest_error JSONB NOT NULL DEFAULT '{}',
	acres          TEXT NOT NULL DEFAULT '',
	acres_error    JSONB NOT NULL DEFAULT '{}',
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_prf_markers_session ON prf_markers(session_id, seq);
CREATE INDEX IF NOT EXISTS idx_prf_markers_geom ON prf_markers USING gist (geom);
`

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

func (s *PostgresStore) SaveMarker(ctx context.Context, sessionID string, m model.Marker) error {
	point, err := encodePoint(m.Lat, m.Lng)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO prf_markers (handle, session_id, geom, grid_id, state, county, popup, source, created_at)
		 VALUES ($1, $2, ST_GeomFromEWKB($3), $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (handle) DO NOTHING`,
		m.Handle, sessionID, point, m.GridID, m.State, m.County, m.Popup, m.Source, m.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: save marker %s", m.Handle)
}

func (s *PostgresStore) DeleteMarker(ctx context.Context, sessionID, handle string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM prf_markers WHERE session_id = $1 AND handle = $2`, sessionID, handle)
	return eris.Wrapf(err, "postgres: delete marker %s", handle)
}

func (s *PostgresStore) ListMarkers(ctx context.Context, sessionID string) ([]model.Marker, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT handle, ST_AsEWKB(geom), grid_id, state, county, popup, source, created_at
		 FROM prf_markers WHERE session_id = $1 ORDER BY seq`, sessionID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list markers")
	}
	defer rows.Close()

	var out []model.Marker
	for rows.Next() {
		var (
			m     model.Marker
			point []byte
		)
		if err := rows.Scan(&m.Handle, &point, &m.GridID, &m.State, &m.County, &m.Popup, &m.Source, &m.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan marker")
		}
		if m.Lat, m.Lng, err = decodePoint(point); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate markers")
}

func (s *PostgresStore) SaveTab(ctx context.Context, ts model.TabState) error {
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
	_, err = s.pool.Exec(ctx,
		`INSERT INTO prf_tabs (id, interest, interest_error, acres, acres_error, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
			interest = EXCLUDED.interest,
			interest_error = EXCLUDED.interest_error,
			acres = EXCLUDED.acres,
			acres_error = EXCLUDED.acres_error,
			updated_at = EXCLUDED.updated_at`,
		ts.ID, ts.Interest, interestErr, ts.Acres, acresErr, updated.UTC(),
	)
	return eris.Wrapf(err, "postgres: save tab %s", ts.ID)
}

func (s *PostgresStore) GetTab(ctx context.Context, id string) (*model.TabState, error) {
	var (
		ts                    model.TabState
		interestErr, acresErr string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, interest, interest_error::text, acres, acres_error::text, updated_at FROM prf_tabs WHERE id = $1`, id,
	).Scan(&ts.ID, &ts.Interest, &interestErr, &ts.Acres, &acresErr, &ts.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get tab %s", id)
	}
	if ts.InterestError, err = decodeFieldError(interestErr); err != nil {
		return nil, err
	}
	if ts.AcresError, err = decodeFieldError(acresErr); err != nil {
		return nil, err
	}
	return &ts, nil
}
