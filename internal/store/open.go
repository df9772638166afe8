package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/chid93/next-gen-prf/internal/db"
)

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects the named driver and runs migrations.
func Open(ctx context.Context, driver, dsn string, poolCfg *db.PoolConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch driver {
	case DriverSQLite, "":
		s, err = NewSQLite(dsn)
	case DriverPostgres:
		s, err = NewPostgres(ctx, dsn, poolCfg)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}
