package refstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kilianp07/manifests/core/reference"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS vehicles (
    id TEXT PRIMARY KEY,
    status TEXT NOT NULL,
    class TEXT NOT NULL,
    active BOOLEAN NOT NULL
);
CREATE TABLE IF NOT EXISTS clients (
    seq BIGSERIAL PRIMARY KEY,
    raw_name TEXT NOT NULL UNIQUE,
    canonical_name TEXT NOT NULL,
    active BOOLEAN NOT NULL
);
CREATE TABLE IF NOT EXISTS rates (
    class TEXT PRIMARY KEY,
    fixed_per_unit DOUBLE PRECISION NOT NULL,
    variable DOUBLE PRECISION NOT NULL,
    reference_distance DOUBLE PRECISION NOT NULL,
    reference_days INTEGER NOT NULL
)`

// PostgresStore keeps reference data in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// LookupVehicles fetches every id with a single ANY query.
func (s *PostgresStore) LookupVehicles(ctx context.Context, ids []string) (map[string]reference.Vehicle, error) {
	byKey := map[string][]string{}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		k := reference.NormalizeID(id)
		if _, ok := byKey[k]; !ok {
			keys = append(keys, k)
		}
		byKey[k] = append(byKey[k], id)
	}
	out := make(map[string]reference.Vehicle, len(ids))
	if len(keys) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT id, status, class, active FROM vehicles WHERE id = ANY($1)`, keys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			v      reference.Vehicle
			status string
		)
		if err := rows.Scan(&v.ID, &status, &v.Class, &v.Active); err != nil {
			return nil, err
		}
		v.Status = reference.Status(status)
		for _, id := range byKey[v.ID] {
			out[id] = v
		}
	}
	return out, rows.Err()
}

// Clients returns client references in insertion order.
func (s *PostgresStore) Clients(ctx context.Context) ([]reference.Client, error) {
	rows, err := s.pool.Query(ctx, `SELECT raw_name, canonical_name, active FROM clients ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (reference.Client, error) {
		var c reference.Client
		err := row.Scan(&c.RawName, &c.CanonicalName, &c.Active)
		return c, err
	})
}

// Rates returns every cost rate ordered by class.
func (s *PostgresStore) Rates(ctx context.Context) ([]reference.CostRate, error) {
	rows, err := s.pool.Query(ctx, `SELECT class, fixed_per_unit, variable, reference_distance, reference_days
        FROM rates ORDER BY class`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (reference.CostRate, error) {
		var r reference.CostRate
		err := row.Scan(&r.Class, &r.FixedPerUnit, &r.Variable, &r.ReferenceDistance, &r.ReferenceDays)
		return r, err
	})
}

// Import upserts the seed in one transaction.
func (s *PostgresStore) Import(ctx context.Context, seed Seed) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, v := range seed.Vehicles {
			if err := v.Validate(); err != nil {
				return err
			}
			batch.Queue(`INSERT INTO vehicles (id, status, class, active) VALUES ($1, $2, $3, $4)
                ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, class = EXCLUDED.class, active = EXCLUDED.active`,
				reference.NormalizeID(v.ID), string(v.Status), v.Class, v.Active)
		}
		for _, c := range seed.Clients {
			batch.Queue(`INSERT INTO clients (raw_name, canonical_name, active) VALUES ($1, $2, $3)
                ON CONFLICT (raw_name) DO UPDATE SET canonical_name = EXCLUDED.canonical_name, active = EXCLUDED.active`,
				c.RawName, c.CanonicalName, c.Active)
		}
		for _, r := range seed.Rates {
			batch.Queue(`INSERT INTO rates (class, fixed_per_unit, variable, reference_distance, reference_days)
                VALUES ($1, $2, $3, $4, $5)
                ON CONFLICT (class) DO UPDATE SET fixed_per_unit = EXCLUDED.fixed_per_unit, variable = EXCLUDED.variable,
                    reference_distance = EXCLUDED.reference_distance, reference_days = EXCLUDED.reference_days`,
				r.Class, r.FixedPerUnit, r.Variable, r.ReferenceDistance, r.ReferenceDays)
		}
		if batch.Len() == 0 {
			return nil
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
