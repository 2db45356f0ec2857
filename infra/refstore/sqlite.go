package refstore

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/manifests/core/reference"
)

// lookupChunk bounds the number of bound parameters per IN query.
const lookupChunk = 500

// SQLiteStore keeps reference data in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS vehicles (
        id TEXT PRIMARY KEY,
        status TEXT NOT NULL,
        class TEXT NOT NULL,
        active INTEGER NOT NULL
    );
    CREATE TABLE IF NOT EXISTS clients (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        raw_name TEXT NOT NULL UNIQUE,
        canonical_name TEXT NOT NULL,
        active INTEGER NOT NULL
    );
    CREATE TABLE IF NOT EXISTS rates (
        class TEXT PRIMARY KEY,
        fixed_per_unit REAL NOT NULL,
        variable REAL NOT NULL,
        reference_distance REAL NOT NULL,
        reference_days INTEGER NOT NULL
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// LookupVehicles fetches ids with as few queries as the parameter limit allows.
func (s *SQLiteStore) LookupVehicles(ctx context.Context, ids []string) (map[string]reference.Vehicle, error) {
	byKey := map[string][]string{}
	var keys []string
	for _, id := range ids {
		k := reference.NormalizeID(id)
		if _, ok := byKey[k]; !ok {
			keys = append(keys, k)
		}
		byKey[k] = append(byKey[k], id)
	}
	out := make(map[string]reference.Vehicle, len(ids))
	for start := 0; start < len(keys); start += lookupChunk {
		chunk := keys[start:min(start+lookupChunk, len(keys))]
		args := make([]any, len(chunk))
		for i, k := range chunk {
			args[i] = k
		}
		q := `SELECT id, status, class, active FROM vehicles WHERE id IN (?` +
			strings.Repeat(",?", len(chunk)-1) + `)`
		rows, err := s.db.QueryContext(ctx, q, args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var v reference.Vehicle
			if err := rows.Scan(&v.ID, &v.Status, &v.Class, &v.Active); err != nil {
				_ = rows.Close()
				return nil, err
			}
			for _, id := range byKey[v.ID] {
				out[id] = v
			}
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Clients returns client references in insertion order.
func (s *SQLiteStore) Clients(ctx context.Context) ([]reference.Client, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT raw_name, canonical_name, active FROM clients ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []reference.Client
	for rows.Next() {
		var c reference.Client
		if err := rows.Scan(&c.RawName, &c.CanonicalName, &c.Active); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// Rates returns every cost rate ordered by class.
func (s *SQLiteStore) Rates(ctx context.Context) ([]reference.CostRate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT class, fixed_per_unit, variable, reference_distance, reference_days
        FROM rates ORDER BY class`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []reference.CostRate
	for rows.Next() {
		var r reference.CostRate
		if err := rows.Scan(&r.Class, &r.FixedPerUnit, &r.Variable, &r.ReferenceDistance, &r.ReferenceDays); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

// Import upserts the seed in one transaction.
func (s *SQLiteStore) Import(ctx context.Context, seed Seed) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, v := range seed.Vehicles {
		if err := v.Validate(); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO vehicles (id, status, class, active) VALUES (?, ?, ?, ?)
            ON CONFLICT(id) DO UPDATE SET status = excluded.status, class = excluded.class, active = excluded.active`,
			reference.NormalizeID(v.ID), string(v.Status), v.Class, v.Active); err != nil {
			return err
		}
	}
	for _, c := range seed.Clients {
		if _, err := tx.ExecContext(ctx, `INSERT INTO clients (raw_name, canonical_name, active) VALUES (?, ?, ?)
            ON CONFLICT(raw_name) DO UPDATE SET canonical_name = excluded.canonical_name, active = excluded.active`,
			c.RawName, c.CanonicalName, c.Active); err != nil {
			return err
		}
	}
	for _, r := range seed.Rates {
		if _, err := tx.ExecContext(ctx, `INSERT INTO rates (class, fixed_per_unit, variable, reference_distance, reference_days)
            VALUES (?, ?, ?, ?, ?)
            ON CONFLICT(class) DO UPDATE SET fixed_per_unit = excluded.fixed_per_unit, variable = excluded.variable,
                reference_distance = excluded.reference_distance, reference_days = excluded.reference_days`,
			r.Class, r.FixedPerUnit, r.Variable, r.ReferenceDistance, r.ReferenceDays); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
