package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/okian/hydrophys/internal/domain/profile"
	"github.com/okian/hydrophys/pkg/metrics"
)

//go:embed schema.sql
var schema string

// SQLiteProfileStore is a ProfileStore backed by a SQLite database file.
type SQLiteProfileStore struct {
	db          *sql.DB
	path        string
	busyTimeout time.Duration
}

// NewSQLiteProfileStore opens (creating if needed) the database at path.
func NewSQLiteProfileStore(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteProfileStore, error) {
	s := &SQLiteProfileStore{path: path, busyTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(s)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)",
		path, s.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	s.db = db

	metrics.UpdateProfilesStored(s.Count(ctx))
	return s, nil
}

// Path returns the database file path.
func (s *SQLiteProfileStore) Path() string { return s.path }

// Put stores p, replacing any profile with the same ID.
func (s *SQLiteProfileStore) Put(ctx context.Context, p profile.Named) (profile.Named, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := CheckID(p.ID); err != nil {
		return profile.Named{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return profile.Named{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM profile_samples WHERE profile_id = ?`, p.ID); err != nil {
		return profile.Named{}, fmt.Errorf("clearing samples: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (id, name, latitude) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, latitude = excluded.latitude`,
		p.ID, p.Name, p.Latitude); err != nil {
		return profile.Named{}, fmt.Errorf("upserting profile: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO profile_samples (profile_id, idx, z, t, s) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return profile.Named{}, fmt.Errorf("preparing sample insert: %w", err)
	}
	defer stmt.Close()
	for i, smp := range p.Samples {
		if _, err := stmt.ExecContext(ctx, p.ID, i, smp.Z, smp.T, smp.S); err != nil {
			return profile.Named{}, fmt.Errorf("inserting sample %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return profile.Named{}, fmt.Errorf("committing profile: %w", err)
	}
	metrics.UpdateProfilesStored(s.Count(ctx))
	return p.Clone(), nil
}

// Get loads a profile and its samples.
func (s *SQLiteProfileStore) Get(ctx context.Context, id string) (profile.Named, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	p := profile.Named{ID: id}
	err := s.db.QueryRowContext(ctx, `SELECT name, latitude FROM profiles WHERE id = ?`, id).Scan(&p.Name, &p.Latitude)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.Named{}, fmt.Errorf("profile %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return profile.Named{}, fmt.Errorf("querying profile: %w", err)
	}

	samples, err := s.samples(ctx, id)
	if err != nil {
		return profile.Named{}, err
	}
	p.Samples = samples
	return p, nil
}

func (s *SQLiteProfileStore) samples(ctx context.Context, id string) (profile.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT z, t, s FROM profile_samples WHERE profile_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("querying samples: %w", err)
	}
	defer rows.Close()

	var out profile.Profile
	for rows.Next() {
		var smp profile.Sample
		if err := rows.Scan(&smp.Z, &smp.T, &smp.S); err != nil {
			return nil, fmt.Errorf("scanning sample: %w", err)
		}
		out = append(out, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating samples: %w", err)
	}
	return out, nil
}

// List returns every stored profile ordered by ID.
func (s *SQLiteProfileStore) List(ctx context.Context) ([]profile.Named, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, latitude FROM profiles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying profiles: %w", err)
	}
	var out []profile.Named
	for rows.Next() {
		var p profile.Named
		if err := rows.Scan(&p.ID, &p.Name, &p.Latitude); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		out = append(out, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profiles: %w", err)
	}

	for i := range out {
		if out[i].Samples, err = s.samples(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Delete removes a profile and its samples.
func (s *SQLiteProfileStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("profile %q: %w", id, ErrNotFound)
	}
	metrics.UpdateProfilesStored(s.Count(ctx))
	return nil
}

// Count returns the number of stored profiles, or 0 if the query fails.
func (s *SQLiteProfileStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n); err != nil {
		metrics.RecordErrorByComponent("repository", "count_failed")
		return 0
	}
	return n
}

// Close closes the database.
func (s *SQLiteProfileStore) Close() error {
	return s.db.Close()
}
