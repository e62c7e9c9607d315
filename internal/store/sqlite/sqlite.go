package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"indexflow/internal/model"
)

type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// UpsertObservation inserts or updates the single row keyed by
// (kind, period). Mutable fields only; repeated application with the same
// arguments leaves one row carrying the latest values.
func (s *Store) UpsertObservation(ctx context.Context, observation model.Observation) error {
	ingestedAt := observation.IngestedAt
	if ingestedAt.IsZero() {
		ingestedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO index_observations (
			kind, period, value, derived_monthly, derived_annual_equivalent, source, ingested_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, period)
		DO UPDATE SET
			value = excluded.value,
			derived_monthly = excluded.derived_monthly,
			derived_annual_equivalent = excluded.derived_annual_equivalent,
			source = excluded.source,
			ingested_at = excluded.ingested_at
	`,
		string(observation.Kind),
		observation.Period,
		observation.Value,
		nullableFloat(observation.DerivedMonthly),
		nullableFloat(observation.DerivedAnnualEquivalent),
		observation.Source,
		ingestedAt.Format(time.RFC3339),
	)
	return err
}

// UpsertScalar overwrites the single current row for a scalar rate kind.
func (s *Store) UpsertScalar(ctx context.Context, kind model.Kind, value float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scalar_rates (kind, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(kind)
		DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`,
		string(kind),
		value,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// UpsertDatedScalar keeps one row per (kind, reference date); historical
// dated rows persist indefinitely.
func (s *Store) UpsertDatedScalar(ctx context.Context, kind model.Kind, referenceDate string, value float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dated_scalar_rates (kind, reference_date, value, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(kind, reference_date)
		DO UPDATE SET
			value = excluded.value,
			created_at = excluded.created_at
	`,
		string(kind),
		referenceDate,
		value,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) Latest(ctx context.Context, kind model.Kind, limit int) ([]model.Observation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, period, value, derived_monthly, derived_annual_equivalent, source, ingested_at
		FROM index_observations
		WHERE kind = ?
		ORDER BY period DESC
		LIMIT ?
	`, string(kind), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	observations := make([]model.Observation, 0, limit)
	for rows.Next() {
		var (
			observation   model.Observation
			kindText      string
			derivedM      sql.NullFloat64
			derivedAnnual sql.NullFloat64
			ingestedAt    string
		)
		if err := rows.Scan(&kindText, &observation.Period, &observation.Value, &derivedM, &derivedAnnual, &observation.Source, &ingestedAt); err != nil {
			return nil, err
		}
		observation.Kind = model.Kind(kindText)
		if derivedM.Valid {
			v := derivedM.Float64
			observation.DerivedMonthly = &v
		}
		if derivedAnnual.Valid {
			v := derivedAnnual.Float64
			observation.DerivedAnnualEquivalent = &v
		}
		if parsed, err := time.Parse(time.RFC3339, ingestedAt); err == nil {
			observation.IngestedAt = parsed
		}
		observations = append(observations, observation)
	}
	return observations, rows.Err()
}

func (s *Store) Average(ctx context.Context, kind model.Kind, limit int) (float64, bool, error) {
	observations, err := s.Latest(ctx, kind, limit)
	if err != nil {
		return 0, false, err
	}
	if len(observations) == 0 {
		return 0, false, nil
	}
	sum := 0.0
	for _, observation := range observations {
		sum += observation.Value
	}
	return sum / float64(len(observations)), true, nil
}

func (s *Store) CurrentScalar(ctx context.Context, kind model.Kind) (*model.ScalarRate, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT value, updated_at FROM scalar_rates WHERE kind = ?
	`, string(kind))

	var (
		rate      model.ScalarRate
		updatedAt string
	)
	if err := row.Scan(&rate.Value, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if parsed, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		rate.UpdatedAt = parsed
	}
	return &rate, nil
}

func (s *Store) LatestDatedScalar(ctx context.Context, kind model.Kind) (*model.DatedScalarRate, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT kind, reference_date, value, created_at
		FROM dated_scalar_rates
		WHERE kind = ?
		ORDER BY reference_date DESC
		LIMIT 1
	`, string(kind))

	var (
		rate      model.DatedScalarRate
		kindText  string
		createdAt string
	)
	if err := row.Scan(&kindText, &rate.ReferenceDate, &rate.Value, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	rate.Kind = model.Kind(kindText)
	if parsed, err := time.Parse(time.RFC3339, createdAt); err == nil {
		rate.CreatedAt = parsed
	}
	return &rate, nil
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func (s *Store) migrate() error {
	statements := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS index_observations (
			kind TEXT NOT NULL,
			period TEXT NOT NULL,
			value REAL NOT NULL,
			derived_monthly REAL,
			derived_annual_equivalent REAL,
			source TEXT NOT NULL DEFAULT '',
			ingested_at TEXT NOT NULL,
			PRIMARY KEY (kind, period)
		);`,
		`CREATE TABLE IF NOT EXISTS scalar_rates (
			kind TEXT NOT NULL PRIMARY KEY,
			value REAL NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS dated_scalar_rates (
			kind TEXT NOT NULL,
			reference_date TEXT NOT NULL,
			value REAL NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (kind, reference_date)
		);`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return err
		}
	}

	return nil
}
