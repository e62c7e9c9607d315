package store

import (
	"context"

	"indexflow/internal/model"
)

// Store is the persistence gateway for all record kinds. Every write is an
// idempotent upsert; read paths serve the downstream correction math.
type Store interface {
	UpsertObservation(ctx context.Context, observation model.Observation) error
	UpsertScalar(ctx context.Context, kind model.Kind, value float64) error
	UpsertDatedScalar(ctx context.Context, kind model.Kind, referenceDate string, value float64) error

	// Latest returns up to limit observations of one kind, most recent
	// period first.
	Latest(ctx context.Context, kind model.Kind, limit int) ([]model.Observation, error)
	// Average is the arithmetic mean of the latest limit values; ok is
	// false when no rows exist.
	Average(ctx context.Context, kind model.Kind, limit int) (avg float64, ok bool, err error)
	CurrentScalar(ctx context.Context, kind model.Kind) (*model.ScalarRate, error)
	LatestDatedScalar(ctx context.Context, kind model.Kind) (*model.DatedScalarRate, error)

	Close() error
}

// NopStore discards writes and serves empty reads. Used when persistence is
// disabled on the command line.
type NopStore struct{}

func (s *NopStore) UpsertObservation(ctx context.Context, observation model.Observation) error {
	_ = ctx
	_ = observation
	return nil
}

func (s *NopStore) UpsertScalar(ctx context.Context, kind model.Kind, value float64) error {
	_ = ctx
	_ = kind
	_ = value
	return nil
}

func (s *NopStore) UpsertDatedScalar(ctx context.Context, kind model.Kind, referenceDate string, value float64) error {
	_ = ctx
	_ = kind
	_ = referenceDate
	_ = value
	return nil
}

func (s *NopStore) Latest(ctx context.Context, kind model.Kind, limit int) ([]model.Observation, error) {
	_ = ctx
	_ = kind
	_ = limit
	return nil, nil
}

func (s *NopStore) Average(ctx context.Context, kind model.Kind, limit int) (float64, bool, error) {
	_ = ctx
	_ = kind
	_ = limit
	return 0, false, nil
}

func (s *NopStore) CurrentScalar(ctx context.Context, kind model.Kind) (*model.ScalarRate, error) {
	_ = ctx
	_ = kind
	return nil, nil
}

func (s *NopStore) LatestDatedScalar(ctx context.Context, kind model.Kind) (*model.DatedScalarRate, error) {
	_ = ctx
	_ = kind
	return nil, nil
}

func (s *NopStore) Close() error {
	return nil
}
