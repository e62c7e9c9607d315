package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indexflow/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "indexflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestUpsertObservationIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	observation := model.Observation{Kind: model.KindIPCA, Period: "2024-05", Value: 0.38}
	require.NoError(t, st.UpsertObservation(ctx, observation))
	require.NoError(t, st.UpsertObservation(ctx, observation))

	rows, err := st.Latest(ctx, model.KindIPCA, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-05", rows[0].Period)
	assert.Equal(t, 0.38, rows[0].Value)
}

func TestUpsertObservationUpdatesMutableFields(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertObservation(ctx, model.Observation{
		Kind: model.KindIPCA, Period: "2024-05", Value: 0.38,
	}))

	// Publishers revise recent figures: re-ingestion overwrites.
	monthly := 0.41
	annual := 5.03
	require.NoError(t, st.UpsertObservation(ctx, model.Observation{
		Kind: model.KindIPCA, Period: "2024-05", Value: 0.41,
		DerivedMonthly: &monthly, DerivedAnnualEquivalent: &annual,
		Source: "sgs",
	}))

	rows, err := st.Latest(ctx, model.KindIPCA, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 0.41, rows[0].Value)
	require.NotNil(t, rows[0].DerivedMonthly)
	assert.Equal(t, 0.41, *rows[0].DerivedMonthly)
	require.NotNil(t, rows[0].DerivedAnnualEquivalent)
	assert.Equal(t, 5.03, *rows[0].DerivedAnnualEquivalent)
	assert.Equal(t, "sgs", rows[0].Source)
}

func TestLatestOrdersDescendingAndLimits(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, period := range []string{"2024-01", "2024-03", "2023-12", "2024-02"} {
		require.NoError(t, st.UpsertObservation(ctx, model.Observation{
			Kind: model.KindINCC, Period: period, Value: 1,
		}))
	}

	rows, err := st.Latest(ctx, model.KindINCC, 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2024-03", rows[0].Period)
	assert.Equal(t, "2024-02", rows[1].Period)
	assert.Equal(t, "2024-01", rows[2].Period)
}

func TestLatestIsolatesKinds(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertObservation(ctx, model.Observation{Kind: model.KindIPCA, Period: "2024-05", Value: 0.38}))
	require.NoError(t, st.UpsertObservation(ctx, model.Observation{Kind: model.KindIGPM, Period: "2024-05", Value: 0.89}))

	rows, err := st.Latest(ctx, model.KindIPCA, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.KindIPCA, rows[0].Kind)
}

func TestAverage(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, ok, err := st.Average(ctx, model.KindIPCA, 12)
	require.NoError(t, err)
	assert.False(t, ok, "empty store reports no data instead of dividing by zero")

	for period, value := range map[string]float64{
		"2024-04": 0.2,
		"2024-05": 0.4,
		"2024-06": 0.6,
	} {
		require.NoError(t, st.UpsertObservation(ctx, model.Observation{Kind: model.KindIPCA, Period: period, Value: value}))
	}

	avg, ok, err := st.Average(ctx, model.KindIPCA, 12)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 0.4, avg, 1e-9)

	// Limit restricts the window to the most recent periods.
	avg, ok, err = st.Average(ctx, model.KindIPCA, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 0.5, avg, 1e-9)
}

func TestUpsertScalarOverwrites(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertScalar(ctx, model.KindSelicMeta, 10.5))
	require.NoError(t, st.UpsertScalar(ctx, model.KindSelicMeta, 10.75))

	rate, err := st.CurrentScalar(ctx, model.KindSelicMeta)
	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.Equal(t, 10.75, rate.Value)
	assert.False(t, rate.UpdatedAt.IsZero())
}

func TestCurrentScalarEmpty(t *testing.T) {
	st := newTestStore(t)

	rate, err := st.CurrentScalar(context.Background(), model.KindSelicMeta)
	require.NoError(t, err)
	assert.Nil(t, rate)
}

func TestUpsertDatedScalarKeyedByReferenceDate(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertDatedScalar(ctx, model.KindSelicAcumulada, "2024-06-19", 11.25))
	require.NoError(t, st.UpsertDatedScalar(ctx, model.KindSelicAcumulada, "2024-06-19", 11.30))
	require.NoError(t, st.UpsertDatedScalar(ctx, model.KindSelicAcumulada, "2024-05-08", 11.10))

	latest, err := st.LatestDatedScalar(ctx, model.KindSelicAcumulada)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2024-06-19", latest.ReferenceDate)
	assert.Equal(t, 11.30, latest.Value, "same reference date updates in place")
}

func TestLatestDatedScalarEmpty(t *testing.T) {
	st := newTestStore(t)

	latest, err := st.LatestDatedScalar(context.Background(), model.KindSelicAcumulada)
	require.NoError(t, err)
	assert.Nil(t, latest)
}
