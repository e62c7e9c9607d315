// Package collector runs one collection cycle across every configured
// source. Sources are independent of one another, so they run concurrently;
// a failing source costs its own count and nothing else.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"indexflow/internal/model"
	"indexflow/internal/parse"
	"indexflow/internal/sources"
	"indexflow/internal/store"
)

const defaultWindow = 12

// PeriodicSource binds one monthly index kind to its adapter.
type PeriodicSource struct {
	Kind   model.Kind
	Source sources.Source
	// Window is the trailing period count requested per cycle. Zero means
	// the default twelve-month window.
	Window int
	// Derive marks series reporting a monthly compounding rate that the
	// downstream math also needs in annualized form.
	Derive bool
}

// ScalarSource binds a single-value rate kind to its adapter; these are
// collected with limit 1 rather than a period window.
type ScalarSource struct {
	Kind   model.Kind
	Source sources.Source
	// Dated keys the record by its publication reference date instead of
	// overwriting a singleton current value.
	Dated bool
}

type Collector struct {
	periodic []PeriodicSource
	scalars  []ScalarSource
	store    store.Store
	logger   *slog.Logger
}

func New(st store.Store, periodic []PeriodicSource, scalars []ScalarSource, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		periodic: periodic,
		scalars:  scalars,
		store:    st,
		logger:   logger.With("component", "collector"),
	}
}

// CollectAll runs one full cycle and returns processed row counts keyed by
// source name. It never fails: a broken source contributes a zero, and a
// completely failed cycle is a map of zeros.
func (c *Collector) CollectAll(ctx context.Context) map[string]int {
	started := time.Now()
	c.logger.Info("collection cycle started",
		"periodic", len(c.periodic), "scalar", len(c.scalars))

	var (
		mu      sync.Mutex
		results = make(map[string]int, len(c.periodic)+len(c.scalars))
	)
	record := func(name string, count int) {
		mu.Lock()
		results[name] = count
		mu.Unlock()
	}

	group, gctx := errgroup.WithContext(ctx)
	for _, src := range c.periodic {
		src := src
		group.Go(func() error {
			count, err := c.collectPeriodic(gctx, src)
			if err != nil {
				c.logger.Error("source failed", "kind", src.Kind.String(), "error", err)
				count = 0
			}
			record(src.Kind.String(), count)
			return nil
		})
	}
	for _, src := range c.scalars {
		src := src
		group.Go(func() error {
			count, err := c.collectScalar(gctx, src)
			if err != nil {
				c.logger.Error("source failed", "kind", src.Kind.String(), "error", err)
				count = 0
			}
			record(src.Kind.String(), count)
			return nil
		})
	}
	_ = group.Wait()

	c.logger.Info("collection cycle finished",
		"elapsed", time.Since(started).Round(time.Millisecond), "results", results)
	return results
}

func (c *Collector) collectPeriodic(ctx context.Context, src PeriodicSource) (count int, err error) {
	defer confine(&err)

	window := src.Window
	if window <= 0 {
		window = defaultWindow
	}

	raw, err := src.Source.Fetch(ctx, window)
	if err != nil {
		return 0, err
	}

	observations := c.normalize(src, raw)
	// Publishers emit in either chronological order; take the most recent
	// window explicitly.
	sort.Slice(observations, func(i, j int) bool {
		return observations[i].Period > observations[j].Period
	})
	if len(observations) > window {
		observations = observations[:window]
	}

	for _, observation := range observations {
		if err := c.store.UpsertObservation(ctx, observation); err != nil {
			c.logger.Warn("upsert failed",
				"kind", src.Kind.String(), "period", observation.Period, "error", err)
			continue
		}
		count++
	}
	return count, nil
}

func (c *Collector) normalize(src PeriodicSource, raw []sources.RawObservation) []model.Observation {
	observations := make([]model.Observation, 0, len(raw))
	for _, item := range raw {
		period, ok := parse.MonthPeriod(item.Date)
		if !ok {
			c.logger.Warn("skipping record with unparseable date",
				"kind", src.Kind.String(), "date", item.Date)
			continue
		}
		value, err := parse.Number(item.Value)
		if err != nil {
			c.logger.Warn("skipping record with unparseable value",
				"kind", src.Kind.String(), "period", period, "value", item.Value)
			continue
		}

		observation := model.Observation{
			Kind:   src.Kind,
			Period: period,
			Value:  value,
			Source: src.Source.Name(),
		}
		if src.Derive {
			monthly := value
			annual := parse.AnnualEquivalent(value)
			observation.DerivedMonthly = &monthly
			observation.DerivedAnnualEquivalent = &annual
		}
		observations = append(observations, observation)
	}
	return observations
}

func (c *Collector) collectScalar(ctx context.Context, src ScalarSource) (count int, err error) {
	defer confine(&err)

	raw, err := src.Source.Fetch(ctx, 1)
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		c.logger.Warn("scalar source returned no rows", "kind", src.Kind.String())
		return 0, nil
	}

	latest := raw[len(raw)-1]
	value, err := parse.Number(latest.Value)
	if err != nil {
		return 0, fmt.Errorf("unparseable scalar value %q: %w", latest.Value, err)
	}

	if src.Dated {
		referenceDate, ok := parse.ReferenceDate(latest.Date)
		if !ok {
			return 0, fmt.Errorf("unparseable reference date %q", latest.Date)
		}
		if err := c.store.UpsertDatedScalar(ctx, src.Kind, referenceDate, value); err != nil {
			return 0, err
		}
		return 1, nil
	}

	if err := c.store.UpsertScalar(ctx, src.Kind, value); err != nil {
		return 0, err
	}
	return 1, nil
}

// confine converts a panicking adapter into an ordinary source failure so
// one misbehaving publisher can never end the cycle.
func confine(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("source panic: %v", r)
	}
}
