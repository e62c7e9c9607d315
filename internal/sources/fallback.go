package sources

import (
	"log/slog"
)

// Provenance tags where a resolved period value came from.
type Provenance string

const (
	ProvenanceScraped Provenance = "scraped"
	ProvenanceCurated Provenance = "curated"
	ProvenanceDefault Provenance = "default"
)

// Resolved is one fully-covered period produced by the fallback resolver.
type Resolved struct {
	Period     string
	Value      float64
	Provenance Provenance
}

// FallbackResolver guarantees one value per expected period. A scraped value
// wins; a curated reference value substitutes a missing period; the
// conservative default covers everything else. Downstream correction math
// needs every month of a payment schedule, so an absent month is worse than
// an approximate one.
type FallbackResolver struct {
	Curated map[string]float64
	Default float64
	Logger  *slog.Logger
}

// Resolve returns exactly one Resolved per expected period, in the order the
// expected periods were given. Substitutions are logged at WARN with their
// provenance so a data-quality alert can be raised on them.
func (r *FallbackResolver) Resolve(expected []string, scraped map[string]float64) []Resolved {
	out := make([]Resolved, 0, len(expected))
	substituted := 0
	for _, period := range expected {
		if value, ok := scraped[period]; ok {
			out = append(out, Resolved{Period: period, Value: value, Provenance: ProvenanceScraped})
			continue
		}
		resolved := Resolved{Period: period, Value: r.Default, Provenance: ProvenanceDefault}
		if value, ok := r.Curated[period]; ok {
			resolved.Value = value
			resolved.Provenance = ProvenanceCurated
		}
		substituted++
		if r.Logger != nil {
			r.Logger.Warn("substituted missing period",
				"period", period,
				"value", resolved.Value,
				"source", string(resolved.Provenance),
			)
		}
		out = append(out, resolved)
	}
	if substituted > 0 && r.Logger != nil {
		r.Logger.Warn("coverage incomplete", "expected", len(expected), "substituted", substituted)
	}
	return out
}
