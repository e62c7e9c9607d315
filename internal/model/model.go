package model

import (
	"fmt"
	"time"
)

// Kind identifies one correction index series.
type Kind string

const (
	KindIPCA           Kind = "ipca"
	KindIGPM           Kind = "igpm"
	KindCDI            Kind = "cdi"
	KindSelicMeta      Kind = "selic_meta"
	KindSelicAcumulada Kind = "selic_acumulada"
	KindINCC           Kind = "incc"
	KindCUBSC          Kind = "cub_sc"
)

// Observation is one data point of a periodic index, keyed by (Kind, Period).
// Period uses the canonical YYYY-MM form.
type Observation struct {
	Kind                    Kind
	Period                  string
	Value                   float64
	DerivedMonthly          *float64
	DerivedAnnualEquivalent *float64
	Source                  string
	IngestedAt              time.Time
}

// ScalarRate is a single current value with no period key, e.g. the policy
// target rate. At most one current row is meaningful.
type ScalarRate struct {
	Value     float64
	UpdatedAt time.Time
}

// DatedScalarRate is keyed by its publication reference date (day precision).
type DatedScalarRate struct {
	Kind          Kind
	ReferenceDate string // YYYY-MM-DD
	Value         float64
	CreatedAt     time.Time
}

// TrailingPeriods returns the n calendar months before the reference date,
// most recent first, as YYYY-MM keys. The reference month itself is excluded:
// publishers report a month only after it closes.
func TrailingPeriods(ref time.Time, n int) []string {
	periods := make([]string, 0, n)
	year, month, _ := ref.Date()
	current := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		periods = append(periods, current.AddDate(0, -i, 0).Format("2006-01"))
	}
	return periods
}

func (k Kind) String() string {
	return string(k)
}

// ParseKind maps a kind name to its enumerated value.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindIPCA, KindIGPM, KindCDI, KindSelicMeta, KindSelicAcumulada, KindINCC, KindCUBSC:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown index kind: %s", s)
}
