package parse

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"comma decimal with percent sign", "1,23%", 1.23},
		{"negative comma decimal", "-0,50", -0.5},
		{"plain period decimal", "0.38", 0.38},
		{"surrounding noise", "  + 0,67 % ", 0.67},
		{"empty string", "", 0},
		{"bare minus", "-", 0},
		{"letters only", "n/d", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Percentage(tt.in), 1e-9)
		})
	}
}

func TestNumberRejectsGarbage(t *testing.T) {
	_, err := Number("sem valor")
	require.Error(t, err)

	got, err := Number("0,89%")
	require.NoError(t, err)
	assert.InDelta(t, 0.89, got, 1e-9)
}

func TestMonthPeriod(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"full date", "15/03/2024", "2024-03", true},
		{"full date single digits", "1/6/2024", "2024-06", true},
		{"numeric month year", "05/2024", "2024-05", true},
		{"numeric month year dash", "11-2023", "2023-11", true},
		{"month name slash", "Janeiro/2025", "2025-01", true},
		{"month name space", "dezembro 2024", "2024-12", true},
		{"accented month", "Março/2024", "2024-03", true},
		{"accent-free variant", "marco 2024", "2024-03", true},
		{"abbreviation", "fev/2025", "2025-02", true},
		{"uppercase abbreviation", "SET 2024", "2024-09", true},
		{"invalid month number", "13/2024", "", false},
		{"unknown month name", "brumaire/2024", "", false},
		{"empty", "", "", false},
		{"plain year", "2024", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MonthPeriod(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReferenceDate(t *testing.T) {
	got, ok := ReferenceDate("01/06/2024")
	require.True(t, ok)
	assert.Equal(t, "2024-06-01", got)

	got, ok = ReferenceDate("3/7/2025")
	require.True(t, ok)
	assert.Equal(t, "2025-07-03", got)

	_, ok = ReferenceDate("junho/2024")
	assert.False(t, ok)
}

func TestAnnualEquivalent(t *testing.T) {
	assert.InDelta(t, 6.1678, AnnualEquivalent(0.5), 1e-3)
	assert.InDelta(t, 0, AnnualEquivalent(0), 1e-9)

	// Compounding must match ((1+r/100)^12 - 1) * 100 exactly.
	want := (math.Pow(1.01, 12) - 1) * 100
	assert.InDelta(t, want, AnnualEquivalent(1.0), 1e-9)
}
