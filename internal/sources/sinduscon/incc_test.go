package sinduscon

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indexflow/internal/parse"
)

var inccFixtureMonths = []struct {
	label string
	value string
}{
	{"Junho/2024", "0,72"},
	{"Maio/2024", "0,27"},
	{"Abril/2024", "0,59"},
	{"Março/2024", "0,38"},
	{"Fevereiro/2024", "0,40"},
	{"Janeiro/2024", "0,89"},
	{"Dezembro/2023", "0,56"},
	{"Novembro/2023", "0,40"},
	{"Outubro/2023", "0,68"},
	{"Setembro/2023", "0,58"},
	{"Agosto/2023", "0,70"},
	{"Julho/2023", "0,47"},
}

func inccTableHTML() string {
	var b strings.Builder
	b.WriteString(`<html><body><h1>INCC-M (FGV)</h1><table>`)
	b.WriteString(`<tr><th>Mês</th><th>Índice</th><th>No mês (%)</th><th>No ano (%)</th><th>12 meses (%)</th></tr>`)
	for _, row := range inccFixtureMonths {
		fmt.Fprintf(&b, `<tr><td>%s</td><td>898,123</td><td>%s</td><td>2,10</td><td>4,50</td></tr>`, row.label, row.value)
	}
	b.WriteString(`</table></body></html>`)
	return b.String()
}

func fixedNow() time.Time {
	return time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)
}

func TestINCCFetchFullTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(inccTableHTML()))
	}))
	defer server.Close()

	scraper := NewINCC(Config{URL: server.URL}, nil)
	scraper.now = fixedNow

	observations, err := scraper.Fetch(context.Background(), 12)
	require.NoError(t, err)
	require.Len(t, observations, 12)

	// Most recent period first, value taken from the third column.
	assert.Equal(t, "06/2024", observations[0].Date)
	assert.InDelta(t, 0.72, parse.Percentage(observations[0].Value), 1e-9)
	assert.Equal(t, "07/2023", observations[11].Date)
	assert.InDelta(t, 0.47, parse.Percentage(observations[11].Value), 1e-9)
}

func TestINCCFetchPartialTableSubstitutes(t *testing.T) {
	partial := `<html><body><table>
		<tr><th>Mês</th><th>Índice</th><th>No mês (%)</th><th>No ano (%)</th><th>12 meses (%)</th></tr>
		<tr><td>Junho/2024</td><td>898</td><td>0,72</td><td>2,1</td><td>4,5</td></tr>
		<tr><td>Maio/2024</td><td>897</td><td>0,27</td><td>1,8</td><td>4,2</td></tr>
		<tr><td>Abril/2024</td><td>896</td><td>0,59</td><td>1,5</td><td>4,0</td></tr>
	</table></body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(partial))
	}))
	defer server.Close()

	scraper := NewINCC(Config{URL: server.URL}, nil)
	scraper.now = fixedNow

	observations, err := scraper.Fetch(context.Background(), 12)
	require.NoError(t, err)
	require.Len(t, observations, 12)

	byDate := map[string]string{}
	for _, o := range observations {
		_, dup := byDate[o.Date]
		require.False(t, dup, "duplicate period %s", o.Date)
		byDate[o.Date] = o.Value
	}

	// The three scraped values survive verbatim; the rest are substituted.
	assert.InDelta(t, 0.72, parse.Percentage(byDate["06/2024"]), 1e-9)
	assert.InDelta(t, 0.27, parse.Percentage(byDate["05/2024"]), 1e-9)
	assert.InDelta(t, 0.59, parse.Percentage(byDate["04/2024"]), 1e-9)
	require.Contains(t, byDate, "12/2023")
	require.Contains(t, byDate, "07/2023")
}

func TestINCCFetchUnreachablePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	scraper := NewINCC(Config{URL: server.URL}, nil)
	scraper.now = fixedNow

	observations, err := scraper.Fetch(context.Background(), 12)
	require.NoError(t, err, "coverage failure must not propagate")
	assert.Len(t, observations, 12)
}

func TestExtractINCCTablesSkipsBadRows(t *testing.T) {
	html := `<html><body><table>
		<tr><th>Mês</th><th>No mês (%)</th></tr>
		<tr><td>Junho/2024</td><td>0,72</td></tr>
		<tr><td>não é data</td><td>0,99</td></tr>
		<tr><td>Maio/2024</td><td></td></tr>
	</table></body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	found := extractINCCTables(doc)
	require.Len(t, found, 1)
	assert.InDelta(t, 0.72, found["2024-06"], 1e-9)
}

func TestExtractMonthPercentText(t *testing.T) {
	html := `<html><body>
		<p>Variação do INCC-M: junho/2024: 0,72% e maio/2024: 0,27%.</p>
		<p>dezembro 2023: 0,56%</p>
	</body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	found := extractMonthPercentText(doc)
	assert.InDelta(t, 0.72, found["2024-06"], 1e-9)
	assert.InDelta(t, 0.27, found["2024-05"], 1e-9)
	assert.InDelta(t, 0.56, found["2023-12"], 1e-9)
}
