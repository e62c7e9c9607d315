package sinduscon

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"indexflow/internal/parse"
)

const defaultINCCURL = "https://sindusconpr.com.br/incc-m-fgv-1364-p"

// inccCurated covers the trailing window from the publisher's own history
// for periods the page fails to yield.
var inccCurated = map[string]float64{
	"2024-08": 0.70,
	"2024-09": 0.58,
	"2024-10": 0.68,
	"2024-11": 0.40,
	"2024-12": 0.56,
	"2025-01": 0.89,
	"2025-02": 0.40,
	"2025-03": 0.38,
	"2025-04": 0.59,
	"2025-05": 0.27,
	"2025-06": 0.72,
	"2025-07": 0.86,
}

const inccDefaultEstimate = 0.50

// NewINCC builds the scraper for the national construction-cost index page.
// The page publishes a table with the layout
// month | index | monthly% | year-acc% | 12m-acc%.
func NewINCC(cfg Config, logger *slog.Logger) *Scraper {
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = defaultINCCURL
	}
	chain := []extractor{extractINCCTables, extractMonthPercentText}
	return newScraper("incc", cfg, chain, inccCurated, inccDefaultEstimate, logger)
}

// extractINCCTables walks candidate tables whose text carries the series
// header tokens. A row is accepted only when its first cell resolves to a
// month/year token; the monthly variation sits in the third column of the
// five-column layout, or the second column of the condensed two-column one.
func extractINCCTables(doc *goquery.Document) map[string]float64 {
	found := map[string]float64{}

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		text := table.Text()
		if !strings.Contains(text, "INCC") && !strings.Contains(text, "%") &&
			!strings.Contains(text, "Mensal") && !strings.Contains(text, "Mês") {
			return
		}

		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td, th")
			if cells.Length() < 2 {
				return
			}
			period, ok := parse.MonthPeriod(strings.TrimSpace(cells.Eq(0).Text()))
			if !ok {
				return
			}

			valueText := ""
			if cells.Length() >= 5 {
				valueText = strings.TrimSpace(cells.Eq(2).Text())
			} else {
				valueText = strings.TrimSpace(cells.Eq(1).Text())
			}
			if valueText == "" || !looksNumeric(valueText) {
				return
			}
			if _, exists := found[period]; exists {
				return
			}
			found[period] = parse.Percentage(valueText)
		})
	})

	return found
}

var monthPercentPattern = regexp.MustCompile(
	`(?i)(janeiro|fevereiro|março|marco|abril|maio|junho|julho|agosto|setembro|outubro|novembro|dezembro|jan|fev|mar|abr|mai|jun|jul|ago|set|out|nov|dez)[/\s-]*(\d{4})[:\s]*([+-]?\d+[,.]?\d*)\s*%`)

// extractMonthPercentText is the loose terminal strategy before fallback: a
// full-text scan for "<month> <year> ... <percent>" anywhere in the page.
func extractMonthPercentText(doc *goquery.Document) map[string]float64 {
	found := map[string]float64{}
	for _, m := range monthPercentPattern.FindAllStringSubmatch(doc.Text(), -1) {
		num, ok := parse.MonthNumber(m[1])
		if !ok {
			continue
		}
		period := m[2] + "-" + num
		if _, exists := found[period]; exists {
			continue
		}
		found[period] = parse.Percentage(m[3])
	}
	return found
}

var numericPattern = regexp.MustCompile(`[\d,.\-]+`)

func looksNumeric(text string) bool {
	return strings.Contains(text, "%") || numericPattern.MatchString(text)
}
