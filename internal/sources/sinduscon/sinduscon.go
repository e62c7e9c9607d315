// Package sinduscon scrapes construction-cost indices from regional
// builders-association pages. The pages carry no structured API; extraction
// runs an ordered chain of strategies (known table layouts first, then a
// loose full-text scan) and a curated fallback guarantees one value per
// expected period when the page changes shape or becomes unreachable.
package sinduscon

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"indexflow/internal/model"
	"indexflow/internal/sources"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultThreshold = 0.5
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type Config struct {
	URL       string
	UserAgent string
	Timeout   time.Duration
	// Threshold is the minimum fraction of requested periods that must be
	// extracted before the page's own data is trusted without substitution.
	Threshold float64
}

// extractor returns period -> monthly variation for whatever it recognizes
// in the document. An empty map means the strategy found nothing usable.
type extractor func(doc *goquery.Document) map[string]float64

// Scraper downloads one publisher page and extracts monthly observations
// through its strategy chain. Fetch never fails for coverage reasons: the
// fallback resolver is the terminal strategy.
type Scraper struct {
	name     string
	config   Config
	http     *resty.Client
	chain    []extractor
	fallback *sources.FallbackResolver
	logger   *slog.Logger
	now      func() time.Time
}

func newScraper(name string, cfg Config, chain []extractor, curated map[string]float64, defaultValue float64, logger *slog.Logger) *Scraper {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		cfg.Threshold = defaultThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("source", name)

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8")

	return &Scraper{
		name:   name,
		config: cfg,
		http:   client,
		chain:  chain,
		fallback: &sources.FallbackResolver{
			Curated: curated,
			Default: defaultValue,
			Logger:  logger,
		},
		logger: logger,
		now:    time.Now,
	}
}

func (s *Scraper) Name() string {
	return s.name
}

// Fetch returns exactly limit observations, one per trailing month relative
// to now. Scraped values win; curated or default values substitute periods
// the page did not yield. Dates are emitted as MM/YYYY so the shared
// normalization path treats scraped and substituted rows alike.
func (s *Scraper) Fetch(ctx context.Context, limit int) ([]sources.RawObservation, error) {
	expected := model.TrailingPeriods(s.now(), limit)

	extracted, err := s.extract(ctx, expected, limit)
	if err != nil {
		s.logger.Warn("extraction incomplete, substituting",
			"url", s.config.URL, "extracted", len(extracted), "error", err)
	}

	resolved := s.fallback.Resolve(expected, extracted)
	observations := make([]sources.RawObservation, 0, len(resolved))
	for _, record := range resolved {
		observations = append(observations, sources.RawObservation{
			Date:  periodToMonthYear(record.Period),
			Value: strconv.FormatFloat(record.Value, 'f', -1, 64),
		})
	}
	return observations, nil
}

// extract downloads the page and runs the strategy chain. The returned map
// holds only periods inside the requested window; an ErrInsufficientCoverage
// result still carries whatever partial data was found.
func (s *Scraper) extract(ctx context.Context, expected []string, limit int) (map[string]float64, error) {
	doc, err := s.download(ctx)
	if err != nil {
		return nil, err
	}

	scraped := map[string]float64{}
	for _, extract := range s.chain {
		scraped = extract(doc)
		if len(scraped) > 0 {
			break
		}
	}

	inWindow := make(map[string]float64, len(scraped))
	for _, period := range expected {
		if value, ok := scraped[period]; ok {
			inWindow[period] = value
		}
	}

	threshold := int(math.Ceil(float64(limit) * s.config.Threshold))
	if len(inWindow) < threshold {
		return inWindow, fmt.Errorf("%w: %d of %d periods", sources.ErrInsufficientCoverage, len(inWindow), limit)
	}
	return inWindow, nil
}

func (s *Scraper) download(ctx context.Context) (*goquery.Document, error) {
	resp, err := s.http.R().SetContext(ctx).Get(s.config.URL)
	if err != nil {
		return nil, &sources.FetchError{Series: s.name, Err: err}
	}
	if resp.IsError() {
		return nil, &sources.FetchError{Series: s.name, Err: fmt.Errorf("unexpected status %d", resp.StatusCode())}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, &sources.FetchError{Series: s.name, Err: err}
	}
	return doc, nil
}

// periodToMonthYear turns a YYYY-MM key back into the MM/YYYY shape the
// normalization layer accepts.
func periodToMonthYear(period string) string {
	parts := strings.SplitN(period, "-", 2)
	if len(parts) != 2 {
		return period
	}
	return parts[1] + "/" + parts[0]
}
