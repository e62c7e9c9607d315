// Package bcb fetches time series from the central bank's SGS endpoint.
// Each series is addressed by a numeric code and returns JSON rows of
// {"data":"DD/MM/YYYY","valor":"0.38"}.
package bcb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"indexflow/internal/sources"
)

// Series codes assigned by the SGS service.
const (
	CodeIPCA           = 433
	CodeIGPM           = 189
	CodeSelicMeta      = 432
	CodeSelicAcumulada = 1178
	CodeCDI            = 4392
)

const (
	defaultBaseURL      = "https://api.bcb.gov.br"
	defaultPathTemplate = "/dados/serie/bcdata.sgs.%d/dados/ultimos/%d"
	defaultTimeout      = 10 * time.Second
	defaultUserAgent    = "indexflow/1.0"

	// The service rejects windows beyond its documented maximum.
	maxLimit = 10000
)

type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

type Client struct {
	config Config
	http   *resty.Client
}

func New() *Client {
	return NewWithConfig(Config{})
}

func NewWithConfig(cfg Config) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")

	return &Client{config: cfg, http: client}
}

type seriesRow struct {
	Data  string `json:"data"`
	Valor string `json:"valor"`
}

// Fetch retrieves the last limit rows of one series. A single request, no
// retries; network errors and non-success statuses surface as a typed
// FetchError naming the series code.
func (c *Client) Fetch(ctx context.Context, code, limit int) ([]sources.RawObservation, error) {
	series := fmt.Sprintf("sgs.%d", code)
	if limit <= 0 {
		return nil, &sources.FetchError{Series: series, Err: errors.New("limit must be positive")}
	}
	if limit > maxLimit {
		return nil, &sources.FetchError{Series: series, Err: fmt.Errorf("limit %d exceeds service maximum %d", limit, maxLimit)}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("formato", "json").
		Get(fmt.Sprintf(defaultPathTemplate, code, limit))
	if err != nil {
		return nil, &sources.FetchError{Series: series, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &sources.FetchError{Series: series, Err: fmt.Errorf("unexpected status %d", resp.StatusCode())}
	}

	var rows []seriesRow
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, &sources.FetchError{Series: series, Err: fmt.Errorf("decode response: %w", err)}
	}

	observations := make([]sources.RawObservation, 0, len(rows))
	for _, row := range rows {
		observations = append(observations, sources.RawObservation{Date: row.Data, Value: row.Valor})
	}
	return observations, nil
}

// Series binds one SGS code to the Source contract.
type Series struct {
	client *Client
	name   string
	code   int
}

func (c *Client) Series(name string, code int) *Series {
	return &Series{client: c, name: name, code: code}
}

func (s *Series) Name() string {
	return s.name
}

func (s *Series) Fetch(ctx context.Context, limit int) ([]sources.RawObservation, error) {
	return s.client.Fetch(ctx, s.code, limit)
}
