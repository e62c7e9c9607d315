package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is populated from INDEXFLOW_* environment variables.
type Config struct {
	DatabasePath string `envconfig:"DATABASE_PATH" default:"indexflow.db"`

	Timezone     string        `envconfig:"TIMEZONE" default:"America/Sao_Paulo"`
	MonthlySpec  string        `envconfig:"MONTHLY_SPEC" default:"0 9 10 * *"`
	WeeklySpec   string        `envconfig:"WEEKLY_SPEC" default:"0 8 * * 1"`
	CycleTimeout time.Duration `envconfig:"CYCLE_TIMEOUT" default:"5m"`

	BCBBaseURL string        `envconfig:"BCB_BASE_URL"`
	APITimeout time.Duration `envconfig:"API_TIMEOUT" default:"10s"`

	INCCURL       string        `envconfig:"INCC_URL"`
	CUBURL        string        `envconfig:"CUB_URL"`
	ScrapeTimeout time.Duration `envconfig:"SCRAPE_TIMEOUT" default:"15s"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("indexflow", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
