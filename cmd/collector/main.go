package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"indexflow/internal/collector"
	"indexflow/internal/config"
	"indexflow/internal/model"
	"indexflow/internal/scheduler"
	"indexflow/internal/sources/bcb"
	"indexflow/internal/sources/sinduscon"
	"indexflow/internal/store"
	"indexflow/internal/store/sqlite"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	switch os.Args[1] {
	case "run":
		run(os.Args[2:])
	case "serve":
		serve(os.Args[2:])
	case "latest":
		latest(os.Args[2:])
	case "average":
		average(os.Args[2:])
	case "current":
		current(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: collector <command> [options]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  run       execute one collection cycle and exit")
	fmt.Fprintln(os.Stderr, "  serve     run the recurring collection jobs until interrupted")
	fmt.Fprintln(os.Stderr, "  latest    print the latest stored periods for an index kind")
	fmt.Fprintln(os.Stderr, "  average   print the mean of the latest stored values for a kind")
	fmt.Fprintln(os.Stderr, "  current   print the stored scalar rate for a kind")
}

func run(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	dbPath := fs.String("db", "", "sqlite database path (empty = configured default, \"none\" disables persistence)")
	fs.Parse(args)

	cfg, logger := mustSetup()

	st, err := openStore(cfg, *dbPath)
	if err != nil {
		fatal(err)
	}
	defer st.Close()

	sched, err := buildScheduler(cfg, st, logger)
	if err != nil {
		fatal(err)
	}

	results := sched.RunNow(context.Background())
	printResults(results)
}

func serve(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	dbPath := fs.String("db", "", "sqlite database path (empty = configured default)")
	immediate := fs.Bool("collect-on-start", false, "run one collection cycle immediately on startup")
	fs.Parse(args)

	cfg, logger := mustSetup()

	st, err := openStore(cfg, *dbPath)
	if err != nil {
		fatal(err)
	}
	defer st.Close()

	sched, err := buildScheduler(cfg, st, logger)
	if err != nil {
		fatal(err)
	}
	if err := sched.Start(); err != nil {
		fatal(err)
	}
	defer sched.Stop()

	if *immediate {
		printResults(sched.RunNow(context.Background()))
	}

	status := sched.Status()
	logger.Info("serving", "jobs", status.TotalJobs, "timezone", status.Timezone)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")
}

func latest(args []string) {
	fs := flag.NewFlagSet("latest", flag.ExitOnError)
	kindName := fs.String("kind", "ipca", "index kind")
	limit := fs.Int("limit", 12, "number of periods")
	dbPath := fs.String("db", "", "sqlite database path (empty = configured default)")
	fs.Parse(args)

	cfg, _ := mustSetup()
	kind, err := model.ParseKind(*kindName)
	if err != nil {
		fatal(err)
	}

	st, err := openStore(cfg, *dbPath)
	if err != nil {
		fatal(err)
	}
	defer st.Close()

	observations, err := st.Latest(context.Background(), kind, *limit)
	if err != nil {
		fatal(err)
	}
	for _, observation := range observations {
		fmt.Printf("%s %s %.4f\n", observation.Kind, observation.Period, observation.Value)
	}
}

func average(args []string) {
	fs := flag.NewFlagSet("average", flag.ExitOnError)
	kindName := fs.String("kind", "ipca", "index kind")
	limit := fs.Int("limit", 12, "number of periods")
	dbPath := fs.String("db", "", "sqlite database path (empty = configured default)")
	fs.Parse(args)

	cfg, _ := mustSetup()
	kind, err := model.ParseKind(*kindName)
	if err != nil {
		fatal(err)
	}

	st, err := openStore(cfg, *dbPath)
	if err != nil {
		fatal(err)
	}
	defer st.Close()

	avg, ok, err := st.Average(context.Background(), kind, *limit)
	if err != nil {
		fatal(err)
	}
	if !ok {
		fmt.Println("no data")
		return
	}
	fmt.Printf("%.4f\n", avg)
}

func current(args []string) {
	fs := flag.NewFlagSet("current", flag.ExitOnError)
	kindName := fs.String("kind", "selic_meta", "index kind")
	dbPath := fs.String("db", "", "sqlite database path (empty = configured default)")
	fs.Parse(args)

	cfg, _ := mustSetup()
	kind, err := model.ParseKind(*kindName)
	if err != nil {
		fatal(err)
	}

	st, err := openStore(cfg, *dbPath)
	if err != nil {
		fatal(err)
	}
	defer st.Close()

	if kind == model.KindSelicAcumulada {
		rate, err := st.LatestDatedScalar(context.Background(), kind)
		if err != nil {
			fatal(err)
		}
		if rate == nil {
			fmt.Println("no data")
			return
		}
		fmt.Printf("%s %.4f\n", rate.ReferenceDate, rate.Value)
		return
	}

	rate, err := st.CurrentScalar(context.Background(), kind)
	if err != nil {
		fatal(err)
	}
	if rate == nil {
		fmt.Println("no data")
		return
	}
	fmt.Printf("%.4f\n", rate.Value)
}

func mustSetup() (config.Config, *slog.Logger) {
	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	return cfg, logger
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func openStore(cfg config.Config, override string) (store.Store, error) {
	path := cfg.DatabasePath
	if override != "" {
		path = override
	}
	if strings.EqualFold(path, "none") {
		return &store.NopStore{}, nil
	}
	return sqlite.New(path)
}

func buildScheduler(cfg config.Config, st store.Store, logger *slog.Logger) (*scheduler.Scheduler, error) {
	col := buildCollector(cfg, st, logger)
	return scheduler.New(scheduler.Config{
		Timezone:     cfg.Timezone,
		MonthlySpec:  cfg.MonthlySpec,
		WeeklySpec:   cfg.WeeklySpec,
		CycleTimeout: cfg.CycleTimeout,
	}, col.CollectAll, logger)
}

func buildCollector(cfg config.Config, st store.Store, logger *slog.Logger) *collector.Collector {
	sgs := bcb.NewWithConfig(bcb.Config{
		BaseURL: cfg.BCBBaseURL,
		Timeout: cfg.APITimeout,
	})
	scrapeCfg := func(url string) sinduscon.Config {
		return sinduscon.Config{URL: url, Timeout: cfg.ScrapeTimeout}
	}

	periodic := []collector.PeriodicSource{
		{Kind: model.KindIPCA, Source: sgs.Series("ipca", bcb.CodeIPCA)},
		{Kind: model.KindIGPM, Source: sgs.Series("igpm", bcb.CodeIGPM)},
		{Kind: model.KindCDI, Source: sgs.Series("cdi", bcb.CodeCDI), Derive: true},
		{Kind: model.KindINCC, Source: sinduscon.NewINCC(scrapeCfg(cfg.INCCURL), logger)},
		{Kind: model.KindCUBSC, Source: sinduscon.NewCUB(scrapeCfg(cfg.CUBURL), logger)},
	}
	scalars := []collector.ScalarSource{
		{Kind: model.KindSelicMeta, Source: sgs.Series("selic_meta", bcb.CodeSelicMeta)},
		{Kind: model.KindSelicAcumulada, Source: sgs.Series("selic_acumulada", bcb.CodeSelicAcumulada), Dated: true},
	}

	return collector.New(st, periodic, scalars, logger)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "collector:", err)
	os.Exit(1)
}

func printResults(results map[string]int) {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s: %d\n", name, results[name])
	}
}
