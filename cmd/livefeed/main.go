package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/livefeed/pkg/backend"
	"github.com/umputun/livefeed/pkg/config"
	"github.com/umputun/livefeed/pkg/feed"
	"github.com/umputun/livefeed/pkg/fetch"
	"github.com/umputun/livefeed/pkg/metrics"
	"github.com/umputun/livefeed/pkg/scheduler"
	"github.com/umputun/livefeed/server"
)

// Opts with all CLI options
type Opts struct {
	Config     string `short:"c" long:"config" env:"CONFIG" description:"path to yaml config file, defaults are used if not set"`
	Backend    string `short:"b" long:"backend" env:"NODE_BACKEND_URL" description:"backend base url, overrides config (default http://localhost:5001)"`
	WeatherKey string `long:"weather-key" env:"WEATHER_API_KEY" description:"weather provider api key, overrides config"`
	Listen     string `short:"l" long:"listen" env:"LISTEN" description:"status server listen address, overrides config"`
	EnvFile    string `long:"env-file" env:"ENV_FILE" default:".env" description:"dotenv file loaded before start"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	// .env goes first, options below read the environment
	loadEnvFile(envFileName(os.Args[1:]))

	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	if opts.NoColor {
		color.NoColor = true
	}
	setupLog(opts.Debug, opts.WeatherKey)
	lgr.Printf("[INFO] starting livefeed version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		lgr.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()
	if err != nil {
		lgr.Printf("[ERROR] livefeed failed: %v", err)
		os.Exit(1)
	}
	lgr.Print("[INFO] shutdown complete")
}

// run wires all components and blocks until ctx is canceled
func run(ctx context.Context, opts Opts) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	setupLog(opts.Debug, opts.WeatherKey, cfg.Weather.APIKey)
	lgr.Printf("[INFO] backend %s, sweep every %v, %d workers", cfg.Backend.URL, cfg.Schedule.SweepInterval, cfg.Schedule.MaxWorkers)

	collector, err := metrics.New(server.Routes()...)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	sched := makeScheduler(cfg, collector)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(ctx) })

	if listen, _ := cfg.GetServerConfig(); listen != "" {
		srv := server.New(cfg, sched, collector, revision, opts.Debug)
		g.Go(func() error { return srv.Run(ctx) })
	}

	return g.Wait()
}

// loadConfig reads the config file if set and applies CLI overrides
func loadConfig(opts Opts) (*config.Config, error) {
	cfg := config.Default()
	if opts.Config != "" {
		var err error
		if cfg, err = config.Load(opts.Config); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		lgr.Printf("[INFO] config loaded from %s", opts.Config)
	}

	if opts.Backend != "" {
		cfg.Backend.URL = opts.Backend
	}
	if opts.WeatherKey != "" {
		cfg.Weather.APIKey = opts.WeatherKey
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// makeScheduler builds the fetch strategies, backend clients and the scheduler on top of them
func makeScheduler(cfg *config.Config, collector *metrics.Collector) *scheduler.Scheduler {
	synth := fetch.NewSynthetic(uint64(time.Now().UnixNano())) //nolint:gosec // seed only

	weather := fetch.NewWeather(fetch.WeatherParams{
		Client:      &http.Client{},
		BaseURL:     cfg.Weather.BaseURL,
		APIKey:      cfg.Weather.APIKey,
		Timeout:     cfg.Weather.Timeout,
		RateLimit:   cfg.WeatherRateLimit(),
		DefaultCity: cfg.Weather.DefaultCity,
		MaxParallel: cfg.Weather.MaxParallel,
		Synthetic:   synth,
		Metrics:     collector,
	})

	feeds := fetch.NewRSS(
		feed.NewHTTPFetcher(&http.Client{}, cfg.Feed.Timeout, cfg.Feed.UserAgent),
		feed.NewParser(feed.ParserConfig{
			MaxItems:       cfg.Feed.MaxItems,
			MaxDescription: cfg.Feed.MaxDescription,
			StripHTML:      cfg.StripHTMLEnabled(),
		}),
		synth,
		collector,
	)

	backendClient := &http.Client{}
	registry := backend.NewRegistry(backend.RegistryParams{
		Client:   backendClient,
		BaseURL:  cfg.Backend.URL,
		Path:     cfg.Backend.SourcesPath,
		Timeout:  cfg.Backend.Timeout,
		Attempts: cfg.Backend.RegistryRetries,
	})
	delivery := backend.NewDelivery(backend.DeliveryParams{
		Client:  backendClient,
		BaseURL: cfg.Backend.URL,
		Path:    cfg.Backend.IngestPath,
		Timeout: cfg.Backend.Timeout,
	})

	return scheduler.NewScheduler(scheduler.Params{
		Registry:        registry,
		Fetcher:         fetch.NewDispatcher(weather, feeds),
		Deliverer:       delivery,
		Metrics:         collector,
		SweepInterval:   cfg.Schedule.SweepInterval,
		IdleInterval:    cfg.Schedule.IdleInterval,
		ErrorBackoff:    cfg.Schedule.ErrorBackoff,
		DefaultInterval: cfg.Schedule.DefaultInterval,
		MaxWorkers:      cfg.Schedule.MaxWorkers,
	})
}

// envFileName picks --env-file from raw args or ENV_FILE, before flags are parsed
func envFileName(args []string) string {
	for i, a := range args {
		if a == "--env-file" && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(a, "--env-file="); ok && v != "" {
			return v
		}
	}
	if v := os.Getenv("ENV_FILE"); v != "" {
		return v
	}
	return ".env"
}

// loadEnvFile loads dotenv file into the environment, already set variables win. Missing file is fine.
func loadEnvFile(name string) {
	if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "can't load %s: %v\n", name, err)
	}
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	var secrets []string
	for _, s := range secs {
		if s != "" {
			secrets = append(secrets, s)
		}
	}
	if len(secrets) > 0 {
		logOpts = append(logOpts, lgr.Secret(secrets...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
