package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/joaodebarro/backend/internal/infrastructure/apiclient"
	"github.com/joaodebarro/backend/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	envAPIURL       = "BOOKKEEPING_API_URL"
	defaultAPIURL   = "http://localhost:8080"
	defaultTimezone = "America/Sao_Paulo"
)

// seedApp carries what every subcommand shares once flags are parsed
type seedApp struct {
	apiURL    string
	format    string
	logLevel  string
	timezone  string
	timeout   time.Duration
	rps       float64
	retries   int
	batchSize int
	batch     bool
	dryRun    bool

	log    *zap.Logger
	clock  shared.Clock
	client *apiclient.Client
}

func newRootCmd() *cobra.Command {
	app := &seedApp{}

	root := &cobra.Command{
		Use:   "seed",
		Short: "Load receivables into the bookkeeping API",
		Long: `Seed posts receivables to a running bookkeeping API.

The import subcommand reads a spreadsheet export (comma or semicolon separated,
Brazilian or international number formats). The fake subcommand generates
synthetic receivables. Both print a summary of what was created and what failed.

The API address defaults to $` + envAPIURL + `, which may also be set in a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.log != nil {
				logger.Sync(app.log)
			}
		},
	}

	apiURL := os.Getenv(envAPIURL)
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.apiURL, "api", apiURL, "Base URL of the bookkeeping API")
	flags.StringVar(&app.format, "format", "json", "Summary format: json or yaml")
	flags.StringVar(&app.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	flags.StringVar(&app.timezone, "timezone", defaultTimezone, "Time zone that decides today's date")
	flags.DurationVar(&app.timeout, "timeout", 10*time.Second, "Timeout of each API request")
	flags.Float64Var(&app.rps, "rps", 20, "Maximum API requests per second (0 disables throttling)")
	flags.IntVar(&app.retries, "retries", 3, "Retries after a transport failure or 5xx response")
	flags.BoolVar(&app.batch, "batch", false, "Post entries through the batch endpoint")
	flags.IntVar(&app.batchSize, "batch-size", 100, "Entries per batch request")
	flags.BoolVar(&app.dryRun, "dry-run", false, "Validate only, without calling the API")

	root.AddCommand(newImportCmd(app), newFakeCmd(app))
	return root
}

func (a *seedApp) init() error {
	if a.format != "json" && a.format != "yaml" {
		return fmt.Errorf("unknown format %q, expected json or yaml", a.format)
	}
	if a.batchSize < 1 || a.batchSize > maxBatchSize {
		return fmt.Errorf("batch-size must be between 1 and %d", maxBatchSize)
	}

	log, err := logger.New(&logger.Config{
		Level:  a.logLevel,
		Format: "console",
		Output: "stderr",
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	a.log = log

	loc, err := time.LoadLocation(a.timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", a.timezone, err)
	}
	a.clock = shared.NewSystemClock(loc)

	cfg := apiclient.DefaultConfig(a.apiURL)
	cfg.Timeout = a.timeout
	cfg.RequestsPerSecond = a.rps
	cfg.MaxRetries = a.retries
	a.client = apiclient.New(cfg, apiclient.WithLogger(log.Named("apiclient")))
	return nil
}
