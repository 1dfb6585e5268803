package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/matrufsc/cagr-scrape/internal/cache"
	"github.com/matrufsc/cagr-scrape/internal/calendar"
	"github.com/matrufsc/cagr-scrape/internal/config"
	"github.com/matrufsc/cagr-scrape/internal/database"
	"github.com/matrufsc/cagr-scrape/internal/logger"
	"github.com/matrufsc/cagr-scrape/internal/pipeline"
	"github.com/matrufsc/cagr-scrape/internal/publish"
	"github.com/matrufsc/cagr-scrape/internal/schedule"
	"github.com/matrufsc/cagr-scrape/internal/scraper"
	"github.com/matrufsc/cagr-scrape/internal/storage"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	ExitPartial = 2
)

// errPartial marks a run where at least one campus could not be scraped or published
var errPartial = errors.New("some campi failed")

const dateLayout = "2006-01-02"

type options struct {
	semesters   int
	force       bool
	campi       []string
	dataDir     string
	baseURL     string
	timeout     time.Duration
	csv         bool
	ics         bool
	icsStart    string
	icsWeeks    int
	databaseURL string
	dryRun      bool
	format      string
	logLevel    string
	verbose     bool
}

// NewRootCmd creates the root command. Output goes to the command's out and
// err writers.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "cagr-scrape",
		Short: "Scrape UFSC course schedules from CAGR",
		Long: `A CLI tool to scrape the UFSC CAGR class listings.
Discovers the newest semesters, scrapes every campus concurrently and publishes
one matrufsc JSON schedule per semester and campus. Semesters published less
than three days ago are skipped unless --force is given.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.semesters, "semesters", "n", config.DefaultSemesters, "Number of newest semesters to scrape (env CAGR_SEMESTERS)")
	flags.BoolVarP(&opts.force, "force", "f", false, "Scrape even if the published schedule is fresh")
	flags.StringSliceVar(&opts.campi, "campus", nil, "Campi to scrape (FLO,JOI,CBS,ARA,BLN), default all")
	flags.StringVar(&opts.dataDir, "data-dir", storage.DefaultDataDir, "Directory for published schedules (env CAGR_DATA_DIR)")
	flags.StringVar(&opts.baseURL, "base-url", scraper.CAGRURL, "CAGR endpoint (env CAGR_URL)")
	flags.DurationVar(&opts.timeout, "timeout", scraper.Timeout, "Per-request timeout, 0 disables (env CAGR_TIMEOUT)")
	flags.BoolVar(&opts.csv, "csv", false, "Also write a CSV file per campus")
	flags.BoolVar(&opts.ics, "ics", false, "Also write an iCalendar file per campus")
	flags.StringVar(&opts.icsStart, "ics-start", "", "First day of classes for --ics (YYYY-MM-DD), default today")
	flags.IntVar(&opts.icsWeeks, "ics-weeks", calendar.DefaultWeeks, "Weeks of classes for --ics")
	flags.StringVar(&opts.databaseURL, "database-url", "", "Postgres URL to also store schedules in (env DATABASE_URL)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Print what would be published without writing")
	flags.StringVar(&opts.format, "format", "text", "Summary format: text or json")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error (env LOG_LEVEL)")
	flags.BoolVar(&opts.verbose, "verbose", false, "Include metrics in the summary")

	return cmd
}

// loadConfig merges environment configuration with explicitly set flags
func loadConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, fmt.Errorf("loading configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("semesters") {
		cfg.Semesters = opts.semesters
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = opts.dataDir
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = opts.baseURL
	}
	if flags.Changed("timeout") {
		cfg.Timeout = opts.timeout
	}
	if flags.Changed("database-url") {
		cfg.DatabaseURL = opts.databaseURL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// run is the main command logic
func run(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))

	format := OutputFormat(strings.ToLower(opts.format))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", opts.format)
	}

	campi := schedule.AllCampi()
	if len(opts.campi) > 0 {
		if campi, err = schedule.ParseCampi(opts.campi); err != nil {
			return err
		}
	}

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	sc := scraper.New(cfg.BaseURL, cfg.Timeout)
	gate := cache.NewGate(store.ArtifactPath, opts.force)
	gate.Threshold = cfg.CacheThreshold

	p := pipeline.New(sc, sc, gate)
	p.Campi = campi

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	publisher, closeFn, err := newPublisher(ctx, cmd.OutOrStdout(), opts, cfg, store, p.RunID)
	if err != nil {
		return err
	}
	defer closeFn()

	startedAt := time.Now().UTC()
	results, err := p.Run(ctx, cfg.Semesters)
	if err != nil {
		return err
	}

	summary := &Summary{RunID: p.RunID, StartedAt: startedAt}
	for _, r := range results {
		summary.Semesters = append(summary.Semesters, publishSemester(ctx, publisher, p.Campi, r))
	}
	summary.finish()
	if opts.verbose {
		summary.Metrics = logger.GetMetricsSnapshot()
	}

	if err := WriteOutput(cmd.OutOrStdout(), summary, format, opts.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if summary.Failures > 0 {
		return errPartial
	}
	return nil
}

// newPublisher assembles the publishers selected by the flags
func newPublisher(ctx context.Context, out io.Writer, opts *options, cfg config.Config, store *storage.Storage, runID string) (publish.Publisher, func(), error) {
	noop := func() {}

	if opts.dryRun {
		return publish.NewDryRunPublisher(out), noop, nil
	}

	var fileOpts []publish.FileOption
	if opts.csv {
		fileOpts = append(fileOpts, publish.WithCSV())
	}
	if opts.ics {
		start := time.Now().In(schedule.Local)
		if opts.icsStart != "" {
			parsed, err := time.ParseInLocation(dateLayout, opts.icsStart, schedule.Local)
			if err != nil {
				return nil, noop, fmt.Errorf("invalid --ics-start: %w", err)
			}
			start = parsed
		}
		fileOpts = append(fileOpts, publish.WithICS(calendar.Options{TermStart: start, Weeks: opts.icsWeeks}))
	}

	publishers := publish.Multi{publish.NewFilePublisher(store, fileOpts...)}
	if cfg.DatabaseURL == "" {
		return publishers, noop, nil
	}

	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, noop, fmt.Errorf("parsing run id: %w", err)
	}
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, noop, err
	}
	repo := database.NewSchedulePostgresRepository(db)

	// Database first: the JSON file marks the semester fresh, so it is only
	// written once every other destination succeeded.
	publishers = append(publish.Multi{publish.NewDatabasePublisher(repo, id)}, publishers...)
	return publishers, func() { db.Close() }, nil
}

// publishSemester publishes every scraped campus of a semester and builds its
// summary, listing campi in the configured order
func publishSemester(ctx context.Context, publisher publish.Publisher, campi []schedule.Campus, r pipeline.SemesterResult) SemesterSummary {
	s := SemesterSummary{Semester: r.Semester.String(), Skipped: r.Skipped}
	if r.Skipped {
		return s
	}

	byCampus := make(map[schedule.Campus]CampusSummary, len(campi))
	for _, c := range r.Campi {
		cs := CampusSummary{Campus: c.Campus.String(), Classes: len(c.Classes)}
		if err := publisher.Publish(ctx, r.Semester, c.Campus, c.Classes); err != nil {
			logger.Error("publishing schedule failed", logger.Fields{
				"semester": r.Semester,
				"campus":   c.Campus,
			}, err)
			cs.Error = "publish: " + err.Error()
		}
		byCampus[c.Campus] = cs
	}
	for _, f := range r.Failures {
		byCampus[f.Campus] = CampusSummary{Campus: f.Campus.String(), Error: f.Err.Error()}
	}

	for _, c := range campi {
		if cs, ok := byCampus[c]; ok {
			s.Campi = append(s.Campi, cs)
		}
	}
	return s
}

// ExitCode maps the result of Execute to a process exit code
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errPartial):
		return ExitPartial
	default:
		return ExitError
	}
}

// Execute runs the CLI and exits the process
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil && !errors.Is(err, errPartial) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(ExitCode(err))
}
