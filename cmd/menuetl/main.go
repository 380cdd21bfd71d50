// Command menuetl loads the NYPL "What's on the Menu?" data dump into the
// search index.
//
//	menuetl /data/menus -s localhost -p 9200 --log-home /var/log/menus
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trevormunoz/dumbwaiter/internal/config"
	"github.com/trevormunoz/dumbwaiter/internal/logging"
	"github.com/trevormunoz/dumbwaiter/internal/pipeline"

	// register every mirror backend; --mirror-kind picks one.
	_ "github.com/trevormunoz/dumbwaiter/internal/storage/mssql"
	_ "github.com/trevormunoz/dumbwaiter/internal/storage/postgres"
	_ "github.com/trevormunoz/dumbwaiter/internal/storage/sqlite"
)

type runner interface {
	Run(ctx context.Context, cfg config.Config) (pipeline.Summary, error)
}

// appDeps are the side-effecting seams of runMain.
type appDeps struct {
	newLogger   func(opts logging.Options) (*slog.Logger, func() error, error)
	initMetrics func(ctx context.Context, cfg config.Metrics) (func(), error)
	initSentry  func(dsn string) (capture func(error), flush func(), err error)
	newRunner   func(log *slog.Logger) runner
}

func defaultDeps() appDeps {
	return appDeps{
		newLogger:   logging.New,
		initMetrics: initMetrics,
		initSentry:  initSentry,
		newRunner:   func(log *slog.Logger) runner { return pipeline.New(log) },
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := runMain(ctx, os.Args[1:], os.Stdout, os.Stderr, defaultDeps())
	stop()
	os.Exit(code)
}

// runMain parses args and runs the pipeline. It returns 0 on success, 1 on
// an invalid configuration or a failed run and 2 on usage errors.
func runMain(ctx context.Context, args []string, stdout, stderr io.Writer, deps appDeps) int {
	v := config.NewViper()
	code := 0

	var validateOnly bool
	cmd := &cobra.Command{
		Use:           "menuetl [path]",
		Short:         "Load the NYPL menus data into the search index",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, pos []string) error {
			if len(pos) == 1 {
				v.Set(config.KeySourceData, pos[0])
			}
			code = execute(ctx, v, validateOnly, stdout, stderr, deps)
			return nil
		},
	}
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := bindFlags(cmd, v); err != nil {
		fmt.Fprintf(stderr, "flags: %v\n", err)
		return 2
	}
	cmd.Flags().BoolVar(&validateOnly, "validate", false, "validate the configuration and exit")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "%v\nusage: %s\n", err, cmd.UseLine())
		return 2
	}
	return code
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	f := cmd.Flags()
	f.StringP("host", "s", "", "search engine hostname (default localhost)")
	f.IntP("port", "p", 0, "search engine port (default 9200)")
	f.String("index", "", "target index (default menus)")
	f.Int("batch-size", 0, "documents per bulk request (default 1000)")
	f.String("log-home", "", "directory for the rotating log file")
	f.BoolP("verbose", "v", false, "debug logging, also written to stderr")
	f.Bool("dry-run", false, "transform and write sinks without touching the index")
	f.String("export-dir", "", "write a replayable NDJSON bulk file here")
	f.String("mirror-kind", "", "mirror documents into SQL: postgres|sqlite|mssql")
	f.String("mirror-dsn", "", "mirror connection string")
	f.String("mirror-table", "", "mirror table (default menu_documents)")
	f.String("metrics-backend", "", "metrics backend: none|datadog|pushgateway")
	f.String("pushgateway-url", "", "Pushgateway base URL")
	f.String("config", "", "optional config file (yaml, json or toml)")

	for key, name := range map[string]string{
		config.KeyESHost:         "host",
		config.KeyESPort:         "port",
		config.KeyESIndex:        "index",
		config.KeyBatchSize:      "batch-size",
		config.KeyLogHome:        "log-home",
		config.KeyVerbose:        "verbose",
		config.KeyDryRun:         "dry-run",
		config.KeyOutputDir:      "export-dir",
		config.KeyMirrorKind:     "mirror-kind",
		config.KeyMirrorDSN:      "mirror-dsn",
		config.KeyMirrorTable:    "mirror-table",
		config.KeyMetricsBackend: "metrics-backend",
		config.KeyPushgatewayURL: "pushgateway-url",
		config.KeyConfigFile:     "config",
	} {
		if err := v.BindPFlag(key, f.Lookup(name)); err != nil {
			return fmt.Errorf("bind %s: %w", name, err)
		}
	}
	return nil
}

func execute(ctx context.Context, v *viper.Viper, validateOnly bool, stdout, stderr io.Writer, deps appDeps) int {
	cfg, err := config.Load(v)
	if err != nil {
		fmt.Fprintf(stderr, "read config: %v\n", err)
		return 1
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fmt.Fprintln(stderr, "configuration is invalid")
		return 1
	}
	if validateOnly {
		fmt.Fprintln(stdout, "configuration is valid")
		return 0
	}

	log, closeLog, err := deps.newLogger(logging.Options{Home: cfg.LogHome, Verbose: cfg.Verbose, Stderr: stderr})
	if err != nil {
		fmt.Fprintf(stderr, "init logging: %v\n", err)
		return 1
	}
	defer func() { _ = closeLog() }()

	cleanupMetrics, err := deps.initMetrics(ctx, cfg.Metrics)
	if err != nil {
		fmt.Fprintf(stderr, "init metrics: %v\n", err)
		return 1
	}
	defer cleanupMetrics()

	capture, flushSentry, err := deps.initSentry(cfg.SentryDSN)
	if err != nil {
		log.Warn("error reporting disabled", "err", err)
		capture, flushSentry = func(error) {}, func() {}
	}
	defer flushSentry()

	start := time.Now()
	sum, err := deps.newRunner(log).Run(ctx, cfg)
	if err != nil {
		msg := pipeline.Describe(err)
		log.Error("Something went wrong: " + msg)
		capture(err)
		fmt.Fprintf(stderr, "run: %s\n", msg)
		return 1
	}

	log.Info("run complete", "duration", time.Since(start).Truncate(time.Millisecond))
	if cfg.DryRun {
		fmt.Fprintf(stdout, "transformed %d documents (dry run)\n", sum.Stats.Documents)
	} else {
		fmt.Fprintf(stdout, "indexed %d documents, %d failed\n", sum.Bulk.Succeeded, sum.Bulk.Failed)
	}
	return 0
}

func initSentry(dsn string) (func(error), func(), error) {
	if dsn == "" {
		return func(error) {}, func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
		return nil, nil, fmt.Errorf("sentry init: %w", err)
	}
	capture := func(err error) { sentry.CaptureException(err) }
	flush := func() { sentry.Flush(2 * time.Second) }
	return capture, flush, nil
}
