package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/animus-labs/trainflow/internal/archive"
	"github.com/animus-labs/trainflow/internal/ledger"
	"github.com/animus-labs/trainflow/internal/platform/awsconfig"
	"github.com/animus-labs/trainflow/internal/platform/env"
	"github.com/animus-labs/trainflow/internal/platform/objectstore"
	"github.com/animus-labs/trainflow/internal/platform/postgres"
	"github.com/animus-labs/trainflow/internal/preflight"
	"github.com/animus-labs/trainflow/internal/provision"
	"github.com/animus-labs/trainflow/internal/publish"
	"github.com/animus-labs/trainflow/internal/settings"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("trainflow", flag.ContinueOnError)
	fs.SetOutput(stdout)
	configPath := fs.String("config", env.String("TRAINFLOW_SETTINGS_FILE", ""), "YAML settings file")
	dryRun := fs.Bool("dry-run", false, "render and patch the definition without calling AWS")
	outPath := fs.String("out", "", "write the patched definition to this file")
	lenient := fs.Bool("lenient-patch", false, "skip definition fixups that do not match instead of failing")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitConfig
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{Level: logLevel()}))

	s, err := settings.Load(*configPath)
	if err != nil {
		logger.Error("invalid settings", "error", err)
		return exitConfig
	}
	if *lenient {
		s.Patch.Lenient = true
	}

	runner := &provision.Runner{Logger: logger, Actor: actor()}
	if !*dryRun {
		cleanup, code := wire(ctx, logger, s, runner)
		defer cleanup()
		if code != exitOK {
			return code
		}
	}

	out, err := runner.Run(ctx, s, *dryRun)
	if err != nil {
		logger.Error("provisioning failed", "error", err)
		return exitFailed
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, []byte(out.Rendered.Definition+"\n"), 0o644); err != nil {
			logger.Error("write definition", "path", *outPath, "error", err)
			return exitFailed
		}
	} else if *dryRun {
		fmt.Fprintln(stdout, out.Rendered.Definition)
	}
	return exitOK
}

// wire connects the runner to AWS and to the optional archive and ledger.
func wire(ctx context.Context, logger *slog.Logger, s settings.Settings, runner *provision.Runner) (func(), int) {
	cleanup := func() {}

	awsCfg, err := awsconfig.Load(ctx, s.Publish.Region)
	if err != nil {
		logger.Error("aws config unavailable", "error", err)
		return cleanup, exitConfig
	}
	clients := awsconfig.NewClients(awsCfg)

	publisher, err := publish.New(clients.StepFunctions, logger, s.Publish.Timeout)
	if err != nil {
		logger.Error("publisher init failed", "error", err)
		return cleanup, exitConfig
	}
	runner.Publisher = publisher

	if s.Publish.Preflight {
		runner.Preflight = &preflight.Checker{
			Definitions: clients.StepFunctions,
			Tables:      clients.DynamoDB,
			Functions:   clients.Lambda,
			Logger:      logger,
			Timeout:     s.Publish.Timeout,
		}
	}

	if s.Archive.Enabled {
		storeCfg, err := objectstore.ConfigFromEnv()
		if err != nil {
			logger.Error("invalid archive config", "error", err)
			return cleanup, exitConfig
		}
		client, err := objectstore.NewMinIOClient(storeCfg)
		if err != nil {
			logger.Error("archive client init failed", "error", err)
			return cleanup, exitConfig
		}
		startupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = objectstore.EnsureBucket(startupCtx, client, storeCfg)
		cancel()
		if err != nil {
			logger.Error("archive bucket unavailable", "error", err)
			return cleanup, exitFailed
		}
		store, err := archive.NewMinioStore(client)
		if err != nil {
			logger.Error("archive store init failed", "error", err)
			return cleanup, exitConfig
		}
		archiver, err := archive.New(store, storeCfg.Bucket, storeCfg.Prefix)
		if err != nil {
			logger.Error("archiver init failed", "error", err)
			return cleanup, exitConfig
		}
		runner.Archiver = archiver
	}

	if s.Ledger.Enabled {
		dbCfg, err := postgres.ConfigFromEnv()
		if err != nil {
			logger.Error("invalid database config", "error", err)
			return cleanup, exitConfig
		}
		db, err := postgres.Open(ctx, dbCfg)
		if err != nil {
			logger.Error("database unavailable", "error", err)
			return cleanup, exitFailed
		}
		cleanup = func() { _ = db.Close() }
		if code := wireLedger(ctx, logger, db, runner); code != exitOK {
			return cleanup, code
		}
	}
	return cleanup, exitOK
}

func wireLedger(ctx context.Context, logger *slog.Logger, db *sql.DB, runner *provision.Runner) int {
	schemaCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := ledger.EnsureSchema(schemaCtx, db); err != nil {
		logger.Error("ledger schema unavailable", "error", err)
		return exitFailed
	}
	writer, err := ledger.NewWriter(db)
	if err != nil {
		logger.Error("ledger init failed", "error", err)
		return exitConfig
	}
	runner.Ledger = writer
	return exitOK
}

func logLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(env.String("TRAINFLOW_LOG_LEVEL", "info"))) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func actor() string {
	if v := strings.TrimSpace(env.String("TRAINFLOW_ACTOR", "")); v != "" {
		return v
	}
	if v := strings.TrimSpace(env.String("USER", "")); v != "" {
		return v
	}
	return "trainflow"
}
