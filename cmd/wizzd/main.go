// Wizzd is the wizz delegation daemon.
//
// It serves the orchestrator, the standalone plan/execute/publish phases and
// the content-store read routes over HTTP, with Prometheus metrics at /metrics.
//
// Configuration comes from ~/.config/wizz/config.yaml (optional) and the
// environment. See internal/config for the variable mapping.
//
// Usage:
//
//	# Start with defaults
//	SENIOR_API_KEY=... JUNIOR_API_KEY=... wizzd
//
//	# Use a specific config file
//	wizzd --config /etc/wizz/config.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/wizz/internal/agent"
	"github.com/fyrsmithlabs/wizz/internal/config"
	"github.com/fyrsmithlabs/wizz/internal/events"
	wizzhttp "github.com/fyrsmithlabs/wizz/internal/http"
	"github.com/fyrsmithlabs/wizz/internal/llm"
	"github.com/fyrsmithlabs/wizz/internal/logging"
	"github.com/fyrsmithlabs/wizz/internal/orchestrator"
	"github.com/fyrsmithlabs/wizz/internal/publish"
	"github.com/fyrsmithlabs/wizz/internal/secrets"
	"github.com/fyrsmithlabs/wizz/internal/store"
	"github.com/fyrsmithlabs/wizz/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default ~/.config/wizz/config.yaml)")
	flag.Parse()
	args := flag.Args()

	// Handle subcommands
	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  wizzd           Start the wizz daemon\n")
			fmt.Fprintf(os.Stderr, "  wizzd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("wizzd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run wires every component and serves until ctx is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return err
	}

	tel, err := telemetry.New(ctx, telemetry.FromAppConfig(cfg.Observability, version))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	logCfg, err := logging.FromAppConfig(cfg.Log, cfg.Observability.ServiceName, cfg.Observability.EnableTelemetry)
	if err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info(ctx, "starting wizzd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("senior_model", cfg.Senior.Model),
		zap.String("junior_model", cfg.Junior.Model))

	comps, err := wire(ctx, cfg, tel, logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	srv, err := wizzhttp.NewServer(comps.deps, logger, &wizzhttp.Config{
		Host:  cfg.Server.Host,
		Port:  cfg.Server.Port,
		Meter: tel.Meter("github.com/fyrsmithlabs/wizz/internal/http"),
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutdown requested", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// components holds the wired daemon.
type components struct {
	deps   wizzhttp.Deps
	events *events.Publisher
}

// Close releases infrastructure connections.
func (c *components) Close() {
	_ = c.events.Close()
}

// wire builds the completion clients, personas, content store, publisher,
// event publisher and orchestrator.
func wire(ctx context.Context, cfg *config.Config, tel *telemetry.Telemetry, logger *logging.Logger) (*components, error) {
	scrubber, err := secrets.FromAppConfig(cfg.Scrub)
	if err != nil {
		return nil, fmt.Errorf("failed to create scrubber: %w", err)
	}

	// One limiter for both personas: the rate limit is process-wide.
	limiter := llm.NewLimiter(cfg.LLM)
	seniorClient, err := llm.New(cfg.LLM, cfg.Senior, limiter, logger.Named("senior"))
	if err != nil {
		return nil, fmt.Errorf("senior client: %w", err)
	}
	juniorClient, err := llm.New(cfg.LLM, cfg.Junior, limiter, logger.Named("junior"))
	if err != nil {
		return nil, fmt.Errorf("junior client: %w", err)
	}
	senior := agent.NewSenior(seniorClient, scrubber, logger)
	junior := agent.NewJunior(juniorClient, scrubber, logger)

	deps := wizzhttp.Deps{
		Planner:         senior,
		Executor:        junior,
		Limits:          orchestrator.OptionsFromConfig(cfg.Orchestrator).Limits,
		DefaultMaxTasks: cfg.Orchestrator.DefaultMaxTasks,
		Telemetry:       tel.Health,
	}

	var publisher *publish.Publisher
	repo, err := store.New(ctx, cfg.GitHub, logger)
	if err != nil {
		logger.Warn(ctx, "content store not configured, publishing disabled", zap.Error(err))
		publisher = publish.Unavailable(err)
	} else {
		publisher = publish.New(repo, cfg.Publish, logger)
		deps.Repository = repo
		logger.Info(ctx, "content store configured", zap.String("target", repo.Target()))
	}
	deps.Publisher = publisher

	ev, err := events.Connect(cfg.Events, logger)
	if err != nil {
		return nil, err
	}

	opts := orchestrator.OptionsFromConfig(cfg.Orchestrator)
	opts.Publisher = publisher
	opts.Logger = logger
	opts.Tracer = tel.Tracer("github.com/fyrsmithlabs/wizz/internal/orchestrator")
	opts.Meter = tel.Meter("github.com/fyrsmithlabs/wizz/internal/orchestrator")

	orch, err := orchestrator.New(senior, junior, opts)
	if err != nil {
		return nil, err
	}
	junior.OnRepair(orch.RecordRepair)
	if ev != nil {
		orch.OnProgress(ev.Handle)
	}
	deps.Runner = orch

	return &components{deps: deps, events: ev}, nil
}
