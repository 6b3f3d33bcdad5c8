package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/petasbytes/weather-agent/internal/config"
	"github.com/petasbytes/weather-agent/internal/logging"
	"github.com/petasbytes/weather-agent/internal/provider"
	"github.com/petasbytes/weather-agent/internal/runner"
	"github.com/petasbytes/weather-agent/internal/session"
	"github.com/petasbytes/weather-agent/internal/telemetry"
	"github.com/petasbytes/weather-agent/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	// Set up graceful shutdown on Ctrl-C (SIGINT) / SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigch)
	go func() {
		select {
		case <-sigch:
			fmt.Fprintln(os.Stderr, "\nExiting...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := run(ctx, cfg, log, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		cancel()
		_ = log.Sync()
		os.Exit(1)
	}
}

// run answers cfg.Query once and prints the answer to stdout. The session is
// closed on every path.
func run(ctx context.Context, cfg config.Config, log *zap.SugaredLogger, stdout io.Writer) (err error) {
	sess, err := session.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sess.Close(context.WithoutCancel(ctx)); cerr != nil {
			log.Warnw("session close", "error", cerr)
		}
	}()

	strategy, err := newStrategy(cfg)
	if err != nil {
		return err
	}

	r := runner.New(strategy, tools.Registry(sess.Deps))
	r.MaxRetries = cfg.MaxRetries
	r.MaxSteps = cfg.MaxSteps
	r.Logger = log
	r.Tracer = sess.Deps.Tracer("github.com/petasbytes/weather-agent/internal/runner")

	log.Infow("running query", "query", cfg.Query, "strategy", cfg.ResolvedStrategy())
	res, err := r.Run(telemetry.WithRunID(ctx, newRunID()), cfg.Query)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "Response: %s\n", res.Text)
	return err
}

func newStrategy(cfg config.Config) (runner.Strategy, error) {
	switch s := cfg.ResolvedStrategy(); s {
	case config.StrategyAnthropic:
		client := provider.NewAnthropicClient(cfg.AnthropicAPIKey)
		return provider.NewAnthropic(client, cfg.Model, cfg.MaxTokens), nil
	case config.StrategyRules:
		return provider.Rules{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", s)
	}
}

func newRunID() string {
	return fmt.Sprintf("run-%d", time.Now().UnixNano())
}
