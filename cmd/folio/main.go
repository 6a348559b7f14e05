// folio serves the personal site: marketing pages, the post API, and the
// booking and contact forms.
//
// Configuration comes from the environment (see folio.LoadConfig) and an
// optional config file passed with --config.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/kabuchi/folio"
	"github.com/kabuchi/folio/logger"
	"github.com/kabuchi/folio/mailer"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		addr        string
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("folio", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to a YAML, TOML or JSON config file")
	flagSet.StringVar(&addr, "addr", "", "listen address, overrides ADDR")
	flagSet.BoolVar(&showVersion, "version", false, "print the version and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Printf("folio %s\n", version)
		return nil
	}

	cfg, err := folio.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	log.Info().Str("version", version).Msg("starting folio")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := folio.OpenStore(ctx, cfg, log)
	cancel()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	opts := []folio.Option{
		folio.WithLogger(log),
		folio.WithPostStore(store),
	}
	if cfg.ResendAPIKey != "" {
		opts = append(opts, folio.WithMailer(mailer.New(cfg.ResendAPIKey, mailer.WithBaseURL(cfg.ResendBaseURL))))
	}

	app := folio.New(cfg, opts...)
	defer app.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	log.Info().Msg("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := app.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server exited gracefully")
	return nil
}
