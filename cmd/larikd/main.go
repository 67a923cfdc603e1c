// Package main is the composition root: it wires every component
// (C1–C10) into one command.Service and runs a stdio JSON command loop
// standing in for the UI's request/response channel, per spec.md §6 —
// the transport itself is left unprescribed there.
package main

import (
	"errors"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dwifuady/larik/internal/applog"
	"github.com/dwifuady/larik/internal/archive"
	"github.com/dwifuady/larik/internal/command"
	"github.com/dwifuady/larik/internal/config"
	"github.com/dwifuady/larik/internal/connmgr"
	_ "github.com/dwifuady/larik/internal/driver/mssql"
	_ "github.com/dwifuady/larik/internal/driver/mysql"
	_ "github.com/dwifuady/larik/internal/driver/postgres"
	_ "github.com/dwifuady/larik/internal/driver/sqlite"
	"github.com/dwifuady/larik/internal/metrics"
	"github.com/dwifuady/larik/internal/queryengine"
	"github.com/dwifuady/larik/internal/schema"
	"github.com/dwifuady/larik/internal/scheduler"
	"github.com/dwifuady/larik/internal/store"
	"github.com/dwifuady/larik/internal/workspace"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "larikd",
		Short: "Embedded SQL workspace daemon",
	}
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the command loop over stdin/stdout",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	applog.Init(applog.Config{
		Level:      applog.Level(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
	})
	log := applog.WithComponent("larikd")

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return err
	}

	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return err
	}
	defer st.Close()

	ws := workspace.New(st)
	arc := archive.New(st)
	conns := connmgr.New()
	queries := queryengine.New(conns)
	schemas := schema.New(conns)
	sched := scheduler.New(arc, ws, 0)

	svc := command.New(st, ws, arc, conns, queries, schemas, sched)

	ctx, cancel := newRootContext()
	defer cancel()

	sched.Start(ctx)
	defer sched.Stop()

	log.Info().Str("data_dir", cfg.DataDir).Msg("larikd starting")

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, log)
	}

	out := &syncWriter{w: os.Stdout}
	go relayEvents(ctx, svc, out)

	err = runLoop(ctx, svc, os.Stdin, out)
	if errors.Is(err, command.ErrRestartRequired) {
		// The backing database file was just replaced (import_database);
		// this process's open handle is stale. A supervisor (or the UI
		// shell that spawned larikd) is expected to relaunch it, per
		// spec.md §6's "restarts the process".
		log.Warn().Msg("database replaced, exiting for restart")
		os.Exit(75)
	}
	return err
}

// serveMetrics exposes internal/metrics' Prometheus registry over HTTP,
// the same Handler()-on-its-own-port shape cuemby-warren's pkg/metrics
// uses; a scrape failure here never affects the stdio command loop.
func serveMetrics(addr string, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	log.Info().Str("addr", addr).Msg("metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil { //nolint:gosec // localhost-only by default config
		log.Warn().Err(err).Msg("metrics server stopped")
	}
}
