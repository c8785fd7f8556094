package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"coursegrid/internal/capture"
	"coursegrid/internal/config"
	appLog "coursegrid/internal/log"
	"coursegrid/internal/store"
	"coursegrid/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	debug      bool
	snapshot   bool
}

func main() {
	appLog.Info("coursegrid starting", "version", "0.1.0-dev")

	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"database", conf.Database != "",
		"share_retention_days", conf.ShareRetentionDays,
		"purge_cron", conf.PurgeCron,
		"snapshot_cron", conf.SnapshotCron,
		"basic_auth", conf.BasicAuth != nil,
		"debug", flags.debug,
		"snapshot", flags.snapshot,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	st, err := openStore(conf)
	if err != nil {
		appLog.Error("failed to open store", err)
		os.Exit(1)
	}

	srv := web.NewServer(conf, st, flags.debug)
	httpSrv := &http.Server{
		Addr:              conf.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		appLog.Info("HTTP server listening", "addr", conf.Listen)
		serveErr <- httpSrv.ListenAndServe()
	}()

	// One-shot preview capture mode: render the current week to PNG and exit.
	if flags.snapshot {
		err := waitReady(ctx, conf.Listen)
		if err == nil {
			err = captureSnapshot(ctx, conf, flags.debug)
		}
		shutdownHTTP(httpSrv)
		if err != nil {
			appLog.Error("snapshot capture failed", err)
			os.Exit(1)
		}
		appLog.Info("snapshot written", "path", web.PreviewPath(flags.debug))
		return
	}

	sched := startCron(ctx, conf, st, flags.debug)

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("HTTP server failed", err)
			cancel()
		}
	}

	if sched != nil {
		stopCtx := sched.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(5 * time.Second):
			appLog.Warn("cron jobs did not finish in time")
		}
	}
	shutdownHTTP(httpSrv)

	appLog.Info("coursegrid exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/coursegrid/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.debug, "debug", false, "Debug mode (verbose logging, local cache paths)")
	flag.BoolVar(&cfg.snapshot, "snapshot", false, "Capture one week-grid PNG and exit")

	flag.Parse()

	return cfg
}

// openStore selects Postgres when a DSN is configured and falls back to the
// in-memory store otherwise.
func openStore(conf *config.Config) (store.Store, error) {
	if conf.Database == "" {
		appLog.Info("using in-memory store (no database configured)")
		return store.NewMemory(), nil
	}
	return store.NewPostgres(conf.Database)
}

// startCron schedules the share retention sweep and, if configured, the
// periodic preview capture. Returns nil when nothing is scheduled.
func startCron(ctx context.Context, conf *config.Config, st store.Store, debug bool) *cron.Cron {
	c := cron.New()
	scheduled := 0

	if conf.PurgeCron != "" {
		_, err := c.AddFunc(conf.PurgeCron, func() {
			cutoff := time.Now().UTC().AddDate(0, 0, -conf.ShareRetentionDays)
			n, err := st.PurgeSharesBefore(ctx, cutoff)
			if err != nil {
				appLog.Error("share purge failed", err)
				return
			}
			if n > 0 {
				appLog.Info("purged expired shares", "count", n, "cutoff", cutoff.Format("2006-01-02"))
			}
		})
		if err != nil {
			appLog.Error("invalid purge cron expression", err, "expr", conf.PurgeCron)
		} else {
			scheduled++
		}
	}

	if conf.SnapshotCron != "" {
		_, err := c.AddFunc(conf.SnapshotCron, func() {
			if err := captureSnapshot(ctx, conf, debug); err != nil {
				appLog.Error("periodic snapshot failed", err)
			}
		})
		if err != nil {
			appLog.Error("invalid snapshot cron expression", err, "expr", conf.SnapshotCron)
		} else {
			scheduled++
		}
	}

	if scheduled == 0 {
		return nil
	}
	c.Start()
	appLog.Info("cron scheduler started", "jobs", scheduled)
	return c
}

// waitReady polls /health until the HTTP server accepts requests.
func waitReady(ctx context.Context, listen string) error {
	deadline := time.Now().Add(5 * time.Second)
	url := "http://" + listen + "/health"
	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return errors.New("server did not become ready in time")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func captureSnapshot(ctx context.Context, conf *config.Config, debug bool) error {
	opts := capture.Options{
		BaseURL:    "http://" + conf.Listen,
		OutputPath: web.PreviewPath(debug),
	}
	if conf.BasicAuth != nil {
		opts.Username = conf.BasicAuth.Username
		opts.Password = conf.BasicAuth.Password
	}
	return capture.WeekPNGToFile(ctx, opts)
}

func shutdownHTTP(srv *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP shutdown failed", err)
	}
}
