package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"powersense/internal/config"
	"powersense/internal/handlers"
	"powersense/internal/logger"
	"powersense/internal/metrics"
	"powersense/internal/repository"
	"powersense/internal/repository/db"
	"powersense/internal/server"
	"powersense/internal/service"

	"github.com/spf13/cobra"
)

const sinkSource = "simulated"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.Configure(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	database, err := openDB(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := database.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	slots, err := scheduleFromConfig(cfg, time.Now())
	if err != nil {
		return err
	}
	rec, err := metrics.NewPromRecorder(nil)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	sink := openSink(ctx, cfg, log)
	defer func() { _ = sink.Close() }()

	loc := cfg.Schedule.Location()
	services := service.NewService(repository.NewRepository(database), service.Deps{
		Auth:     service.AuthSettings{SigningKey: cfg.Auth.SigningKey, TokenTTL: cfg.Auth.TokenTTL},
		Slots:    slots,
		Location: loc,
		Usage:    service.UsageSettings{Capacity: cfg.Usage.Capacity, Interval: cfg.Usage.Interval},
		Source:   service.NewSineSource(nil, loc),
		Sink:     sink,
		Tips:     tipGenerator(cfg),
		Recorder: rec,
		Log:      log,
	})

	// shared usage feed; stops with ctx
	go services.Telemetry.Run(ctx, cfg.Usage.Interval)

	srv := server.New(cfg.Port, handlers.NewHandler(services, log).InitRoutes(), server.Timeouts{
		ReadHeader: cfg.Server.ReadHeaderTimeout,
		Idle:       cfg.Server.IdleTimeout,
	})
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()
	log.Infow("server_started", "addr", srv.Addr(), "tips_configured", cfg.Tips.APIKey != "", "influx", cfg.InfluxEnabled())

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Infow("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// openDB initializes the SQLite database using configuration.
func openDB(cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	if cfg.DB.Path == db.MemoryPath {
		log.Infow("db.path is in-memory; events and users are lost on restart")
	}
	database, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to init sqlite: %w", err)
	}
	return database, nil
}

// openSink connects the InfluxDB sample sink when configured. An unreachable
// server degrades to a no-op sink so the dashboard keeps running.
func openSink(ctx context.Context, cfg *config.Config, log *logger.Logger) repository.SampleSink {
	if !cfg.InfluxEnabled() {
		return repository.NopSink{}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	sink, err := repository.NewInfluxSinkWithFallback(pingCtx, cfg.Influx.URL, cfg.Influx.Token, cfg.Influx.Org, cfg.Influx.Bucket, sinkSource)
	if err != nil {
		log.Warnw("influx_unavailable", "url", cfg.Influx.URL, "err", err)
	}
	return sink
}
