package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/svcdeck/svcdeck"
	"github.com/svcdeck/svcdeck/internal/history"
	"github.com/svcdeck/svcdeck/internal/logger"
)

func runServe(flags *ServeFlags) error {
	if flags.Daemonize {
		return daemonize(flags.PidFile, flags.LogFile)
	}

	fc, err := svcdeck.LoadConfig(flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	logger.Setup(fc.Log.Level, fc.Log.File)

	deck, err := svcdeck.New(fc.Services, svcdeck.Options{
		SettleDelay:    fc.Defaults.SettleDelay,
		CorrelateDelay: fc.Defaults.CorrelateDelay,
		RestartDelay:   fc.Defaults.RestartDelay,
		BatchDelay:     fc.Defaults.BatchDelay,
		Ordering:       fc.Server.Ordering,
	})
	if err != nil {
		return err
	}

	if err := svcdeck.RegisterMetricsDefault(); err != nil {
		slog.Warn("failed to register metrics", "error", err)
	}

	var closers []func() error
	if fc.History.SQLDSN != "" {
		sink, err := history.NewSQLSinkFromDSN(fc.History.SQLDSN)
		if err != nil {
			return fmt.Errorf("history sql sink: %w", err)
		}
		deck.AddHistorySink(sink)
		closers = append(closers, sink.Close)
	}
	if fc.History.ClickHouseAddr != "" {
		sink, err := history.NewClickHouseSink(fc.History.ClickHouseAddr, fc.History.ClickHouseTable)
		if err != nil {
			return fmt.Errorf("history clickhouse sink: %w", err)
		}
		deck.AddHistorySink(sink)
		closers = append(closers, sink.Close)
	}

	srv, err := svcdeck.NewHTTPServer(fc.Server.Listen, fc.Server.BasePath, deck)
	if err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	slog.Info("svcdeck daemon listening", "addr", fc.Server.Listen, "base_path", fc.Server.BasePath)

	if fc.Monitor.Enabled {
		deck.StartMonitor(fc.Monitor.Interval)
		slog.Info("auto-restart monitor started", "interval", fc.Monitor.Interval)
	}

	if flags.PidFile != "" {
		if err := writePidFile(flags.PidFile, os.Getpid()); err != nil {
			slog.Warn("failed to write pid file", "path", flags.PidFile, "error", err)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig.String())

	deck.StopMonitor()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	for _, c := range closers {
		_ = c()
	}
	_ = removePidFile(flags.PidFile)
	return nil
}
