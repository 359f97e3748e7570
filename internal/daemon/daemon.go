// Package daemon implements the daemon lifecycle manager: wiring the three
// registries, the applier, the tick-driver scheduler, the control-plane UDS
// server and the metrics server into one process, plus signal handling.
//
// Grounded on the teacher's internal/daemon/daemon.go lifecycle shape
// (PID file, ordered Start, signal-driven Run, ordered Stop).
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"icc.tech/scheduled/internal/applier"
	"icc.tech/scheduled/internal/bucket"
	"icc.tech/scheduled/internal/command"
	"icc.tech/scheduled/internal/condition"
	"icc.tech/scheduled/internal/config"
	"icc.tech/scheduled/internal/event"
	logpkg "icc.tech/scheduled/internal/log"
	"icc.tech/scheduled/internal/metrics"
	"icc.tech/scheduled/internal/scheduler"
	"icc.tech/scheduled/internal/task"
)

// Daemon manages the scheduled daemon process lifecycle.
type Daemon struct {
	config     *config.GlobalConfig
	configPath string
	socketPath string
	pidFile    string

	taskReg  *task.Registry
	condReg  *condition.Registry
	eventReg *event.Registry
	bucket   *bucket.ExecutionBucket

	applier       *applier.Applier
	scheduler     *scheduler.Scheduler
	cmdHandler    *command.CommandHandler
	udsServer     *command.UDSServer
	metricsServer *metrics.Server // nil if metrics disabled

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownChan chan struct{}
	sigChan      chan os.Signal // promoted from Run() local for cleanup in Stop()
}

// New creates a new Daemon instance bound to the config at configPath.
// socketPath/pidFile override the values the config file carries when
// non-empty (CLI flags take precedence over the file).
func New(configPath, socketPath, pidFile string) (*Daemon, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if socketPath == "" {
		socketPath = cfg.Control.Socket
	}
	if pidFile == "" {
		pidFile = cfg.Control.PIDFile
	}

	d := &Daemon{
		config:       cfg,
		configPath:   configPath,
		socketPath:   socketPath,
		pidFile:      pidFile,
		shutdownChan: make(chan struct{}),
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())

	return d, nil
}

// Start initializes and starts all daemon components, applying the cold
// configuration before returning.
func (d *Daemon) Start() error {
	if err := d.initLogging(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	slog.Info("starting scheduled daemon",
		"version", "0.1.0",
		"config", d.configPath,
		"socket", d.socketPath,
	)

	if err := d.writePIDFile(); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	if err := d.startMetrics(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	d.bucket = bucket.New()
	d.taskReg = task.NewRegistry()
	d.condReg = condition.NewRegistry()
	d.eventReg = event.NewRegistry(d.bucket)

	tickPeriod := time.Duration(d.config.SchedulerTickSeconds) * time.Second
	d.applier = applier.New(d.taskReg, d.condReg, d.eventReg, d.bucket, tickPeriod, nil)

	d.cmdHandler = command.NewCommandHandler(d.condReg, d.eventReg, d.applier, d.configPath)
	d.applier.SetActivityTracker(d.cmdHandler)

	if err := d.applier.Configure(d.ctx, d.config); err != nil {
		return fmt.Errorf("failed to apply initial configuration: %w", err)
	}

	d.scheduler = scheduler.New(d.condReg, d.taskReg, tickPeriod, d.config.RandomizeChecksWithinTicks)
	go d.scheduler.Run(d.ctx)

	d.udsServer = command.NewUDSServer(d.socketPath, d.cmdHandler)
	go func() {
		if err := d.udsServer.Start(d.ctx); err != nil && err != context.Canceled {
			slog.Error("uds server failed", "error", err)
		}
	}()

	slog.Info("daemon started successfully")
	return nil
}

// Stop performs graceful shutdown of all daemon components: it stops the
// control interface first so no new commands arrive, cancels the shared
// context so the tick loop and any in-flight task exits promptly, then
// waits up to config.ShutdownGraceSeconds for the scheduler's own
// goroutine to drain before tearing down the rest.
func (d *Daemon) Stop() {
	slog.Info("initiating graceful shutdown")

	slog.Info("stopping uds server")
	d.udsServer.Stop()

	d.cancel()

	if d.scheduler != nil {
		grace := time.Duration(d.config.ShutdownGraceSeconds) * time.Second
		select {
		case <-d.scheduler.Done():
			slog.Info("scheduler drained")
		case <-time.After(grace):
			slog.Error("scheduler did not drain within grace period", "grace", grace)
		}
	}

	if d.metricsServer != nil {
		slog.Info("stopping metrics server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.metricsServer.Stop(shutdownCtx); err != nil {
			slog.Error("error stopping metrics server", "error", err)
		}
	}

	if d.sigChan != nil {
		signal.Stop(d.sigChan)
	}

	if err := d.removePIDFile(); err != nil {
		slog.Error("error removing PID file", "error", err)
	}

	slog.Info("daemon stopped gracefully")
}

// Run runs the daemon main loop, blocking until shutdown is triggered.
// Shutdown can be triggered by:
//  1. OS signals (SIGTERM, SIGINT)
//  2. TriggerShutdown
//  3. cancellation of the daemon's context
//
// SIGHUP does not shut down; it triggers a hot Reconfigure.
func (d *Daemon) Run() error {
	d.sigChan = make(chan os.Signal, 1)
	signal.Notify(d.sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

	slog.Info("daemon running, waiting for signals or commands")

	for {
		select {
		case sig := <-d.sigChan:
			switch sig {
			case syscall.SIGTERM, syscall.SIGINT:
				slog.Info("received shutdown signal", "signal", sig)
				d.Stop()
				return nil

			case syscall.SIGHUP:
				slog.Info("received reload signal")
				if err := d.Reload(); err != nil {
					slog.Error("failed to reload config", "error", err)
				} else {
					slog.Info("configuration reloaded successfully")
				}
			}

		case <-d.shutdownChan:
			slog.Info("shutdown triggered by command")
			d.Stop()
			return nil

		case <-d.ctx.Done():
			slog.Info("context cancelled", "error", d.ctx.Err())
			d.Stop()
			return d.ctx.Err()
		}
	}
}

// Reload re-reads the configuration file and hot-applies it via the
// applier (spec.md §4.5). Implements command.ConfigLoader's intent, though
// the control-plane "reconfigure" command calls the applier directly;
// Reload is the SIGHUP path into the same operation.
func (d *Daemon) Reload() error {
	slog.Info("reloading configuration", "path", d.configPath)

	newConfig, err := config.Load(d.configPath)
	if err != nil {
		return fmt.Errorf("failed to load new config: %w", err)
	}

	if err := d.applier.Reconfigure(d.ctx, newConfig); err != nil {
		return fmt.Errorf("failed to apply reloaded config: %w", err)
	}

	oldLevel, oldFormat := d.config.Log.Level, d.config.Log.Format
	d.config = newConfig
	if newConfig.Log.Level != oldLevel || newConfig.Log.Format != oldFormat {
		if err := d.initLogging(); err != nil {
			slog.Error("failed to reinitialize logging", "error", err)
		}
	}

	return nil
}

// TriggerShutdown triggers graceful shutdown from an in-process caller.
// No CLI subcommand or control-plane command calls it; the tests call it
// directly.
func (d *Daemon) TriggerShutdown() {
	select {
	case d.shutdownChan <- struct{}{}:
	default:
	}
}

func (d *Daemon) initLogging() error {
	if err := logpkg.Init(d.config.Log); err != nil {
		return err
	}
	slog.Debug("logging initialized", "level", d.config.Log.Level, "format", d.config.Log.Format)
	return nil
}

func (d *Daemon) startMetrics() error {
	if !d.config.Metrics.Enabled {
		slog.Info("metrics server disabled")
		return nil
	}

	d.metricsServer = metrics.NewServer(d.config.Metrics.Listen, d.config.Metrics.Path)
	if err := d.metricsServer.Start(d.ctx); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	slog.Info("metrics server started", "addr", d.config.Metrics.Listen, "path", d.config.Metrics.Path)
	return nil
}

func (d *Daemon) writePIDFile() error {
	if d.pidFile == "" {
		return nil
	}

	pid := os.Getpid()
	if err := os.WriteFile(d.pidFile, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write PID file %s: %w", d.pidFile, err)
	}

	slog.Debug("PID file written", "path", d.pidFile, "pid", pid)
	return nil
}

func (d *Daemon) removePIDFile() error {
	if d.pidFile == "" {
		return nil
	}
	if err := os.Remove(d.pidFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file %s: %w", d.pidFile, err)
	}
	slog.Debug("PID file removed", "path", d.pidFile)
	return nil
}
