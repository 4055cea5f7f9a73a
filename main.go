package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/ledstack/cmd"
	"github.com/smazurov/ledstack/internal/app"
	"github.com/smazurov/ledstack/internal/config"
	"github.com/smazurov/ledstack/internal/events"
	"github.com/smazurov/ledstack/internal/gpio"
	"github.com/smazurov/ledstack/internal/logging"
	"github.com/smazurov/ledstack/internal/metrics"
	"github.com/smazurov/ledstack/internal/systemd"
	"github.com/smazurov/ledstack/internal/version"
	"github.com/spf13/cobra"
)

const banner = "LED Sequencer: Button Toggle"

// shutdownTimeout bounds how long OnStop waits for the loop to reach a
// frame boundary.
const shutdownTimeout = 5 * time.Second

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *cmd.Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(opts.LoggingConfig())
		logger := logging.GetLogger("main")

		ctx, cancel := context.WithCancel(context.Background())
		stopped := make(chan struct{})
		notifier := systemd.NewNotifier(logger)

		hooks.OnStart(func() {
			defer close(stopped)
			if err := serve(ctx, opts, cli.Root(), notifier, logger); err != nil {
				logger.Error("Sequencer failed", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down sequencer")
			notifier.Stopping()
			cancel()

			select {
			case <-stopped:
			case <-time.After(shutdownTimeout):
				logger.Warn("Sequencer did not stop in time", "timeout", shutdownTimeout)
			}
		})
	})

	cli.Root().Use = "ledstack"
	cli.Root().Short = banner
	cli.Root().Version = version.String()

	cli.Root().AddCommand(cmd.CreateSimulateCmd())
	cli.Root().AddCommand(cmd.CreateFramesCmd())
	cli.Root().AddCommand(cmd.CreatePinsCmd())

	// Run the CLI
	cli.Run()
}

// serve runs the sequencer on the configured backend until ctx is done.
func serve(ctx context.Context, opts *cmd.Options, root *cobra.Command, notifier *systemd.Notifier, logger *slog.Logger) error {
	gpioLogger := logging.GetLogger("gpio")
	gpioOpts, err := opts.GPIO(gpioLogger)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	bindings, err := opts.Hardware(gpioOpts.Backend).Resolve()
	if err != nil {
		return err
	}
	initial, err := opts.InitialMode()
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	driver, err := gpio.New(gpioOpts, gpioLogger)
	if err != nil {
		return fmt.Errorf("open gpio: %w", err)
	}

	bus := events.New()
	sequencer := app.New(app.Config{
		Driver:   driver,
		Bindings: bindings,
		Initial:  initial,
		Bus:      bus,
	})
	defer func() {
		if shutdownErr := sequencer.Shutdown(); shutdownErr != nil {
			logger.Error("Failed to release GPIO", "error", shutdownErr)
		}
	}()

	if err := sequencer.Init(); err != nil {
		return err
	}

	logging.SetMode(initial.String())
	logger.Info(banner, "build", version.Get(), "mode", initial.String(), "backend", gpioOpts.Backend)

	watchLoggingConfig(ctx, opts, root, logger)

	if opts.MetricsListen != "" {
		metricsLogger := logging.GetLogger("metrics")
		recorder := metrics.NewRecorder(metricsLogger)
		recorder.SetMode(initial.String())
		recorder.Subscribe(bus)
		defer recorder.Close()

		server := metrics.NewServer(opts.MetricsListen, recorder, func() string {
			return sequencer.Mode().String()
		}, metricsLogger)
		go func() {
			if startErr := server.Start(); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				metricsLogger.Error("Metrics server failed", "error", startErr)
			}
		}()
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
			defer stopCancel()
			if stopErr := server.Stop(stopCtx); stopErr != nil {
				metricsLogger.Warn("Error stopping metrics server", "error", stopErr)
			}
		}()
	}

	unsub := bus.Subscribe(func(e events.ModeChangedEvent) {
		logging.SetMode(e.To)
		notifier.Status("mode " + e.To)
	})
	defer unsub()

	notifier.Ready("mode " + initial.String())
	go notifier.RunWatchdog(ctx)

	return sequencer.Run(ctx)
}

// watchLoggingConfig re-applies the logging section whenever the config
// file changes. Pins and timings stay as they were at startup.
func watchLoggingConfig(ctx context.Context, opts *cmd.Options, root *cobra.Command, logger *slog.Logger) {
	if opts.Config == "" {
		return
	}
	if _, err := os.Stat(opts.Config); err != nil {
		logger.Debug("No config file to watch", "path", opts.Config)
		return
	}

	watcher := config.NewWatcher(opts.Config, func(string) (logging.Config, error) {
		return opts.ReloadLogging(root)
	}, config.DefaultReloadDebounce, logger)

	current := opts.LoggingConfig()
	watcher.OnReload(func(next logging.Config) {
		if next.Equal(current) {
			return
		}
		current = next
		logging.Initialize(next)
		logger.Info("Logging config reloaded", "level", next.Level, "format", next.Format)
	})

	if err := watcher.Start(ctx); err != nil {
		logger.Warn("Config hot reload disabled", "error", err)
	}
}
