// Package app assembles the sequencer from a GPIO driver and resolved
// bindings.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/smazurov/ledstack/internal/button"
	"github.com/smazurov/ledstack/internal/clock"
	"github.com/smazurov/ledstack/internal/config"
	"github.com/smazurov/ledstack/internal/events"
	"github.com/smazurov/ledstack/internal/gpio"
	"github.com/smazurov/ledstack/internal/led"
	"github.com/smazurov/ledstack/internal/logging"
	"github.com/smazurov/ledstack/internal/sequence"
)

// Config wires an App. Clock defaults to the real clock; Bus and OnFrame
// are optional.
type Config struct {
	Driver   gpio.Driver
	Bindings config.Bindings
	Initial  sequence.Mode
	Clock    clock.Clock
	Bus      *events.Bus
	OnFrame  func(led.Pattern)
}

// App owns the driver and the loop built on top of it.
type App struct {
	driver gpio.Driver
	panel  *led.Panel
	button *button.Button
	loop   *sequence.Loop
	logger *slog.Logger
}

// New builds the panel, button, engine and loop. Nothing touches the
// hardware until Init.
func New(cfg Config) *App {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real{}
	}

	panel := led.NewPanel(cfg.Driver, cfg.Bindings.LEDs, logging.GetLogger("led"))
	btn := button.New(cfg.Driver, cfg.Bindings.Button, clk, logging.GetLogger("button"), cfg.Bindings.ButtonOptions()...)

	var renderer sequence.Renderer = panel
	if cfg.OnFrame != nil {
		renderer = observed{Renderer: panel, onFrame: cfg.OnFrame}
	}

	seqLogger := logging.GetLogger("sequence")
	engine := sequence.NewEngine(renderer, btn, clk, cfg.Bindings.Timings, cfg.Bus, seqLogger)

	return &App{
		driver: cfg.Driver,
		panel:  panel,
		button: btn,
		loop:   sequence.NewLoop(engine, cfg.Initial, cfg.Bus, seqLogger),
		logger: logging.GetLogger("main"),
	}
}

// Init configures the LED outputs, drives them low and sets up the button.
func (a *App) Init() error {
	if err := a.panel.Init(); err != nil {
		return fmt.Errorf("init leds: %w", err)
	}
	if err := a.button.Init(); err != nil {
		return fmt.Errorf("init button: %w", err)
	}
	return nil
}

// Run drives the loop until ctx is done or the hardware fails.
func (a *App) Run(ctx context.Context) error {
	return a.loop.Run(ctx)
}

// Mode reports the loop's current mode.
func (a *App) Mode() sequence.Mode {
	return a.loop.Mode()
}

// Loop exposes the loop for status reporting.
func (a *App) Loop() *sequence.Loop {
	return a.loop
}

// Shutdown darkens the strip and releases the driver.
func (a *App) Shutdown() error {
	var errs []error
	if err := a.panel.Render(led.Off); err != nil {
		errs = append(errs, fmt.Errorf("clear leds: %w", err))
	}
	if err := a.driver.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close driver: %w", err))
	}
	if len(errs) == 0 {
		a.logger.Info("LEDs cleared, GPIO released")
	}
	return errors.Join(errs...)
}

// observed reports every successfully rendered frame.
type observed struct {
	sequence.Renderer
	onFrame func(led.Pattern)
}

func (o observed) Render(pattern led.Pattern) error {
	if err := o.Renderer.Render(pattern); err != nil {
		return err
	}
	o.onFrame(pattern)
	return nil
}
