// Package button implements a polled, debounced, active-low push button.
package button

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/smazurov/ledstack/internal/clock"
	"github.com/smazurov/ledstack/internal/gpio"
)

// Default timings.
const (
	DefaultDebounce     = 20 * time.Millisecond
	DefaultPollInterval = time.Millisecond
)

// Button detects one press per physical press-and-release cycle.
type Button struct {
	driver       gpio.Driver
	pin          gpio.PinID
	clock        clock.Clock
	debounce     time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
}

// Option customizes a Button.
type Option func(*Button)

// WithDebounce overrides the debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(b *Button) { b.debounce = d }
}

// WithPollInterval overrides the sleep between reads while waiting for release.
func WithPollInterval(d time.Duration) Option {
	return func(b *Button) { b.pollInterval = d }
}

// New creates a button on pin; call Init before polling.
func New(driver gpio.Driver, pin gpio.PinID, clk clock.Clock, logger *slog.Logger, opts ...Option) *Button {
	b := &Button{
		driver:       driver,
		pin:          pin,
		clock:        clk,
		debounce:     DefaultDebounce,
		pollInterval: DefaultPollInterval,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Init configures the input with its pull-up enabled.
func (b *Button) Init() error {
	if err := b.driver.ConfigureInput(b.pin, gpio.PullUp); err != nil {
		return fmt.Errorf("configure button: %w", err)
	}
	return nil
}

// IsPressed polls the button once. It returns false immediately when the
// input is idle. An asserted input is re-read after the debounce interval;
// if still asserted the call blocks until release, waits out the release
// bounce and returns true. A press shorter than the debounce interval is
// dropped.
func (b *Button) IsPressed(ctx context.Context) (bool, error) {
	down, err := b.asserted()
	if err != nil || !down {
		return false, err
	}

	b.clock.Sleep(b.debounce)
	down, err = b.asserted()
	if err != nil {
		return false, err
	}
	if !down {
		b.logger.Debug("Ignoring button bounce", "pin", b.pin.String())
		return false, nil
	}

	// No timeout: the wait lasts as long as the button is held
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		down, err = b.asserted()
		if err != nil {
			return false, err
		}
		if !down {
			break
		}
		b.clock.Sleep(b.pollInterval)
	}

	b.clock.Sleep(b.debounce)
	b.logger.Debug("Button pressed", "pin", b.pin.String())
	return true, nil
}

// asserted reads the raw level; the button pulls the line low when pressed.
func (b *Button) asserted() (bool, error) {
	level, err := b.driver.Read(b.pin)
	if err != nil {
		return false, fmt.Errorf("read button: %w", err)
	}
	return !level, nil
}
