// Package cmd holds the CLI options and the subcommands of ledstack.
package cmd

import (
	"log/slog"
	"strings"

	"github.com/smazurov/ledstack/internal/config"
	"github.com/smazurov/ledstack/internal/gpio"
	"github.com/smazurov/ledstack/internal/logging"
	"github.com/smazurov/ledstack/internal/sequence"
	"github.com/spf13/cobra"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config  string `help:"Path to configuration file" short:"c" default:"config.toml"`
	EnvFile string `help:"Path to .env file" default:".env"`

	// GPIO settings
	GPIOBackend    string `help:"GPIO backend (auto, cdev, rpio, serial, sim, noop)" default:"auto" toml:"gpio.backend" env:"GPIO_BACKEND"`
	GPIOSerialPort string `help:"Serial port of the button box (serial backend)" default:"" toml:"gpio.serial_port" env:"GPIO_SERIAL_PORT"`

	// Pin bindings
	LEDPins   string `help:"Comma-separated LED pins, leftmost first (port:pin)" default:"" toml:"led.pins" env:"LED_PINS"`
	ButtonPin string `help:"Button pin (port:pin)" default:"gpiochip2:3" toml:"button.pin" env:"BUTTON_PIN"`

	// Button settings
	ButtonDebounceMs     int `help:"Button debounce in milliseconds" default:"20" toml:"button.debounce_ms" env:"BUTTON_DEBOUNCE_MS"`
	ButtonPollIntervalMs int `help:"Poll interval while waiting for release, in milliseconds" default:"1" toml:"button.poll_interval_ms" env:"BUTTON_POLL_INTERVAL_MS"`

	// Sequence settings
	SequenceFrameDelayMs int    `help:"Delay per runner frame in milliseconds" default:"100" toml:"sequence.frame_delay_ms" env:"SEQUENCE_FRAME_DELAY_MS"`
	SequenceHoldMs       int    `help:"Full strip hold in milliseconds" default:"500" toml:"sequence.hold_ms" env:"SEQUENCE_HOLD_MS"`
	SequenceGapMs        int    `help:"Dark gap before the next cycle in milliseconds" default:"200" toml:"sequence.gap_ms" env:"SEQUENCE_GAP_MS"`
	SequenceInitialMode  string `help:"Initial mode (stack-left, stack-right)" default:"stack-left" toml:"sequence.initial_mode" env:"SEQUENCE_INITIAL_MODE"`

	// Metrics settings
	MetricsListen string `help:"Address for /metrics, empty disables it" default:"" toml:"metrics.listen" env:"METRICS_LISTEN"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingSequence string `help:"Sequence engine logging level" default:"info" toml:"logging.sequence" env:"LOGGING_SEQUENCE"`
	LoggingButton   string `help:"Button logging level" default:"info" toml:"logging.button" env:"LOGGING_BUTTON"`
	LoggingLED      string `help:"LED panel logging level" default:"info" toml:"logging.led" env:"LOGGING_LED"`
	LoggingGPIO     string `help:"GPIO driver logging level" default:"info" toml:"logging.gpio" env:"LOGGING_GPIO"`
	LoggingMetrics  string `help:"Metrics logging level" default:"info" toml:"logging.metrics" env:"LOGGING_METRICS"`
}

// LoggingConfig maps the logging options onto per-module levels.
func (o *Options) LoggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"sequence": o.LoggingSequence,
			"button":   o.LoggingButton,
			"led":      o.LoggingLED,
			"gpio":     o.LoggingGPIO,
			"metrics":  o.LoggingMetrics,
		},
	}
}

// ReloadLogging re-reads the config sources over a copy of o and returns
// the resulting logging section. Flags set on the command line still win.
func (o *Options) ReloadLogging(root *cobra.Command) (logging.Config, error) {
	fresh := *o
	if err := config.LoadConfig(&fresh, root); err != nil {
		return logging.Config{}, err
	}
	return fresh.LoggingConfig(), nil
}

// Hardware returns the raw pin bindings and delays for a resolved backend.
func (o *Options) Hardware(backend string) config.Hardware {
	return config.Hardware{
		Backend:        backend,
		LEDPins:        splitList(o.LEDPins),
		ButtonPin:      o.ButtonPin,
		FrameDelayMs:   o.SequenceFrameDelayMs,
		HoldMs:         o.SequenceHoldMs,
		GapMs:          o.SequenceGapMs,
		DebounceMs:     o.ButtonDebounceMs,
		PollIntervalMs: o.ButtonPollIntervalMs,
	}
}

// GPIO returns the driver selection with auto replaced by the detected
// backend.
func (o *Options) GPIO(logger *slog.Logger) (gpio.Options, error) {
	backend, err := gpio.ResolveBackend(o.GPIOBackend, logger)
	if err != nil {
		return gpio.Options{}, err
	}
	return gpio.Options{
		Backend:    backend,
		SerialPort: o.GPIOSerialPort,
	}, nil
}

// InitialMode parses the configured starting mode.
func (o *Options) InitialMode() (sequence.Mode, error) {
	if o.SequenceInitialMode == "" {
		return sequence.StackLeft, nil
	}
	return sequence.ParseMode(o.SequenceInitialMode)
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
