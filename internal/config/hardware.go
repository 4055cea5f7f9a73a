package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smazurov/ledstack/internal/button"
	"github.com/smazurov/ledstack/internal/gpio"
	"github.com/smazurov/ledstack/internal/led"
	"github.com/smazurov/ledstack/internal/sequence"
)

// ErrInvalidConfig is returned for pin bindings or timings that cannot be used.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultLEDPins is the stock strip wiring, leftmost LED first.
var DefaultLEDPins = []string{
	"gpiochip2:4",
	"gpiochip0:9",
	"gpiochip0:8",
	"gpiochip0:11",
	"gpiochip0:19",
	"gpiochip3:1",
	"gpiochip2:7",
	"gpiochip0:17",
}

// DefaultButtonPin is the stock button wiring.
const DefaultButtonPin = "gpiochip2:3"

// Hardware holds the raw pin bindings and delays as they appear in options.
type Hardware struct {
	LEDPins        []string
	ButtonPin      string
	FrameDelayMs   int
	HoldMs         int
	GapMs          int
	DebounceMs     int
	PollIntervalMs int

	// Backend is the resolved GPIO backend. Backends that ignore the port
	// get their pins checked for clashes by number alone.
	Backend string
}

// Bindings is the validated form of Hardware.
type Bindings struct {
	LEDs         led.Mapping
	Button       gpio.PinID
	Timings      sequence.Timings
	Debounce     time.Duration
	PollInterval time.Duration
}

// ButtonOptions returns the button options matching the configured timings.
func (b Bindings) ButtonOptions() []button.Option {
	return []button.Option{
		button.WithDebounce(b.Debounce),
		button.WithPollInterval(b.PollInterval),
	}
}

// Resolve parses and validates the bindings. Empty pin lists fall back to
// the defaults; every delay must be non-negative.
func (h Hardware) Resolve() (Bindings, error) {
	ledPins := h.LEDPins
	if len(ledPins) == 0 {
		ledPins = DefaultLEDPins
	}
	buttonPin := h.ButtonPin
	if buttonPin == "" {
		buttonPin = DefaultButtonPin
	}

	pins := make([]gpio.PinID, 0, len(ledPins))
	for i, raw := range ledPins {
		pin, err := ParsePin(raw)
		if err != nil {
			return Bindings{}, fmt.Errorf("led %d: %w", i, err)
		}
		pins = append(pins, pin)
	}

	mapping, err := led.NewMapping(pins)
	if err != nil {
		return Bindings{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	btn, err := ParsePin(buttonPin)
	if err != nil {
		return Bindings{}, fmt.Errorf("button: %w", err)
	}
	if err := checkClashes(mapping, btn, gpio.SharesPinNumbers(h.Backend)); err != nil {
		return Bindings{}, err
	}

	delays := []struct {
		name string
		ms   int
	}{
		{"frame_delay_ms", h.FrameDelayMs},
		{"hold_ms", h.HoldMs},
		{"gap_ms", h.GapMs},
		{"debounce_ms", h.DebounceMs},
		{"poll_interval_ms", h.PollIntervalMs},
	}
	for _, d := range delays {
		if d.ms < 0 {
			return Bindings{}, fmt.Errorf("%w: %s must not be negative, got %d", ErrInvalidConfig, d.name, d.ms)
		}
	}

	return Bindings{
		LEDs:   mapping,
		Button: btn,
		Timings: sequence.Timings{
			Frame: millis(h.FrameDelayMs),
			Hold:  millis(h.HoldMs),
			Gap:   millis(h.GapMs),
		},
		Debounce:     millis(h.DebounceMs),
		PollInterval: millis(h.PollIntervalMs),
	}, nil
}

// checkClashes rejects a button wired to an LED line and, when byNumber is
// set, LEDs whose pins differ only in port.
func checkClashes(leds led.Mapping, btn gpio.PinID, byNumber bool) error {
	same := func(a, b gpio.PinID) bool {
		if byNumber {
			return a.Pin == b.Pin
		}
		return a == b
	}

	pins := leds.Pins()
	for i, pin := range pins {
		if same(pin, btn) {
			return fmt.Errorf("%w: button pin %s is also led %d", ErrInvalidConfig, btn, i)
		}
		for j := i + 1; j < len(pins); j++ {
			if same(pin, pins[j]) {
				return fmt.Errorf("%w: led %d (%s) and led %d (%s) drive the same line", ErrInvalidConfig, i, pin, j, pins[j])
			}
		}
	}
	return nil
}

// ParsePin parses "port:pin", e.g. "gpiochip0:17". A bare number is taken
// as a pin on gpiochip0.
func ParsePin(s string) (gpio.PinID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return gpio.PinID{}, fmt.Errorf("%w: empty pin", ErrInvalidConfig)
	}

	port, offset := "gpiochip0", s
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		port, offset = s[:i], s[i+1:]
	}
	if port == "" {
		return gpio.PinID{}, fmt.Errorf("%w: pin %q has no port", ErrInvalidConfig, s)
	}

	n, err := strconv.Atoi(offset)
	if err != nil || n < 0 {
		return gpio.PinID{}, fmt.Errorf("%w: pin %q has bad offset %q", ErrInvalidConfig, s, offset)
	}
	return gpio.PinID{Port: port, Pin: n}, nil
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
