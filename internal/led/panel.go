// Package led renders 8-bit patterns onto a strip of GPIO-driven LEDs.
package led

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/smazurov/ledstack/internal/gpio"
)

// Mapping binds logical LED positions, left to right, to output pins.
// It is immutable once built.
type Mapping struct {
	pins [Count]gpio.PinID
}

// NewMapping builds a mapping from exactly Count pins.
func NewMapping(pins []gpio.PinID) (Mapping, error) {
	var m Mapping
	if len(pins) != Count {
		return m, fmt.Errorf("LED mapping needs %d pins, got %d", Count, len(pins))
	}

	seen := make(map[gpio.PinID]int, Count)
	for i, pin := range pins {
		if prev, dup := seen[pin]; dup {
			return m, fmt.Errorf("pin %s bound to LED %d and LED %d", pin, prev, i)
		}
		seen[pin] = i
		m.pins[i] = pin
	}
	return m, nil
}

// Pin returns the output bound to LED i.
func (m Mapping) Pin(i int) gpio.PinID {
	return m.pins[i]
}

// Pins returns a copy of the ordered pin list.
func (m Mapping) Pins() []gpio.PinID {
	out := make([]gpio.PinID, Count)
	copy(out, m.pins[:])
	return out
}

// Panel drives the strip through a GPIO driver.
type Panel struct {
	driver  gpio.Driver
	mapping Mapping
	logger  *slog.Logger
	last    atomic.Uint32
}

// NewPanel creates a panel; call Init before the first Render.
func NewPanel(driver gpio.Driver, mapping Mapping, logger *slog.Logger) *Panel {
	return &Panel{
		driver:  driver,
		mapping: mapping,
		logger:  logger,
	}
}

// Init configures every LED pin as an output and switches it off.
func (p *Panel) Init() error {
	for i, pin := range p.mapping.pins {
		if err := p.driver.ConfigureOutput(pin); err != nil {
			return fmt.Errorf("configure LED %d: %w", i, err)
		}
		if err := p.driver.Set(pin, false); err != nil {
			return fmt.Errorf("clear LED %d: %w", i, err)
		}
	}
	p.last.Store(uint32(Off))
	p.logger.Debug("LED panel initialized", "leds", Count)
	return nil
}

// Render drives all Count outputs from pattern, high where the bit is set.
func (p *Panel) Render(pattern Pattern) error {
	for i, pin := range p.mapping.pins {
		if err := p.driver.Set(pin, pattern.Lit(i)); err != nil {
			return fmt.Errorf("render %s at LED %d: %w", pattern, i, err)
		}
	}
	p.last.Store(uint32(pattern))
	return nil
}

// Last returns the most recently rendered pattern.
func (p *Panel) Last() Pattern {
	return Pattern(p.last.Load())
}

// Mapping returns the panel's pin mapping.
func (p *Panel) Mapping() Mapping {
	return p.mapping
}
