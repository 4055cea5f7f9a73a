package config

import (
	"errors"
	"testing"
	"time"

	"github.com/smazurov/ledstack/internal/gpio"
)

func TestParsePin(t *testing.T) {
	tests := []struct {
		input   string
		want    gpio.PinID
		wantErr bool
	}{
		{"gpiochip0:17", gpio.PinID{Port: "gpiochip0", Pin: 17}, false},
		{" gpiochip2:4 ", gpio.PinID{Port: "gpiochip2", Pin: 4}, false},
		{"/dev/gpiochip1:3", gpio.PinID{Port: "/dev/gpiochip1", Pin: 3}, false},
		{"22", gpio.PinID{Port: "gpiochip0", Pin: 22}, false},
		{"", gpio.PinID{}, true},
		{":5", gpio.PinID{}, true},
		{"gpiochip0:", gpio.PinID{}, true},
		{"gpiochip0:x", gpio.PinID{}, true},
		{"gpiochip0:-1", gpio.PinID{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePin(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("ParsePin(%q) error = %v, want ErrInvalidConfig", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePin(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePin(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolveDefaults(t *testing.T) {
	b, err := Hardware{
		FrameDelayMs:   100,
		HoldMs:         500,
		GapMs:          200,
		DebounceMs:     20,
		PollIntervalMs: 1,
	}.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if got := b.LEDs.Pin(0); got != (gpio.PinID{Port: "gpiochip2", Pin: 4}) {
		t.Errorf("leftmost LED = %s, want gpiochip2:4", got)
	}
	if got := b.LEDs.Pin(7); got != (gpio.PinID{Port: "gpiochip0", Pin: 17}) {
		t.Errorf("rightmost LED = %s, want gpiochip0:17", got)
	}
	if b.Button != (gpio.PinID{Port: "gpiochip2", Pin: 3}) {
		t.Errorf("button = %s, want gpiochip2:3", b.Button)
	}

	if b.Timings.Frame != 100*time.Millisecond || b.Timings.Hold != 500*time.Millisecond || b.Timings.Gap != 200*time.Millisecond {
		t.Errorf("timings = %+v", b.Timings)
	}
	if b.Debounce != 20*time.Millisecond || b.PollInterval != time.Millisecond {
		t.Errorf("debounce/poll = %s/%s", b.Debounce, b.PollInterval)
	}
	if len(b.ButtonOptions()) != 2 {
		t.Errorf("ButtonOptions() returned %d options, want 2", len(b.ButtonOptions()))
	}
}

func TestResolveCustomPins(t *testing.T) {
	h := Hardware{
		LEDPins:   []string{"5", "6", "13", "19", "26", "16", "20", "21"},
		ButtonPin: "gpiochip0:17",
	}
	b, err := h.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if b.LEDs.Pin(3) != (gpio.PinID{Port: "gpiochip0", Pin: 19}) {
		t.Errorf("LED 3 = %s", b.LEDs.Pin(3))
	}
	if b.Button.Pin != 17 {
		t.Errorf("button = %s", b.Button)
	}
}

func TestResolveRejects(t *testing.T) {
	tests := []struct {
		name string
		hw   Hardware
	}{
		{"too few leds", Hardware{LEDPins: []string{"1", "2", "3"}}},
		{"duplicate led", Hardware{LEDPins: []string{"1", "2", "3", "4", "5", "6", "7", "1"}}},
		{"bad led pin", Hardware{LEDPins: []string{"1", "2", "3", "4", "5", "6", "7", "x"}}},
		{"bad button pin", Hardware{ButtonPin: "gpiochip0:"}},
		{"button shares led", Hardware{ButtonPin: "gpiochip0:9"}},
		{"negative frame delay", Hardware{FrameDelayMs: -1}},
		{"negative debounce", Hardware{DebounceMs: -20}},
		{"negative poll interval", Hardware{PollIntervalMs: -1}},
		{"rpio leds differ only in port", Hardware{
			Backend: gpio.BackendRPIO,
			LEDPins: []string{"gpiochip0:4", "5", "6", "13", "19", "26", "16", "gpiochip2:4"},
		}},
		{"serial button shares led number", Hardware{
			Backend:   gpio.BackendSerial,
			LEDPins:   []string{"1", "2", "3", "4", "5", "6", "7", "8"},
			ButtonPin: "gpiochip2:8",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.hw.Resolve(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Resolve() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestResolvePortsDistinctOnCdev(t *testing.T) {
	h := Hardware{
		Backend: gpio.BackendCdev,
		LEDPins: []string{"gpiochip0:4", "5", "6", "13", "19", "26", "16", "gpiochip2:4"},
	}
	if _, err := h.Resolve(); err != nil {
		t.Errorf("Resolve() error = %v, want gpiochip0:4 and gpiochip2:4 to be distinct lines", err)
	}
}
