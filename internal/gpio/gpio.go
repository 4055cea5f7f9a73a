// Package gpio abstracts digital pin access behind a small Driver interface.
// Backends cover the Linux GPIO character device, the Raspberry Pi BCM
// register map, a USB serial button box and an in-memory simulator.
package gpio

import (
	"errors"
	"fmt"
)

// ErrHardware is wrapped by every error a Driver returns.
var ErrHardware = errors.New("gpio hardware failure")

// PinID identifies one physical line: a port (chip, bank or device name)
// and a pin number within it.
type PinID struct {
	Port string
	Pin  int
}

// String returns the "port:pin" form used in configuration.
func (p PinID) String() string {
	return fmt.Sprintf("%s:%d", p.Port, p.Pin)
}

// Pull selects the input bias.
type Pull int

// Input bias options.
const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// Driver is the GPIO collaborator used by the LED panel and the button.
type Driver interface {
	// ConfigureOutput prepares a pin for output and drives it low.
	ConfigureOutput(pin PinID) error

	// ConfigureInput prepares a pin for input with the given bias.
	ConfigureInput(pin PinID, pull Pull) error

	// Set drives an output pin high (true) or low (false).
	Set(pin PinID, high bool) error

	// Read returns the raw level of an input pin, true meaning high.
	Read(pin PinID) (bool, error)

	// Close releases all lines held by the driver.
	Close() error
}

// PinError describes a failed driver operation on a pin.
type PinError struct {
	Op  string
	Pin PinID
	Err error
}

func (e *PinError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Pin, e.Err)
	}
	return fmt.Sprintf("%s %s", e.Op, e.Pin)
}

// Unwrap exposes both the cause and ErrHardware to errors.Is.
func (e *PinError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrHardware}
	}
	return []error{ErrHardware, e.Err}
}

func pinError(op string, pin PinID, err error) error {
	return &PinError{Op: op, Pin: pin, Err: err}
}
