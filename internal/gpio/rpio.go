package gpio

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
)

// bcm implements Driver through the Raspberry Pi BCM2835 register map.
// PinID.Pin is the BCM number; PinID.Port is ignored.
type bcm struct{}

func newBCM() (*bcm, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("%w: open gpiomem: %v", ErrHardware, err)
	}
	return &bcm{}, nil
}

func (b *bcm) ConfigureOutput(pin PinID) error {
	if err := checkBCM(pin); err != nil {
		return err
	}
	p := rpio.Pin(pin.Pin)
	p.Output()
	p.Low()
	return nil
}

func (b *bcm) ConfigureInput(pin PinID, pull Pull) error {
	if err := checkBCM(pin); err != nil {
		return err
	}
	p := rpio.Pin(pin.Pin)
	p.Input()
	switch pull {
	case PullUp:
		p.PullUp()
	case PullDown:
		p.PullDown()
	default:
		p.PullOff()
	}
	return nil
}

func (b *bcm) Set(pin PinID, high bool) error {
	if err := checkBCM(pin); err != nil {
		return err
	}
	if high {
		rpio.Pin(pin.Pin).High()
	} else {
		rpio.Pin(pin.Pin).Low()
	}
	return nil
}

func (b *bcm) Read(pin PinID) (bool, error) {
	if err := checkBCM(pin); err != nil {
		return false, err
	}
	return rpio.Pin(pin.Pin).Read() == rpio.High, nil
}

func (b *bcm) Close() error {
	if err := rpio.Close(); err != nil {
		return fmt.Errorf("%w: close gpiomem: %v", ErrHardware, err)
	}
	return nil
}

// checkBCM rejects pins outside the 0-53 BCM range.
func checkBCM(pin PinID) error {
	if pin.Pin < 0 || pin.Pin > 53 {
		return pinError("validate", pin, fmt.Errorf("BCM pin %d out of range", pin.Pin))
	}
	return nil
}
