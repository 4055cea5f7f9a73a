package gpio

import (
	"errors"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

const consumerName = "ledstack"

// cdev implements Driver on the Linux GPIO character device.
// PinID.Port is the chip name (e.g. "gpiochip0") and PinID.Pin the line offset.
type cdev struct {
	mu    sync.Mutex
	lines map[PinID]*gpiocdev.Line
}

func newCdev() *cdev {
	return &cdev{
		lines: make(map[PinID]*gpiocdev.Line),
	}
}

func (c *cdev) ConfigureOutput(pin PinID) error {
	return c.request(pin, gpiocdev.AsOutput(0))
}

func (c *cdev) ConfigureInput(pin PinID, pull Pull) error {
	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput}
	switch pull {
	case PullUp:
		opts = append(opts, gpiocdev.WithPullUp)
	case PullDown:
		opts = append(opts, gpiocdev.WithPullDown)
	}
	return c.request(pin, opts...)
}

func (c *cdev) request(pin PinID, opts ...gpiocdev.LineReqOption) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-requesting a held line fails with EBUSY, release it first
	if existing, ok := c.lines[pin]; ok {
		_ = existing.Close()
		delete(c.lines, pin)
	}

	opts = append(opts, gpiocdev.WithConsumer(consumerName))
	line, err := gpiocdev.RequestLine(pin.Port, pin.Pin, opts...)
	if err != nil {
		return pinError("request", pin, err)
	}
	c.lines[pin] = line
	return nil
}

func (c *cdev) line(op string, pin PinID) (*gpiocdev.Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, ok := c.lines[pin]
	if !ok {
		return nil, pinError(op, pin, errors.New("line not requested"))
	}
	return line, nil
}

func (c *cdev) Set(pin PinID, high bool) error {
	line, err := c.line("set", pin)
	if err != nil {
		return err
	}

	value := 0
	if high {
		value = 1
	}
	if err := line.SetValue(value); err != nil {
		return pinError("set", pin, err)
	}
	return nil
}

func (c *cdev) Read(pin PinID) (bool, error) {
	line, err := c.line("read", pin)
	if err != nil {
		return false, err
	}

	value, err := line.Value()
	if err != nil {
		return false, pinError("read", pin, err)
	}
	return value != 0, nil
}

func (c *cdev) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for pin, line := range c.lines {
		if err := line.Close(); err != nil {
			errs = append(errs, pinError("close", pin, err))
		}
		delete(c.lines, pin)
	}
	return errors.Join(errs...)
}
