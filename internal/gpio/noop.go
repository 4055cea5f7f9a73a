package gpio

import "log/slog"

// noop implements Driver for hosts without usable GPIO.
// Inputs always read high, so the button is never pressed.
type noop struct {
	logger *slog.Logger
}

func newNoop(logger *slog.Logger) *noop {
	return &noop{
		logger: logger,
	}
}

func (n *noop) ConfigureOutput(pin PinID) error {
	n.logger.Debug("GPIO not available (no-op)", "op", "configure_output", "pin", pin.String())
	return nil
}

func (n *noop) ConfigureInput(pin PinID, _ Pull) error {
	n.logger.Debug("GPIO not available (no-op)", "op", "configure_input", "pin", pin.String())
	return nil
}

func (n *noop) Set(_ PinID, _ bool) error {
	return nil
}

func (n *noop) Read(_ PinID) (bool, error) {
	return true, nil
}

func (n *noop) Close() error {
	return nil
}
