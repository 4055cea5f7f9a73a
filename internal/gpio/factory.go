package gpio

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const (
	deviceTreeModelPath = "/proc/device-tree/model"
	firstGPIOChipPath   = "/dev/gpiochip0"
)

// Backend names accepted by New.
const (
	BackendAuto   = "auto"
	BackendCdev   = "cdev"
	BackendRPIO   = "rpio"
	BackendSerial = "serial"
	BackendSim    = "sim"
	BackendNoop   = "noop"
)

// Options selects and parameterizes a backend.
type Options struct {
	Backend    string
	SerialPort string
}

// ResolveBackend returns the canonical name of the backend New would open.
// BackendAuto detects the board and falls back to the no-op driver when no
// GPIO is available.
func ResolveBackend(name string, logger *slog.Logger) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(name))
	switch backend {
	case "", BackendAuto:
		return detectBackend(logger), nil
	case BackendCdev, BackendRPIO, BackendSerial, BackendSim, BackendNoop:
		return backend, nil
	default:
		return "", fmt.Errorf("unknown GPIO backend %q", name)
	}
}

// SharesPinNumbers reports whether backend addresses lines by number
// alone, ignoring PinID.Port. On such backends gpiochip0:4 and gpiochip2:4
// are the same line.
func SharesPinNumbers(backend string) bool {
	return backend == BackendRPIO || backend == BackendSerial
}

// New creates a Driver for the requested backend, see ResolveBackend.
func New(opts Options, logger *slog.Logger) (Driver, error) {
	backend, err := ResolveBackend(opts.Backend, logger)
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendCdev:
		return newCdev(), nil
	case BackendRPIO:
		return newBCM()
	case BackendSerial:
		if opts.SerialPort == "" {
			return nil, fmt.Errorf("serial backend requires a serial port")
		}
		logger.Info("Opening serial button box", "port", opts.SerialPort)
		return openSerialBox(opts.SerialPort, logger)
	case BackendSim:
		return NewSim(), nil
	case BackendNoop:
		return newNoop(logger), nil
	default:
		return nil, fmt.Errorf("unknown GPIO backend %q", opts.Backend)
	}
}

// detectBackend picks a backend from the device tree model and the
// presence of a GPIO character device.
func detectBackend(logger *slog.Logger) string {
	boardModel := detectBoard()
	logger.Info("Detecting board for GPIO control", "board_model", boardModel)

	switch {
	case strings.Contains(boardModel, "Raspberry Pi"):
		logger.Info("Detected Raspberry Pi, using BCM register driver")
		return BackendRPIO
	case chipAvailable():
		logger.Info("GPIO character device found, using cdev driver")
		return BackendCdev
	default:
		logger.Info("No GPIO support detected, using no-op driver", "board_model", boardModel)
		return BackendNoop
	}
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	return strings.TrimRight(string(data), "\x00")
}

func chipAvailable() bool {
	_, err := os.Stat(firstGPIOChipPath)
	return err == nil
}
