package gpio

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	boxBaudRate      = 9600
	boxReleaseBit    = 0x80
	boxPinMask       = 0x7f
	boxHeartbeat     = 255
	boxHeartbeatTick = 200 * time.Millisecond
)

// serialBox implements Driver for a USB button box that owns its LEDs and
// buttons. The host writes a pin number to light an LED and pin|0x80 to
// clear it. The box reports a button number on press and number|0x80 on
// release. The host sends 255 as a heartbeat. PinID.Port is ignored.
type serialBox struct {
	port   io.ReadWriteCloser
	logger *slog.Logger

	writeMu sync.Mutex
	stateMu sync.RWMutex
	pressed map[int]bool

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func openSerialBox(portName string, logger *slog.Logger) (*serialBox, error) {
	port, err := serial.Open(portName, &serial.Mode{BaudRate: boxBaudRate})
	if err != nil {
		return nil, fmt.Errorf("%w: open serial port %q: %v", ErrHardware, portName, err)
	}
	return newSerialBox(port, logger, boxHeartbeatTick), nil
}

// newSerialBox starts the reader and heartbeat goroutines on an open port.
// A zero heartbeat interval disables the heartbeat.
func newSerialBox(port io.ReadWriteCloser, logger *slog.Logger, heartbeat time.Duration) *serialBox {
	b := &serialBox{
		port:    port,
		logger:  logger,
		pressed: make(map[int]bool),
		stop:    make(chan struct{}),
	}

	b.wg.Add(1)
	go b.reader()

	if heartbeat > 0 {
		b.wg.Add(1)
		go b.heartbeat(heartbeat)
	}
	return b
}

func (b *serialBox) ConfigureOutput(pin PinID) error {
	return b.Set(pin, false)
}

func (b *serialBox) ConfigureInput(pin PinID, _ Pull) error {
	if err := checkBoxPin(pin); err != nil {
		return err
	}
	b.stateMu.Lock()
	b.pressed[pin.Pin] = false
	b.stateMu.Unlock()
	return nil
}

func (b *serialBox) Set(pin PinID, high bool) error {
	if err := checkBoxPin(pin); err != nil {
		return err
	}
	value := byte(pin.Pin)
	if !high {
		value |= boxReleaseBit
	}
	if err := b.write(value); err != nil {
		return pinError("set", pin, err)
	}
	return nil
}

// Read reports the electrical level the box button would have with a
// pull-up: low while pressed.
func (b *serialBox) Read(pin PinID) (bool, error) {
	if err := checkBoxPin(pin); err != nil {
		return false, err
	}
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	return !b.pressed[pin.Pin], nil
}

func (b *serialBox) Close() error {
	var err error
	b.once.Do(func() {
		close(b.stop)
		err = b.port.Close()
		b.wg.Wait()
	})
	if err != nil {
		return fmt.Errorf("%w: close serial port: %v", ErrHardware, err)
	}
	return nil
}

func (b *serialBox) write(value byte) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	_, err := b.port.Write([]byte{value})
	return err
}

func (b *serialBox) reader() {
	defer b.wg.Done()
	buff := make([]byte, 100)

	for {
		n, err := b.port.Read(buff)
		if n == 0 || err != nil {
			select {
			case <-b.stop:
			default:
				b.logger.Warn("Serial box reader stopped", "error", err)
			}
			return
		}

		b.stateMu.Lock()
		for _, value := range buff[:n] {
			if value == boxHeartbeat {
				continue
			}
			button := int(value & boxPinMask)
			b.pressed[button] = value&boxReleaseBit == 0
		}
		b.stateMu.Unlock()
	}
}

func (b *serialBox) heartbeat(interval time.Duration) {
	defer b.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			if err := b.write(boxHeartbeat); err != nil {
				b.logger.Warn("Serial box heartbeat failed", "error", err)
				return
			}
		}
	}
}

func checkBoxPin(pin PinID) error {
	// 127 is reserved: 127|0x80 is the heartbeat byte
	if pin.Pin < 0 || pin.Pin >= boxPinMask {
		return pinError("validate", pin, fmt.Errorf("box pin %d out of range", pin.Pin))
	}
	return nil
}
