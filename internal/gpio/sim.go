package gpio

import (
	"errors"
	"fmt"
	"sync"
)

// Sim is an in-memory Driver. Outputs are recorded; inputs replay scripted
// levels and fall back to high (released, with pull-up) when the script
// runs out. It is safe for concurrent use.
type Sim struct {
	mu       sync.Mutex
	outputs  map[PinID]bool
	inputs   map[PinID]Pull
	scripts  map[PinID][]bool
	reads    map[PinID]int
	sets     int
	failures map[string]error
	closed   bool
}

// NewSim returns an empty simulated driver.
func NewSim() *Sim {
	return &Sim{
		outputs:  make(map[PinID]bool),
		inputs:   make(map[PinID]Pull),
		scripts:  make(map[PinID][]bool),
		reads:    make(map[PinID]int),
		failures: make(map[string]error),
	}
}

func (s *Sim) ConfigureOutput(pin PinID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("configure", pin); err != nil {
		return err
	}
	s.outputs[pin] = false
	return nil
}

func (s *Sim) ConfigureInput(pin PinID, pull Pull) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("configure", pin); err != nil {
		return err
	}
	s.inputs[pin] = pull
	return nil
}

func (s *Sim) Set(pin PinID, high bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("set", pin); err != nil {
		return err
	}
	if _, ok := s.outputs[pin]; !ok {
		return pinError("set", pin, errors.New("pin not configured as output"))
	}
	s.outputs[pin] = high
	s.sets++
	return nil
}

func (s *Sim) Read(pin PinID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("read", pin); err != nil {
		return false, err
	}
	s.reads[pin]++

	if script := s.scripts[pin]; len(script) > 0 {
		s.scripts[pin] = script[1:]
		return script[0], nil
	}
	return s.inputs[pin] != PullDown, nil
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Script queues raw levels returned by successive reads of pin.
func (s *Sim) Script(pin PinID, levels ...bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[pin] = append(s.scripts[pin], levels...)
}

// Press queues one clean active-low press and release on pin: asserted on
// the first read and after the debounce wait, released on the next read.
func (s *Sim) Press(pin PinID) {
	s.Script(pin, false, false, true)
}

// Fail makes every subsequent op ("configure", "set" or "read") fail.
// A nil err clears the failure.
func (s *Sim) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Level returns the current output level of pin.
func (s *Sim) Level(pin PinID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outputs[pin]
}

// Reads returns how many times pin has been read.
func (s *Sim) Reads(pin PinID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads[pin]
}

// Sets returns the total number of successful Set calls.
func (s *Sim) Sets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

// Closed reports whether Close has been called.
func (s *Sim) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Sim) failure(op string, pin PinID) error {
	if err, ok := s.failures[op]; ok {
		return pinError(op, pin, fmt.Errorf("simulated: %w", err))
	}
	return nil
}
