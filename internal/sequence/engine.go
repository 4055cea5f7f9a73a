// Package sequence runs the two stacking animations and the loop that
// switches between them on button presses.
package sequence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/smazurov/ledstack/internal/clock"
	"github.com/smazurov/ledstack/internal/events"
	"github.com/smazurov/ledstack/internal/led"
)

// Default timings.
const (
	DefaultFrameDelay = 100 * time.Millisecond
	DefaultHold       = 500 * time.Millisecond
	DefaultGap        = 200 * time.Millisecond
)

// Timings holds the engine delays.
type Timings struct {
	Frame time.Duration // each runner frame
	Hold  time.Duration // full strip at the end of a cycle
	Gap   time.Duration // dark strip before the next cycle
}

// DefaultTimings returns the stock 100/500/200 ms timings.
func DefaultTimings() Timings {
	return Timings{
		Frame: DefaultFrameDelay,
		Hold:  DefaultHold,
		Gap:   DefaultGap,
	}
}

// Renderer draws a frame on the strip. Satisfied by *led.Panel.
type Renderer interface {
	Render(pattern led.Pattern) error
}

// Poller checks for a button press. Satisfied by *button.Button.
type Poller interface {
	IsPressed(ctx context.Context) (bool, error)
}

// Outcome tells how a sequence run ended.
type Outcome int

const (
	// Completed means the strip filled and the closing frames ran.
	Completed Outcome = iota
	// Interrupted means a button press abandoned the run.
	Interrupted
	// Aborted means cancellation or a hardware error stopped the run.
	// Run returns the cause alongside it and Next is the mode that was
	// running.
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Interrupted:
		return "interrupted"
	case Aborted:
		return "aborted"
	default:
		return "completed"
	}
}

// Result describes one engine invocation.
type Result struct {
	Next      Mode
	Outcome   Outcome
	Locked    led.Pattern
	NumLocked int
	Frames    int
}

// Engine renders stacking sequences. It holds no state between runs.
type Engine struct {
	renderer Renderer
	poller   Poller
	clock    clock.Clock
	timings  Timings
	bus      *events.Bus
	logger   *slog.Logger
}

// NewEngine creates an engine. bus may be nil.
func NewEngine(renderer Renderer, poller Poller, clk clock.Clock, timings Timings, bus *events.Bus, logger *slog.Logger) *Engine {
	return &Engine{
		renderer: renderer,
		poller:   poller,
		clock:    clk,
		timings:  timings,
		bus:      bus,
		logger:   logger,
	}
}

// runState is the pile built during one run.
type runState struct {
	locked    led.Pattern
	numLocked int
	frames    int
}

func (s *runState) lock(slot int) {
	s.locked |= led.Bit(slot)
	s.numLocked++
}

// StackLeft runs the left-to-right sequence once.
func (e *Engine) StackLeft(ctx context.Context) (Result, error) {
	return e.Run(ctx, StackLeft)
}

// StackRight runs the right-to-left sequence once.
func (e *Engine) StackRight(ctx context.Context) (Result, error) {
	return e.Run(ctx, StackRight)
}

// Run plays one cycle of mode starting from an empty pile. The button is
// polled before every runner frame; a press ends the run at once, without
// rendering, and the result names the other mode. A cycle that fills the
// strip shows it full, then dark, and keeps the mode.
func (e *Engine) Run(ctx context.Context, mode Mode) (Result, error) {
	var st runState
	dir := mode.Direction()

	e.logger.Debug("Sequence started", "mode", mode.String(), "direction", dir.String())

	for st.locked != led.Full {
		first, slot, step := dir.sweep(st.numLocked)

		for pos := first; pos != slot+step; pos += step {
			if err := ctx.Err(); err != nil {
				return e.result(mode, Aborted, st), err
			}

			pressed, err := e.poller.IsPressed(ctx)
			if err != nil {
				return e.result(mode, Aborted, st), fmt.Errorf("%s: poll button: %w", mode, err)
			}
			if pressed {
				return e.interrupted(mode, st), nil
			}

			if err := e.frame(mode, st.locked|led.Bit(pos), &st); err != nil {
				return e.result(mode, Aborted, st), err
			}
			e.clock.Sleep(e.timings.Frame)
		}

		st.lock(slot)
	}

	if err := e.frame(mode, led.Full, &st); err != nil {
		return e.result(mode, Aborted, st), err
	}
	e.clock.Sleep(e.timings.Hold)
	if err := e.frame(mode, led.Off, &st); err != nil {
		return e.result(mode, Aborted, st), err
	}
	e.clock.Sleep(e.timings.Gap)

	res := e.result(mode, Completed, st)
	e.logger.Debug("Sequence completed", "mode", mode.String(), "frames", res.Frames)
	e.publish(events.CycleCompletedEvent{
		Mode:      mode.String(),
		Frames:    res.Frames,
		Timestamp: time.Now(),
	})
	return res, nil
}

func (e *Engine) frame(mode Mode, pattern led.Pattern, st *runState) error {
	if err := e.renderer.Render(pattern); err != nil {
		return fmt.Errorf("%s: %w", mode, err)
	}
	st.frames++
	e.publish(events.FrameRenderedEvent{
		Mode:      mode.String(),
		Pattern:   uint8(pattern),
		Frame:     st.frames,
		Timestamp: time.Now(),
	})
	return nil
}

func (e *Engine) interrupted(mode Mode, st runState) Result {
	res := e.result(mode.Toggle(), Interrupted, st)
	e.logger.Info("Button pressed, switching sequence",
		"from", mode.String(),
		"to", res.Next.String(),
		"num_locked", st.numLocked)

	now := time.Now()
	e.publish(events.ButtonPressedEvent{Mode: mode.String(), Timestamp: now})
	e.publish(events.SequenceInterruptedEvent{
		Mode:      mode.String(),
		Locked:    uint8(st.locked),
		NumLocked: st.numLocked,
		Frames:    st.frames,
		Timestamp: now,
	})
	return res
}

func (e *Engine) result(next Mode, outcome Outcome, st runState) Result {
	return Result{
		Next:      next,
		Outcome:   outcome,
		Locked:    st.locked,
		NumLocked: st.numLocked,
		Frames:    st.frames,
	}
}

func (e *Engine) publish(ev events.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}
