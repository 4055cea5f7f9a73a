package sequence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/smazurov/ledstack/internal/events"
)

// Runner plays one sequence invocation. Satisfied by *Engine.
type Runner interface {
	Run(ctx context.Context, mode Mode) (Result, error)
}

// Loop owns the current mode and keeps dispatching the matching sequence.
type Loop struct {
	runner Runner
	mode   atomic.Int32
	cycles atomic.Uint64
	bus    *events.Bus
	logger *slog.Logger
}

// NewLoop creates a loop starting in initial. bus may be nil.
func NewLoop(runner Runner, initial Mode, bus *events.Bus, logger *slog.Logger) *Loop {
	l := &Loop{
		runner: runner,
		bus:    bus,
		logger: logger,
	}
	l.mode.Store(int32(initial))
	return l
}

// Mode returns the current mode.
func (l *Loop) Mode() Mode {
	return Mode(l.mode.Load())
}

// Cycles returns how many sequences ran to completion.
func (l *Loop) Cycles() uint64 {
	return l.cycles.Load()
}

// Step runs the sequence for the current mode once and adopts the mode it
// hands back.
func (l *Loop) Step(ctx context.Context) (Result, error) {
	current := l.Mode()
	res, err := l.runner.Run(ctx, current)
	if err != nil {
		return res, err
	}

	if res.Outcome == Completed {
		l.cycles.Add(1)
	}

	if res.Next != current {
		l.mode.Store(int32(res.Next))
		l.logger.Info("Sequence mode changed", "from", current.String(), "to", res.Next.String())
		if l.bus != nil {
			l.bus.Publish(events.ModeChangedEvent{
				From:      current.String(),
				To:        res.Next.String(),
				Timestamp: time.Now(),
			})
		}
	}
	return res, nil
}

// Run dispatches sequences until ctx is done, returning nil in that case,
// or until a sequence fails.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("Sequencer loop started", "mode", l.Mode().String())

	for {
		if ctx.Err() != nil {
			l.logger.Info("Sequencer loop stopped", "mode", l.Mode().String(), "cycles", l.Cycles())
			return nil
		}

		if _, err := l.Step(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			return fmt.Errorf("sequencer loop: %w", err)
		}
	}
}
