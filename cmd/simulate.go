package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/ledstack/internal/app"
	"github.com/smazurov/ledstack/internal/clock"
	"github.com/smazurov/ledstack/internal/config"
	"github.com/smazurov/ledstack/internal/gpio"
	"github.com/smazurov/ledstack/internal/led"
	"github.com/smazurov/ledstack/internal/logging"
	"github.com/smazurov/ledstack/internal/sequence"
	"github.com/spf13/cobra"
)

// simulation runs the sequencer against an in-memory strip.
type simulation struct {
	out      io.Writer
	sim      *gpio.Sim
	bindings config.Bindings
	initial  sequence.Mode
	clock    clock.Clock
	// maxFrames stops the run after that many frames; 0 runs until cancelled.
	maxFrames int
}

// CreateSimulateCmd creates the simulate command.
func CreateSimulateCmd() *cobra.Command {
	var pressEvery time.Duration
	var stdinPresses bool
	var maxFrames int

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the sequencer on a simulated strip",
		Long: `Runs both stacking sequences against an in-memory GPIO driver and draws the strip on stdout. ` +
			`Presses can be synthesized on a fixed interval or by hitting Enter.`,
		Args: cobra.NoArgs,
		Run: humacli.WithOptions(func(c *cobra.Command, _ []string, opts *Options) {
			logger := logging.GetLogger("main")

			bindings, err := opts.Hardware(gpio.BackendSim).Resolve()
			if err != nil {
				logger.Error("Invalid pin bindings", "error", err)
				os.Exit(1)
			}
			initial, err := opts.InitialMode()
			if err != nil {
				logger.Error("Invalid initial mode", "error", err)
				os.Exit(1)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sim := gpio.NewSim()
			if pressEvery > 0 {
				go pressOnInterval(ctx, sim, bindings.Button, pressEvery)
			}
			if stdinPresses {
				go pressOnEnter(ctx, os.Stdin, sim, bindings.Button)
			}

			err = runSimulation(ctx, simulation{
				out:       c.OutOrStdout(),
				sim:       sim,
				bindings:  bindings,
				initial:   initial,
				clock:     clock.Real{},
				maxFrames: maxFrames,
			})
			if err != nil {
				logger.Error("Simulation failed", "error", err)
				os.Exit(1)
			}
		}),
	}

	cmd.Flags().DurationVar(&pressEvery, "press-every", 0, "Synthesize a button press on this interval (0 disables)")
	cmd.Flags().BoolVar(&stdinPresses, "stdin", false, "Press the button on every line read from stdin")
	cmd.Flags().IntVar(&maxFrames, "frames", 0, "Stop after this many frames (0 runs until interrupted)")

	return cmd
}

// runSimulation drives the loop and prints one line per frame.
func runSimulation(ctx context.Context, s simulation) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var a *app.App
	rendered := 0
	a = app.New(app.Config{
		Driver:   s.sim,
		Bindings: s.bindings,
		Initial:  s.initial,
		Clock:    s.clock,
		OnFrame: func(p led.Pattern) {
			rendered++
			fmt.Fprintf(s.out, "%s  %s  %s\n", p.Strip(), p, a.Mode())
			if s.maxFrames > 0 && rendered >= s.maxFrames {
				cancel()
			}
		},
	})

	if err := a.Init(); err != nil {
		return err
	}
	runErr := a.Run(ctx)
	if err := a.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func pressOnInterval(ctx context.Context, sim *gpio.Sim, pin gpio.PinID, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sim.Press(pin)
		}
	}
}

func pressOnEnter(ctx context.Context, in io.Reader, sim *gpio.Sim, pin gpio.PinID) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		sim.Press(pin)
	}
}
