package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/ledstack/internal/config"
	"github.com/smazurov/ledstack/internal/logging"
	"github.com/spf13/cobra"
)

// CreatePinsCmd creates the pins command.
func CreatePinsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pins",
		Short: "Print the resolved pin bindings",
		Long:  `Shows which GPIO line drives each LED, leftmost first, and which line the button is read from.`,
		Args:  cobra.NoArgs,
		Run: humacli.WithOptions(func(c *cobra.Command, _ []string, opts *Options) {
			logger := logging.GetLogger("main")

			g, err := opts.GPIO(logging.GetLogger("gpio"))
			if err != nil {
				logger.Error("Invalid GPIO backend", "error", err)
				os.Exit(1)
			}
			bindings, err := opts.Hardware(g.Backend).Resolve()
			if err != nil {
				logger.Error("Invalid pin bindings", "error", err)
				os.Exit(1)
			}
			printPins(c.OutOrStdout(), opts.GPIOBackend, g.Backend, bindings)
		}),
	}
}

// printPins names the backend that will actually drive the pins, noting
// when it was picked by detection.
func printPins(w io.Writer, requested, backend string, b config.Bindings) {
	if requested != "" && !strings.EqualFold(strings.TrimSpace(requested), backend) {
		fmt.Fprintf(w, "backend: %s (%s)\n", backend, requested)
	} else {
		fmt.Fprintf(w, "backend: %s\n", backend)
	}
	for i, pin := range b.LEDs.Pins() {
		fmt.Fprintf(w, "led %d   %s\n", i, pin)
	}
	fmt.Fprintf(w, "button  %s (active-low, pull-up, debounce %s)\n", b.Button, b.Debounce)
}
