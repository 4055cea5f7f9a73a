package cmd

import (
	"fmt"
	"io"

	"github.com/smazurov/ledstack/internal/sequence"
	"github.com/spf13/cobra"
)

// CreateFramesCmd creates the frames command.
func CreateFramesCmd() *cobra.Command {
	var hexOnly bool

	cmd := &cobra.Command{
		Use:       "frames <stack-left|stack-right>",
		Short:     "Print the frames of one full cycle",
		Long:      `Lists every pattern one uninterrupted cycle of the given sequence renders, closing frames included.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"stack-left", "stack-right"},
		RunE: func(c *cobra.Command, args []string) error {
			mode, err := sequence.ParseMode(args[0])
			if err != nil {
				return err
			}
			return printFrames(c.OutOrStdout(), mode, hexOnly)
		},
	}

	cmd.Flags().BoolVar(&hexOnly, "hex", false, "Print only the hex pattern of each frame")
	return cmd
}

func printFrames(w io.Writer, mode sequence.Mode, hexOnly bool) error {
	for i, p := range sequence.Frames(mode.Direction()) {
		var err error
		if hexOnly {
			_, err = fmt.Fprintln(w, p)
		} else {
			_, err = fmt.Fprintf(w, "%2d  %s  %s\n", i+1, p.Strip(), p)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
