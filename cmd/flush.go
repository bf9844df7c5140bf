/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	serial "github.com/allbin/go-serialstream"
	"github.com/allbin/go-serialstream/internal/tui/styles"
	"github.com/spf13/cobra"
)

// flushCmd represents the flush command
var flushCmd = &cobra.Command{
	Use:   "flush <port>",
	Short: "Discard queued input and/or output on a port",
	Long: `Discard data the driver holds for a port: received bytes not yet read,
bytes written but not yet transmitted, or both (the default).

Examples:
  serialstream flush /dev/ttyUSB0
  serialstream flush /dev/ttyUSB0 --input
  serialstream flush /dev/ttyUSB0 --output`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]
		input, _ := cmd.Flags().GetBool("input")
		output, _ := cmd.Flags().GetBool("output")

		port, err := openPortPreservingSettings(cmd, portPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening port: %v\n", err)
			os.Exit(1)
		}
		defer port.Close()

		queue := flushQueue(input, output)
		if err := flushPort(port, queue); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			port.Close()
			os.Exit(1)
		}
		fmt.Printf("%s Flushed %s on %s\n", styles.SuccessStyle.Render("✓"), queue, portPath)
	},
}

func init() {
	rootCmd.AddCommand(flushCmd)

	flushCmd.Flags().Bool("input", false, "Only discard received data")
	flushCmd.Flags().Bool("output", false, "Only discard untransmitted data")
	flushCmd.MarkFlagsMutuallyExclusive("input", "output")
}

func flushQueue(input, output bool) serial.FlushQueue {
	switch {
	case input && !output:
		return serial.FlushInput
	case output && !input:
		return serial.FlushOutput
	default:
		return serial.FlushBoth
	}
}

func flushPort(port *serial.Port, queue serial.FlushQueue) error {
	switch queue {
	case serial.FlushInput:
		return port.FlushInputBuffer()
	case serial.FlushOutput:
		return port.FlushOutputBuffer()
	default:
		return port.FlushIOBuffers()
	}
}
