/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	serial "github.com/allbin/go-serialstream"
	"github.com/spf13/cobra"
)

// rtsCmd represents the rts command
var rtsCmd = &cobra.Command{
	Use:   "rts <port> <state>",
	Short: "Control RTS (Request To Send) signal",
	Long: `Manually set the RTS (Request To Send) signal state.

The RTS signal can be used for software flow control or custom signaling.
With hardware flow control enabled the driver owns RTS and may override it.

Examples:
  serialstream rts /dev/ttyUSB0 high
  serialstream rts /dev/ttyUSB0 low
  serialstream rts /dev/ttyUSB0 on
  serialstream rts /dev/ttyUSB0 off

Valid states: high, low, on, off, true, false, 1, 0`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		setControlLine(args[0], args[1], "RTS", serial.SetRTS, func(s serial.ModemSignals) bool { return s.RTS })
	},
}

func parseSignalState(state string) (bool, error) {
	switch strings.ToLower(state) {
	case "high", "on", "true", "1":
		return true, nil
	case "low", "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid state: %s (valid: high, low, on, off, true, false, 1, 0)", state)
	}
}

// setControlLine drives one output line and reports the state read back
func setControlLine(portPath, stateArg, line string, set func(fd int, state bool) error, get func(serial.ModemSignals) bool) {
	state, err := parseSignalState(stateArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	port, err := openPort(portPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening port: %v\n", err)
		os.Exit(1)
	}
	defer port.Close()

	fd := port.GetFileDescriptor()
	if err := set(fd, state); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting %s: %v\n", line, err)
		port.Close()
		os.Exit(1)
	}

	// Verify the state was set
	current := state
	if signals, err := serial.ReadModemSignals(fd); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not verify %s state: %v\n", line, err)
	} else {
		current = get(signals)
	}

	fmt.Printf("%s set to %s on %s\n", line, formatSignalState(current), portPath)
}

func init() {
	rootCmd.AddCommand(rtsCmd)
}
