/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	serial "github.com/allbin/go-serialstream"
	"github.com/spf13/cobra"
)

// dtrCmd represents the dtr command
var dtrCmd = &cobra.Command{
	Use:   "dtr <port> <state>",
	Short: "Control DTR (Data Terminal Ready) signal",
	Long: `Manually set the DTR (Data Terminal Ready) signal state.

The DTR signal indicates that the terminal is ready for communication. Many
boards wire it to their reset line.

Examples:
  serialstream dtr /dev/ttyUSB0 high
  serialstream dtr /dev/ttyUSB0 low
  serialstream dtr /dev/ttyUSB0 on
  serialstream dtr /dev/ttyUSB0 off

Valid states: high, low, on, off, true, false, 1, 0`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		setControlLine(args[0], args[1], "DTR", serial.SetDTR, func(s serial.ModemSignals) bool { return s.DTR })
	},
}

func init() {
	rootCmd.AddCommand(dtrCmd)
}
