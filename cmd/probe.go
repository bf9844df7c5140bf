/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	serial "github.com/allbin/go-serialstream"
	"github.com/allbin/go-serialstream/internal/tui/components"
	"github.com/allbin/go-serialstream/internal/tui/styles"
	"github.com/spf13/cobra"
)

// probeCmd represents the probe command
var probeCmd = &cobra.Command{
	Use:   "probe <port>",
	Short: "Check whether received data is waiting on a port",
	Long: `Report how many received bytes are waiting on the device without
consuming them. With --peek the next byte is shown as well; it is read from
the device and put back, so it is lost once the port closes.

Exits with status 2 when no data is waiting.

Examples:
  serialstream probe /dev/ttyUSB0
  serialstream probe /dev/ttyUSB0 --peek`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]
		peek, _ := cmd.Flags().GetBool("peek")

		port, err := openPortPreservingSettings(cmd, portPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening port: %v\n", err)
			os.Exit(1)
		}
		defer port.Close()

		pending, err := probePort(port, peek)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			port.Close()
			os.Exit(1)
		}

		if !pending {
			port.Close()
			os.Exit(2)
		}
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().Bool("peek", false, "Show the next byte without consuming it")
}

func probePort(port *serial.Port, peek bool) (bool, error) {
	ok, err := port.IsDataAvailable()
	if err != nil {
		return false, err
	}
	if !ok {
		fmt.Println(styles.MutedStyle.Render("No data waiting"))
		return false, nil
	}

	n, err := port.Available()
	if err != nil {
		return false, err
	}
	fmt.Printf("%s %d byte(s) waiting\n", styles.SuccessStyle.Render("●"), n)

	if !peek {
		return true, nil
	}

	c, err := port.PeekByte()
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	fmt.Printf("  Next byte: 0x%02X %q\n", c, components.PrintableASCII([]byte{c}))
	return true, nil
}
