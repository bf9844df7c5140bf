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

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config <port>",
	Short: "Change line settings on an open port and show the result",
	Long: `Open a port, change individual line settings through the port's setters
and print the settings read back from the device.

The --set-* flags are applied one at a time after the port is open, in the
order baud, data bits, parity, stop bits, flow control, VMIN, VTIME. --reset
restores 115200 8N1, no flow control, VMIN=1, VTIME=0 before any of them.

Examples:
  serialstream config /dev/ttyUSB0 --set-baud 9600 --set-parity even
  serialstream config /dev/ttyUSB0 --reset
  serialstream config /dev/ttyUSB0 --set-vmin 0 --set-vtime 10`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]

		port, err := openPortPreservingSettings(cmd, portPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening port: %v\n", err)
			os.Exit(1)
		}
		defer port.Close()

		changes, err := settingChanges(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			port.Close()
			os.Exit(1)
		}

		for _, c := range changes {
			if err := c.apply(port); err != nil {
				fmt.Fprintf(os.Stderr, "%s %s: %v\n", styles.ErrorStyle.Render("✗"), c.name, err)
				port.Close()
				os.Exit(1)
			}
			fmt.Printf("%s %s\n", styles.SuccessStyle.Render("✓"), c.name)
		}

		if len(changes) > 0 {
			fmt.Println()
		}
		if err := printSettings(port); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading settings: %v\n", err)
			port.Close()
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().Bool("reset", false, "Restore the default line settings first")
	configCmd.Flags().String("set-baud", "", "Set baud rate")
	configCmd.Flags().String("set-data-bits", "", "Set data bits: 5, 6, 7, 8")
	configCmd.Flags().String("set-parity", "", "Set parity: none, odd, even")
	configCmd.Flags().String("set-stop-bits", "", "Set stop bits: 1, 2")
	configCmd.Flags().String("set-flow-control", "", "Set flow control: none, hardware, software")
	configCmd.Flags().Int("set-vmin", 0, "Set VMIN (0-255)")
	configCmd.Flags().Int("set-vtime", 0, "Set VTIME in tenths of a second (0-255)")
}

type settingChange struct {
	name  string
	apply func(*serial.Port) error
}

// settingChanges turns the --reset and --set-* flags into setter calls
func settingChanges(cmd *cobra.Command) ([]settingChange, error) {
	flags := cmd.Flags()
	var changes []settingChange

	if reset, _ := flags.GetBool("reset"); reset {
		changes = append(changes, settingChange{"reset to defaults", (*serial.Port).SetDefaultSerialPortParameters})
	}

	if flags.Changed("set-baud") {
		v, _ := flags.GetString("set-baud")
		rate, err := serial.ParseBaudRate(v)
		if err != nil {
			return nil, err
		}
		changes = append(changes, settingChange{"baud rate " + rate.String(), func(p *serial.Port) error { return p.SetBaudRate(rate) }})
	}

	if flags.Changed("set-data-bits") {
		v, _ := flags.GetString("set-data-bits")
		size, err := serial.ParseCharacterSize(v)
		if err != nil {
			return nil, err
		}
		changes = append(changes, settingChange{"data bits " + size.String(), func(p *serial.Port) error { return p.SetCharacterSize(size) }})
	}

	if flags.Changed("set-parity") {
		v, _ := flags.GetString("set-parity")
		parity, err := serial.ParseParity(v)
		if err != nil {
			return nil, err
		}
		changes = append(changes, settingChange{"parity " + parity.String(), func(p *serial.Port) error { return p.SetParity(parity) }})
	}

	if flags.Changed("set-stop-bits") {
		v, _ := flags.GetString("set-stop-bits")
		bits, err := serial.ParseStopBits(v)
		if err != nil {
			return nil, err
		}
		changes = append(changes, settingChange{"stop bits " + bits.String(), func(p *serial.Port) error { return p.SetNumberOfStopBits(bits) }})
	}

	if flags.Changed("set-flow-control") {
		v, _ := flags.GetString("set-flow-control")
		fc, err := serial.ParseFlowControl(v)
		if err != nil {
			return nil, err
		}
		changes = append(changes, settingChange{"flow control " + fc.String(), func(p *serial.Port) error { return p.SetFlowControl(fc) }})
	}

	if flags.Changed("set-vmin") {
		v, _ := flags.GetInt("set-vmin")
		changes = append(changes, settingChange{fmt.Sprintf("VMIN %d", v), func(p *serial.Port) error { return p.SetVMin(v) }})
	}

	if flags.Changed("set-vtime") {
		v, _ := flags.GetInt("set-vtime")
		changes = append(changes, settingChange{fmt.Sprintf("VTIME %d", v), func(p *serial.Port) error { return p.SetVTime(v) }})
	}

	return changes, nil
}
