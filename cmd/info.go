/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	serial "github.com/allbin/go-serialstream"
	"github.com/allbin/go-serialstream/internal/tui/components"
	"github.com/allbin/go-serialstream/internal/tui/styles"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <port>",
	Short: "Display detailed information about a serial port",
	Long: `Display detailed information about a serial port including USB metadata
and the line settings currently active on the device.

Examples:
  serialstream info /dev/ttyUSB0
  serialstream info /dev/ttyACM0 --no-open

For USB devices, this displays vendor/product IDs, serial numbers, interface
numbers, and other USB-specific metadata extracted from sysfs. The line
settings are read back from the device without changing them, unless line
flags are given explicitly.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]
		noOpen, _ := cmd.Flags().GetBool("no-open")

		info, err := serial.GetPortInfo(portPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting port info: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(styles.TitleStyle.Render("Port Information: " + info.Path))
		fmt.Println()
		printField("Name", info.Name)
		printField("Description", info.Description)

		if info.IsUSB() {
			fmt.Println()
			fmt.Println(styles.SectionStyle.Render("USB Device Information"))
			printField("Vendor ID", info.VendorID)
			printField("Product ID", info.ProductID)
			printField("Serial", info.SerialNumber)
			printField("Interface", info.InterfaceNumber)
			printField("Bus", info.BusNumber)
			printField("Device", info.DeviceNumber)
			printField("Manufacturer", info.Manufacturer)
			printField("Product", info.Product)
		}

		if noOpen {
			return
		}

		port, err := openPortPreservingSettings(cmd, portPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening port: %v\n", err)
			os.Exit(1)
		}
		defer port.Close()

		fmt.Println()
		fmt.Println(styles.SectionStyle.Render("Line Settings"))
		if err := printSettings(port); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading settings: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().Bool("no-open", false, "Only show device metadata; do not open the port")
}

func printField(label, value string) {
	if value == "" {
		return
	}
	fmt.Println("  " + styles.LabelStyle.Render(label+":") + styles.ValueStyle.Render(value))
}

// openPortPreservingSettings opens the port and, unless line flags were given
// on the command line, restores the settings found on the device.
func openPortPreservingSettings(cmd *cobra.Command, portPath string) (*serial.Port, error) {
	for _, name := range []string{"baud", "data-bits", "parity", "stop-bits", "flow-control", "vmin", "vtime"} {
		if cmd.Flags().Changed(name) {
			return openPort(portPath)
		}
	}

	port := serial.NewPort(serial.WithLogger(logger.With().Str("component", "port").Logger()))
	dev := serial.SystemDevice()
	fd, err := dev.Open(portPath, serial.ModeRead)
	if err != nil {
		return nil, err
	}
	current, err := dev.GetConfig(fd)
	dev.Close(fd)
	if err != nil {
		return nil, err
	}

	if err := port.Open(portPath, serial.ModeReadWrite, serial.WithConfig(current)); err != nil {
		return nil, err
	}
	return port, nil
}

// printSettings renders every line parameter as reported by the device
func printSettings(port *serial.Port) error {
	baud, err := port.GetBaudRate()
	if err != nil {
		return err
	}
	size, err := port.GetCharacterSize()
	if err != nil {
		return err
	}
	parity, err := port.GetParity()
	if err != nil {
		return err
	}
	stopBits, err := port.GetNumberOfStopBits()
	if err != nil {
		return err
	}
	flow, err := port.GetFlowControl()
	if err != nil {
		return err
	}
	vmin, err := port.GetVMin()
	if err != nil {
		return err
	}
	vtime, err := port.GetVTime()
	if err != nil {
		return err
	}

	fmt.Println(components.RenderTable(
		[]string{"Setting", "Value"},
		[][]string{
			{"Baud rate", baud.String()},
			{"Data bits", size.String()},
			{"Parity", parity.String()},
			{"Stop bits", stopBits.String()},
			{"Flow control", flow.String()},
			{"VMIN", fmt.Sprintf("%d", vmin)},
			{"VTIME", fmt.Sprintf("%d (%.1fs)", vtime, float64(vtime)/10)},
		},
	))
	return nil
}
