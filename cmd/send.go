/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	serial "github.com/allbin/go-serialstream"
	"github.com/allbin/go-serialstream/internal/tui/components"
	"github.com/allbin/go-serialstream/internal/tui/styles"
	"github.com/spf13/cobra"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data] <port>",
	Short: "Send data to a serial port",
	Long: `Send data to a serial port.

This command sends data to the specified serial port. Data can be provided as:
- Command line argument: send "Hello World" /dev/ttyUSB0
- From stdin (pipe): echo "test data" | serialstream send /dev/ttyUSB0
- Interactive mode: serialstream send /dev/ttyUSB0 (prompts for input)

The whole payload is written even when the device accepts it in pieces;
the reported count is exactly what reached the device.

Example usage:
  serialstream send "Hello World" /dev/ttyUSB0
  serialstream send "AT+GMR" /dev/ttyUSB0 --newline
  serialstream send 48656c6c6f /dev/ttyUSB0 --hex --baud 9600
  echo "test" | serialstream send /dev/ttyUSB0`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		var data string
		var portPath string

		// Parse arguments: either "send data port" or "send port"
		if len(args) == 1 {
			portPath = args[0]
			stat, err := os.Stdin.Stat()
			if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
				data = promptForData()
			} else {
				stdinData, err := io.ReadAll(os.Stdin)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error reading from stdin: %v\n", err)
					os.Exit(1)
				}
				data = strings.TrimRight(string(stdinData), "\r\n")
			}
		} else {
			data = args[0]
			portPath = args[1]
		}

		addNewline, _ := cmd.Flags().GetBool("newline")
		hexMode, _ := cmd.Flags().GetBool("hex")
		drain, _ := cmd.Flags().GetBool("drain")

		if hexMode {
			processedData, err := parseHexString(data)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid hex data: %v\n", err)
				os.Exit(1)
			}
			data = processedData
		}

		if addNewline && !hexMode {
			data += "\n"
		}

		if err := sendData(portPath, []byte(data), drain); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", styles.ErrorStyle.Render("✗"), err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().BoolP("newline", "n", false, "Add newline character to the end of data")
	sendCmd.Flags().BoolP("hex", "x", false, "Interpret data as hexadecimal (e.g., '48656c6c6f' for 'Hello')")
	sendCmd.Flags().Bool("drain", true, "Wait until the data has been transmitted before closing")
}

func promptForData() string {
	fmt.Print(styles.InfoStyle.Render("Enter data to send: "))

	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}

func parseHexString(hexStr string) (string, error) {
	// Remove common hex prefixes and whitespace
	hexStr = strings.ReplaceAll(hexStr, " ", "")
	hexStr = strings.ReplaceAll(hexStr, "0x", "")
	hexStr = strings.ReplaceAll(hexStr, "0X", "")

	if len(hexStr)%2 != 0 {
		return "", fmt.Errorf("hex string must have even length")
	}

	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", fmt.Errorf("invalid hex data: %w", err)
	}
	return string(decoded), nil
}

func sendData(portPath string, data []byte, drain bool) error {
	fmt.Printf("%s Opening %s...\n", styles.InfoStyle.Render("⚡"), portPath)

	port, err := openPort(portPath)
	if err != nil {
		return err
	}
	defer port.Close()

	fmt.Printf("%s Connected successfully\n", styles.SuccessStyle.Render("✓"))
	fmt.Printf("%s Sending %d bytes...\n", styles.InfoStyle.Render("📤"), len(data))

	n, err := writeAll(port, data, drain)
	if err != nil {
		return fmt.Errorf("sent %d of %d bytes: %w", n, len(data), err)
	}

	fmt.Printf("%s Successfully sent %d bytes\n", styles.SuccessStyle.Render("✓"), n)

	preview := data
	if len(preview) > 50 {
		preview = preview[:50]
	}
	suffix := ""
	if len(data) > len(preview) {
		suffix = "..."
	}
	fmt.Printf("%s Data: %s%s\n", styles.InfoStyle.Render("📋"), components.PrintableASCII(preview), suffix)

	return nil
}

// writeAll hands data to the port and optionally waits for transmission
func writeAll(port *serial.Port, data []byte, drain bool) (int, error) {
	n, err := port.Write(data)
	if err != nil {
		return n, err
	}
	if drain {
		if err := port.Drain(); err != nil {
			return n, err
		}
	}
	return n, nil
}
