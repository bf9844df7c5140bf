/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture <port> <output-file>",
	Short: "Capture serial data to a file",
	Long: `Capture incoming serial data to a file for later parsing.

Reads data from the specified serial port and writes it directly to
the output file. Runs continuously until interrupted (Ctrl+C).

The output file is opened in append mode, allowing you to resume captures
without overwriting existing data.

Example usage:
  serialstream capture /dev/ttyUSB0 data.log
  serialstream capture /dev/ttyUSB0 output.txt --baud 9600
  serialstream capture /dev/ttyUSB0 capture.log --console`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]
		outputPath := args[1]

		bufferSize, _ := cmd.Flags().GetInt("buffer")
		showConsole, _ := cmd.Flags().GetBool("console")
		poll, _ := cmd.Flags().GetDuration("poll")
		flushFirst, _ := cmd.Flags().GetBool("flush")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runCapture(ctx, portPath, outputPath, bufferSize, poll, showConsole, flushFirst); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().Int("buffer", 4096, "Read buffer size")
	captureCmd.Flags().BoolP("console", "c", false, "Display incoming data on console while capturing")
	captureCmd.Flags().Duration("poll", 200*time.Millisecond, "Longest a single read may wait (multiple of 100ms)")
	captureCmd.Flags().Bool("flush", false, "Discard input already queued on the device before capturing")
}

func runCapture(ctx context.Context, portPath, outputPath string, bufferSize int, poll time.Duration, showConsole, flushFirst bool) error {
	port, err := openPort(portPath, pollOptions(poll)...)
	if err != nil {
		return fmt.Errorf("failed to open port: %w", err)
	}
	defer port.Close()

	if flushFirst {
		if err := port.FlushInputBuffer(); err != nil {
			return err
		}
	}

	// Open output file in append mode
	file, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(os.Stderr, "Capturing data from %s to %s\n", portPath, outputPath)
	if showConsole {
		fmt.Fprintf(os.Stderr, "Console display enabled\n")
	}
	fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop\n\n")

	startTime := time.Now()
	bytesWritten, err := pump(ctx, port, bufferSize, func(chunk []byte) error {
		if _, err := file.Write(chunk); err != nil {
			return fmt.Errorf("write error: %w", err)
		}
		if showConsole {
			os.Stdout.Write(chunk)
		}
		return nil
	})

	duration := time.Since(startTime)
	fmt.Fprintf(os.Stderr, "\nCapture complete: %d bytes written in %v\n", bytesWritten, duration.Round(time.Millisecond))
	return err
}
