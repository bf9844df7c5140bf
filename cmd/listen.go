/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	serial "github.com/allbin/go-serialstream"
	"github.com/allbin/go-serialstream/internal/tui/components"
	"github.com/allbin/go-serialstream/internal/tui/styles"
	"github.com/spf13/cobra"
)

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen <port>",
	Short: "Listen for data on a serial port",
	Long: `Listen for incoming data on a serial port and print every chunk as it
arrives.

Each bulk read is shown on its own line with a timestamp, in ASCII and/or hex.
Reads wake up at least every --poll interval so Ctrl+C is handled promptly.

Example usage:
  serialstream listen /dev/ttyUSB0
  serialstream listen /dev/ttyUSB0 --baud 9600 --hex
  serialstream listen /dev/ttyUSB0 --raw > dump.bin`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]

		showHex, _ := cmd.Flags().GetBool("hex")
		noASCII, _ := cmd.Flags().GetBool("no-ascii")
		noTimestamps, _ := cmd.Flags().GetBool("no-timestamps")
		showIndicators, _ := cmd.Flags().GetBool("show-indicators")
		rawMode, _ := cmd.Flags().GetBool("raw")
		poll, _ := cmd.Flags().GetDuration("poll")
		bufferSize, _ := cmd.Flags().GetInt("buffer")

		formatter := components.NewDataFormatter(components.DisplayMode{
			ShowHex:        showHex,
			ShowASCII:      !noASCII,
			ShowTimestamps: !noTimestamps,
			ShowIndicators: showIndicators,
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runListen(ctx, portPath, poll, bufferSize, rawMode, formatter); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().BoolP("hex", "x", false, "Show data as hex")
	listenCmd.Flags().Bool("no-ascii", false, "Hide the ASCII rendering")
	listenCmd.Flags().Bool("no-timestamps", false, "Hide timestamps from output")
	listenCmd.Flags().Bool("show-indicators", false, "Show RX indicators")
	listenCmd.Flags().Bool("raw", false, "Raw output mode: copy received bytes to stdout unchanged")
	listenCmd.Flags().Duration("poll", 200*time.Millisecond, "Longest a single read may wait (multiple of 100ms)")
	listenCmd.Flags().Int("buffer", 4096, "Read buffer size")
}

// pollOptions makes reads return after at most poll, even without data
func pollOptions(poll time.Duration) []serial.Option {
	return []serial.Option{serial.WithVMin(0), serial.WithReadTimeout(poll)}
}

func runListen(ctx context.Context, portPath string, poll time.Duration, bufferSize int, rawMode bool, formatter *components.DataFormatter) error {
	port, err := openPort(portPath, pollOptions(poll)...)
	if err != nil {
		return err
	}
	defer port.Close()

	cfg, err := port.GetConfig()
	if err != nil {
		return err
	}
	if !rawMode {
		fmt.Fprintln(os.Stderr, styles.SuccessStyle.Render("✓")+" Listening on "+portPath+styles.MutedStyle.Render(" ("+cfg.String()+")"))
		fmt.Fprintln(os.Stderr, styles.MutedStyle.Render("Press Ctrl+C to stop"))
	}

	var out io.Writer = os.Stdout
	total, err := pump(ctx, port, bufferSize, func(chunk []byte) error {
		if rawMode {
			_, err := out.Write(chunk)
			return err
		}
		_, err := fmt.Fprintln(out, formatter.FormatChunk(components.Chunk{Timestamp: time.Now(), Data: chunk}))
		return err
	})

	logger.Debug().Int64("bytes", total).Msg("listen finished")
	return err
}

// pump reads from r until ctx is cancelled and hands every non-empty chunk
// to sink. A read that times out empty just loops.
func pump(ctx context.Context, r io.Reader, bufferSize int, sink func([]byte) error) (int64, error) {
	if bufferSize <= 0 {
		bufferSize = 4096
	}
	buffer := make([]byte, bufferSize)
	var total int64

	for {
		if ctx.Err() != nil {
			return total, nil
		}

		n, err := r.Read(buffer)
		if n > 0 {
			total += int64(n)
			if serr := sink(buffer[:n]); serr != nil {
				return total, serr
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return total, nil
			}
			return total, fmt.Errorf("read error: %w", err)
		}
	}
}
