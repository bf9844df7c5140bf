/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	serial "github.com/allbin/go-serialstream"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	logger  = zerolog.Nop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "serialstream",
	Short: "Unbuffered byte stream access to serial ports",
	Long: `serialstream opens a serial device, applies line settings and moves
bytes through it without intermediate buffering.

Line settings come from flags, SERIALSTREAM_* environment variables and
$HOME/.serialstream.yaml, in that order of precedence. Settings that are not
given fall back to 115200 8N1 without flow control.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.serialstream.yaml)")
	pf.StringP("baud", "b", "default", "Baud rate (default: 115200)")
	pf.String("data-bits", "default", "Data bits: 5, 6, 7, 8 (default: 8)")
	pf.String("parity", "default", "Parity: none, odd, even (default: none)")
	pf.String("stop-bits", "default", "Stop bits: 1, 2 (default: 1)")
	pf.StringP("flow-control", "f", "default", "Flow control: none, hardware, software (default: none)")
	pf.Int("vmin", 1, "Minimum bytes per read, VMIN (0-255)")
	pf.Int("vtime", 0, "Read timeout in tenths of a second, VTIME (0-255)")
	pf.BoolP("verbose", "v", false, "Enable debug logging on stderr")

	for _, name := range []string{"baud", "data-bits", "parity", "stop-bits", "flow-control", "vmin", "vtime", "verbose"} {
		if err := viper.BindPFlag(name, pf.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".serialstream")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SERIALSTREAM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	level := zerolog.InfoLevel
	if viper.GetBool("verbose") {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().
		Timestamp().
		Logger()

	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug().Str("file", used).Msg("using config file")
	}
	return nil
}

// portOptionsFromViper converts the merged line settings into port options
func portOptionsFromViper() ([]serial.Option, error) {
	baud, err := serial.ParseBaudRate(viper.GetString("baud"))
	if err != nil {
		return nil, err
	}
	size, err := serial.ParseCharacterSize(viper.GetString("data-bits"))
	if err != nil {
		return nil, err
	}
	parity, err := serial.ParseParity(viper.GetString("parity"))
	if err != nil {
		return nil, err
	}
	stopBits, err := serial.ParseStopBits(viper.GetString("stop-bits"))
	if err != nil {
		return nil, err
	}
	flow, err := serial.ParseFlowControl(viper.GetString("flow-control"))
	if err != nil {
		return nil, err
	}

	return []serial.Option{
		serial.WithBaudRate(baud),
		serial.WithCharacterSize(size),
		serial.WithParity(parity),
		serial.WithStopBits(stopBits),
		serial.WithFlowControl(flow),
		serial.WithVMin(viper.GetInt("vmin")),
		serial.WithVTime(viper.GetInt("vtime")),
	}, nil
}

// openPort opens portPath read/write with the merged line settings; extra
// options are applied last and win over them.
func openPort(portPath string, extra ...serial.Option) (*serial.Port, error) {
	opts, err := portOptionsFromViper()
	if err != nil {
		return nil, err
	}

	port := serial.NewPort(serial.WithLogger(logger.With().Str("component", "port").Logger()))
	if err := port.Open(portPath, serial.ModeReadWrite, append(opts, extra...)...); err != nil {
		return nil, err
	}
	return port, nil
}
