package cmd

import (
	"context"
	"errors"
	"testing"
	"time"

	serial "github.com/allbin/go-serialstream"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loopbackPort(t *testing.T, opts ...serial.Option) (*serial.Port, *serial.Loopback) {
	t.Helper()
	dev := serial.NewLoopback()
	port := serial.NewPort(serial.WithDevice(dev))
	require.NoError(t, port.Open("loop", serial.ModeReadWrite, opts...))
	t.Cleanup(func() { port.Close() })
	return port, dev
}

func TestParseSignalState(t *testing.T) {
	for _, s := range []string{"high", "ON", "true", "1"} {
		got, err := parseSignalState(s)
		require.NoError(t, err)
		assert.True(t, got, s)
	}
	for _, s := range []string{"low", "Off", "false", "0"} {
		got, err := parseSignalState(s)
		require.NoError(t, err)
		assert.False(t, got, s)
	}
	_, err := parseSignalState("maybe")
	assert.Error(t, err)
}

func TestParseHexString(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"48656c6c6f", "Hello", false},
		{"0x41 0x42", "AB", false},
		{"0D 0A", "\r\n", false},
		{"414", "", true},
		{"4g", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseHexString(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterPorts(t *testing.T) {
	ports := []string{"/dev/ttyACM0", "/dev/ttyAMA0", "/dev/ttyS0", "/dev/ttySAC1", "/dev/ttyUSB0"}

	assert.Equal(t, ports, filterPorts(ports, ""))
	assert.Equal(t, ports, filterPorts(ports, "all"))
	assert.Equal(t, []string{"/dev/ttyACM0", "/dev/ttyUSB0"}, filterPorts(ports, "usb"))
	assert.Equal(t, []string{"/dev/ttyS0"}, filterPorts(ports, "standard"))
	assert.Equal(t, []string{"/dev/ttyAMA0"}, filterPorts(ports, "ARM"))
	assert.Empty(t, filterPorts(ports, "bogus"))
}

func TestGetPortType(t *testing.T) {
	assert.Equal(t, "USB Serial", getPortType("ttyUSB3"))
	assert.Equal(t, "Samsung Serial", getPortType("ttySAC0"))
	assert.Equal(t, "Standard Serial", getPortType("ttyS1"))
	assert.Equal(t, "Serial Port", getPortType("rfcomm0"))
}

func TestPortOptionsFromViper(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("baud", "9600")
	viper.Set("data-bits", "7")
	viper.Set("parity", "E")
	viper.Set("stop-bits", "2")
	viper.Set("flow-control", "rtscts")
	viper.Set("vmin", 0)
	viper.Set("vtime", 5)

	opts, err := portOptionsFromViper()
	require.NoError(t, err)

	port, _ := loopbackPort(t, opts...)
	got, err := port.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, serial.Config{
		BaudRate:      serial.Baud9600,
		CharacterSize: serial.CharSize7,
		Parity:        serial.ParityEven,
		StopBits:      serial.StopBits2,
		FlowControl:   serial.FlowControlHardware,
		VMin:          0,
		VTime:         5,
	}, got)
}

func TestPortOptionsFromViperDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("baud", "default")
	viper.Set("vmin", 1)

	opts, err := portOptionsFromViper()
	require.NoError(t, err)

	port, _ := loopbackPort(t, opts...)
	got, err := port.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, serial.BaselineConfig(), got)
}

func TestPortOptionsFromViperRejectsBadValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("parity", "mark")
	_, err := portOptionsFromViper()
	assert.ErrorIs(t, err, serial.ErrConfiguration)
}

func TestPumpDeliversChunksUntilCancelled(t *testing.T) {
	port, dev := loopbackPort(t, pollOptions(100*time.Millisecond)...)
	dev.Inject([]byte("hello"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []byte
	total, err := pump(ctx, port, 2, func(chunk []byte) error {
		got = append(got, chunk...)
		if len(got) >= 5 {
			cancel()
		}
		return nil
	})

	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Equal(t, "hello", string(got))
}

func TestPumpStopsOnSinkError(t *testing.T) {
	port, dev := loopbackPort(t, pollOptions(100*time.Millisecond)...)
	dev.Inject([]byte("x"))

	sinkErr := errors.New("disk full")
	_, err := pump(context.Background(), port, 16, func([]byte) error { return sinkErr })
	assert.ErrorIs(t, err, sinkErr)
}

func TestPumpReportsReadErrors(t *testing.T) {
	port, dev := loopbackPort(t, pollOptions(100*time.Millisecond)...)
	dev.ReadErr = errors.New("device unplugged")

	_, err := pump(context.Background(), port, 16, func([]byte) error { return nil })
	assert.ErrorIs(t, err, serial.ErrRead)
}

func TestFlushQueue(t *testing.T) {
	assert.Equal(t, serial.FlushInput, flushQueue(true, false))
	assert.Equal(t, serial.FlushOutput, flushQueue(false, true))
	assert.Equal(t, serial.FlushBoth, flushQueue(false, false))
}

func TestFlushPort(t *testing.T) {
	port, dev := loopbackPort(t, serial.WithVMin(0))
	dev.Inject([]byte("stale"))

	require.NoError(t, flushPort(port, serial.FlushOutput))
	assert.Equal(t, 5, dev.Pending())

	require.NoError(t, flushPort(port, serial.FlushInput))
	assert.Zero(t, dev.Pending())

	require.NoError(t, flushPort(port, serial.FlushBoth))
}

func TestProbePort(t *testing.T) {
	port, dev := loopbackPort(t, serial.WithVMin(0))

	pending, err := probePort(port, true)
	require.NoError(t, err)
	assert.False(t, pending)

	dev.Inject([]byte("Z!"))
	pending, err = probePort(port, true)
	require.NoError(t, err)
	assert.True(t, pending)

	c, err := port.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('Z'), c, "peeked byte must still be readable")
}

func TestWriteAll(t *testing.T) {
	port, dev := loopbackPort(t)
	dev.MaxTransfer = 3

	n, err := writeAll(port, []byte("0123456789"), true)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, 10, dev.Pending())

	dev.FailWritesAfter(4, errors.New("tx fault"))
	n, err = writeAll(port, []byte("abcdefgh"), false)
	assert.Equal(t, 4, n)
	assert.ErrorIs(t, err, serial.ErrWrite)
}

func TestSettingChanges(t *testing.T) {
	flags := configCmd.Flags()
	t.Cleanup(func() {
		for name, def := range map[string]string{"set-baud": "", "set-parity": "", "set-vtime": "0"} {
			flags.Set(name, def)
			flags.Lookup(name).Changed = false
		}
	})

	require.NoError(t, flags.Set("set-baud", "57600"))
	require.NoError(t, flags.Set("set-parity", "odd"))
	require.NoError(t, flags.Set("set-vtime", "12"))

	changes, err := settingChanges(configCmd)
	require.NoError(t, err)
	require.Len(t, changes, 3)

	port, _ := loopbackPort(t)
	for _, c := range changes {
		require.NoError(t, c.apply(port), c.name)
	}

	got, err := port.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, serial.Baud57600, got.BaudRate)
	assert.Equal(t, serial.ParityOdd, got.Parity)
	assert.Equal(t, 12, got.VTime)
	assert.Equal(t, serial.CharSize8, got.CharacterSize, "untouched settings keep their value")
}
