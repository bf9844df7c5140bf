package serial

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestGetBaudRate(t *testing.T) {
	tests := []struct {
		name     string
		baudRate BaudRate
		expected uint32
		wantErr  bool
	}{
		{"9600", Baud9600, unix.B9600, false},
		{"115200", Baud115200, unix.B115200, false},
		{"4000000", Baud4000000, unix.B4000000, false},
		{"default is not a speed", BaudDefault, 0, true},
		{"invalid", BaudRate(12345), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := getBaudRate(tt.baudRate)
			if (err != nil) != tt.wantErr {
				t.Fatalf("getBaudRate(%d) error = %v, wantErr %v", tt.baudRate, err, tt.wantErr)
			}
			if err == nil && result != tt.expected {
				t.Errorf("getBaudRate(%d) = 0x%x, want 0x%x", tt.baudRate, result, tt.expected)
			}
		})
	}
}

func TestBaudCodesRoundTrip(t *testing.T) {
	for _, b := range baudCodes {
		got, err := baudRateFromCode(b.code)
		if err != nil {
			t.Fatalf("baudRateFromCode(0x%x): %v", b.code, err)
		}
		if got != b.rate {
			t.Errorf("baudRateFromCode(0x%x) = %v, want %v", b.code, got, b.rate)
		}
		if !b.rate.IsValid() {
			t.Errorf("%v has a termios code but is not a valid BaudRate", b.rate)
		}
	}
}

func TestTermiosEncodeDecode(t *testing.T) {
	configs := []Config{
		BaselineConfig(),
		{Baud9600, CharSize7, ParityEven, StopBits2, FlowControlNone, 0, 5},
		{Baud300, CharSize5, ParityOdd, StopBits1, FlowControlHardware, 255, 0},
		{Baud921600, CharSize6, ParityNone, StopBits2, FlowControlSoftware, 4, 255},
	}

	for _, cfg := range configs {
		t.Run(cfg.String(), func(t *testing.T) {
			var termios unix.Termios
			require.NoError(t, encodeTermios(&termios, cfg))

			got, err := decodeTermios(&termios)
			require.NoError(t, err)
			if diff := cmp.Diff(cfg, got); diff != "" {
				t.Errorf("decode mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTermiosEncodeClearsPreviousFlags(t *testing.T) {
	var termios unix.Termios
	require.NoError(t, encodeTermios(&termios, Config{
		BaudRate: Baud4800, CharacterSize: CharSize5, Parity: ParityOdd,
		StopBits: StopBits2, FlowControl: FlowControlSoftware, VMin: 1,
	}))
	require.NoError(t, encodeTermios(&termios, BaselineConfig()))

	assert.Zero(t, termios.Cflag&(unix.PARENB|unix.PARODD|unix.CSTOPB|unix.CRTSCTS))
	assert.Zero(t, termios.Iflag&(unix.IXON|unix.IXOFF|unix.INPCK))
	assert.Equal(t, uint32(unix.CS8), termios.Cflag&unix.CSIZE)
	assert.Equal(t, uint32(unix.B115200), termios.Cflag&unix.CBAUD)
}

func TestTermiosRejectsOneAndHalfStopBits(t *testing.T) {
	cfg := BaselineConfig()
	cfg.StopBits = StopBits1Half

	var termios unix.Termios
	err := encodeTermios(&termios, cfg)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestOpenError(t *testing.T) {
	tests := []struct {
		errno unix.Errno
		cause error
	}{
		{unix.ENOENT, ErrDeviceNotFound},
		{unix.ENXIO, ErrDeviceNotFound},
		{unix.EACCES, ErrPermissionDenied},
		{unix.EBUSY, ErrDeviceInUse},
	}

	for _, tt := range tests {
		t.Run(tt.errno.Error(), func(t *testing.T) {
			err := openError("/dev/ttyX", tt.errno)
			assert.ErrorIs(t, err, ErrOpen)
			assert.ErrorIs(t, err, tt.cause)
		})
	}

	err := openError("/dev/ttyX", unix.EIO)
	assert.ErrorIs(t, err, ErrOpen)
	assert.ErrorIs(t, err, unix.EIO)
}

// openPTY returns the controlling side of a pseudo-terminal pair and the
// path of its tty end, which behaves like a serial device node.
func openPTY(t *testing.T) (*os.File, string) {
	t.Helper()
	master, slave, err := pty.Open()
	if err != nil {
		t.Skipf("pseudo-terminals unavailable: %v", err)
	}
	t.Cleanup(func() {
		slave.Close()
		master.Close()
	})
	return master, slave.Name()
}

// readAtLeast keeps reading until n bytes arrived or the deadline passes.
func readAtLeast(t *testing.T, r io.Reader, n int, deadline time.Duration) []byte {
	t.Helper()
	var got []byte
	buf := make([]byte, 64)
	stop := time.Now().Add(deadline)
	for len(got) < n && time.Now().Before(stop) {
		m, err := r.Read(buf)
		require.NoError(t, err)
		got = append(got, buf[:m]...)
	}
	return got
}

func TestSystemDeviceOverPTY(t *testing.T) {
	master, name := openPTY(t)

	p := NewPort()
	require.NoError(t, p.Open(name, ModeReadWrite, WithBaudRate(Baud9600), WithVMin(0), WithVTime(1)))
	defer p.Close()

	assert.True(t, p.IsOpen())
	assert.Equal(t, name, p.Name())
	assert.GreaterOrEqual(t, p.GetFileDescriptor(), 0)

	t.Run("write reaches remote end", func(t *testing.T) {
		n, err := p.Write([]byte("ping"))
		require.NoError(t, err)
		require.Equal(t, 4, n)
		require.NoError(t, p.Drain())

		got := make([]byte, 4)
		_, err = io.ReadFull(master, got)
		require.NoError(t, err)
		assert.Equal(t, "ping", string(got))
	})

	t.Run("remote data is readable", func(t *testing.T) {
		_, err := master.Write([]byte("pong\r\n"))
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			ok, err := p.IsDataAvailable()
			return err == nil && ok
		}, 2*time.Second, 10*time.Millisecond)

		got := readAtLeast(t, p, 6, 2*time.Second)
		assert.Equal(t, "pong\r\n", string(got), "raw mode must not translate line endings")
	})

	t.Run("peek and putback", func(t *testing.T) {
		_, err := master.Write([]byte("Q"))
		require.NoError(t, err)

		var c byte
		require.Eventually(t, func() bool {
			c, err = p.PeekByte()
			return err == nil
		}, 2*time.Second, 10*time.Millisecond)
		assert.Equal(t, byte('Q'), c)

		c, err = p.ReadByte()
		require.NoError(t, err)
		assert.Equal(t, byte('Q'), c)
		require.NoError(t, p.PutBack(c))
		assert.ErrorIs(t, p.PutBack(c), ErrPutback)

		c, err = p.ReadByte()
		require.NoError(t, err)
		assert.Equal(t, byte('Q'), c)
	})

	t.Run("read times out empty", func(t *testing.T) {
		start := time.Now()
		n, err := p.Read(make([]byte, 8))
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("flush", func(t *testing.T) {
		assert.NoError(t, p.FlushIOBuffers())
		assert.NoError(t, p.FlushOutputBuffer())
		assert.NoError(t, p.FlushInputBuffer())
	})
}

func TestSystemDeviceConfigurationOverPTY(t *testing.T) {
	_, name := openPTY(t)

	p := NewPort()
	require.NoError(t, p.Open(name, ModeReadWrite, WithBaudRate(Baud19200), WithVMin(0), WithVTime(3)))
	defer p.Close()

	got, err := p.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, Baud19200, got.BaudRate)
	assert.Equal(t, 0, got.VMin)
	assert.Equal(t, 3, got.VTime)

	// Pseudo-terminals force 8 data bits without parity, so only the
	// fields they preserve are exercised here.
	require.NoError(t, p.SetBaudRate(Baud57600))
	require.NoError(t, p.SetNumberOfStopBits(StopBits2))
	require.NoError(t, p.SetFlowControl(FlowControlSoftware))
	require.NoError(t, p.SetVTime(7))

	rate, err := p.GetBaudRate()
	require.NoError(t, err)
	assert.Equal(t, Baud57600, rate)

	bits, err := p.GetNumberOfStopBits()
	require.NoError(t, err)
	assert.Equal(t, StopBits2, bits)

	fc, err := p.GetFlowControl()
	require.NoError(t, err)
	assert.Equal(t, FlowControlSoftware, fc)

	vtime, err := p.GetVTime()
	require.NoError(t, err)
	assert.Equal(t, 7, vtime)

	require.NoError(t, p.SetDefaultSerialPortParameters())
	got, err = p.GetConfig()
	require.NoError(t, err)
	if diff := cmp.Diff(BaselineConfig(), got); diff != "" {
		t.Errorf("baseline mismatch (-want +got):\n%s", diff)
	}

	err = p.SetNumberOfStopBits(StopBits1Half)
	assert.ErrorIs(t, err, ErrConfiguration)
	bits, err = p.GetNumberOfStopBits()
	require.NoError(t, err)
	assert.Equal(t, StopBits1, bits, "rejected setting must not reach the device")
}

func TestZeroValuePortOpensSystemDevice(t *testing.T) {
	master, name := openPTY(t)

	var p Port
	require.NoError(t, p.Open(name, ModeReadWrite, WithVMin(0), WithVTime(1)))
	defer p.Close()

	assert.True(t, p.IsOpen())
	n, err := p.Write([]byte("zero"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "zero", string(readAtLeast(t, master, 4, 2*time.Second)))

	require.NoError(t, p.Close())
	assert.False(t, p.IsOpen())
}

func TestResetRecoversUndecodableSpeed(t *testing.T) {
	_, name := openPTY(t)

	p := NewPort()
	require.NoError(t, p.Open(name, ModeReadWrite, WithBaudRate(Baud9600)))
	defer p.Close()

	fd := p.GetFileDescriptor()
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	require.NoError(t, err)
	termios.Cflag &^= unix.CBAUD
	termios.Cflag |= unix.B0
	termios.Ispeed = unix.B0
	termios.Ospeed = unix.B0
	require.NoError(t, unix.IoctlSetTermios(fd, unix.TCSETS, termios))

	_, err = p.GetBaudRate()
	require.ErrorIs(t, err, ErrConfiguration)

	require.NoError(t, p.SetDefaultSerialPortParameters())

	got, err := p.GetConfig()
	require.NoError(t, err)
	if diff := cmp.Diff(BaselineConfig(), got); diff != "" {
		t.Errorf("baseline mismatch (-want +got):\n%s", diff)
	}
}

func TestSystemDeviceExclusiveOpen(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("TIOCEXCL does not apply to privileged processes")
	}
	_, name := openPTY(t)

	first, err := Open(name)
	require.NoError(t, err)
	defer first.Close()

	_, err = Open(name)
	assert.ErrorIs(t, err, ErrOpen)
	assert.ErrorIs(t, err, ErrDeviceInUse)

	require.NoError(t, first.Close())
	again, err := Open(name)
	require.NoError(t, err, "close must release exclusive access")
	again.Close()
}

func TestSystemDeviceOpenFailures(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "ttyMISSING0"))
	assert.ErrorIs(t, err, ErrOpen)
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	if _, statErr := os.Stat("/dev/null"); statErr == nil {
		_, err = Open("/dev/null")
		assert.ErrorIs(t, err, ErrOpen, "a non-tty node cannot be configured")
		assert.True(t, errors.Is(err, unix.ENOTTY) || errors.Is(err, unix.EINVAL), "got %v", err)
	}

	p := NewPort()
	err = p.Open("/dev/ttyS0", OpenMode(0))
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, p.IsOpen())
}
