package serial

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// ttyDevice is the Device backed by a Linux tty node and termios ioctls.
type ttyDevice struct{}

// Ensure ttyDevice implements Device interface at compile time
var _ Device = ttyDevice{}

// SystemDevice returns the Device that talks to real tty device nodes.
func SystemDevice() Device {
	return ttyDevice{}
}

var baudCodes = []struct {
	rate BaudRate
	code uint32
}{
	{Baud50, unix.B50},
	{Baud75, unix.B75},
	{Baud110, unix.B110},
	{Baud134, unix.B134},
	{Baud150, unix.B150},
	{Baud200, unix.B200},
	{Baud300, unix.B300},
	{Baud600, unix.B600},
	{Baud1200, unix.B1200},
	{Baud1800, unix.B1800},
	{Baud2400, unix.B2400},
	{Baud4800, unix.B4800},
	{Baud9600, unix.B9600},
	{Baud19200, unix.B19200},
	{Baud38400, unix.B38400},
	{Baud57600, unix.B57600},
	{Baud115200, unix.B115200},
	{Baud230400, unix.B230400},
	{Baud460800, unix.B460800},
	{Baud500000, unix.B500000},
	{Baud576000, unix.B576000},
	{Baud921600, unix.B921600},
	{Baud1000000, unix.B1000000},
	{Baud1152000, unix.B1152000},
	{Baud1500000, unix.B1500000},
	{Baud2000000, unix.B2000000},
	{Baud2500000, unix.B2500000},
	{Baud3000000, unix.B3000000},
	{Baud3500000, unix.B3500000},
	{Baud4000000, unix.B4000000},
}

// getBaudRate converts a baud rate to the termios speed constant
func getBaudRate(rate BaudRate) (uint32, error) {
	for _, b := range baudCodes {
		if b.rate == rate {
			return b.code, nil
		}
	}
	return 0, ErrInvalidBaudRate
}

// baudRateFromCode converts a termios speed constant back to a baud rate
func baudRateFromCode(code uint32) (BaudRate, error) {
	for _, b := range baudCodes {
		if b.code == code {
			return b.rate, nil
		}
	}
	return 0, fmt.Errorf("%w: unrecognised termios speed 0x%x", ErrInvalidBaudRate, code)
}

func (ttyDevice) Open(name string, mode OpenMode) (int, error) {
	var flags int
	switch mode {
	case ModeRead:
		flags = unix.O_RDONLY
	case ModeWrite:
		flags = unix.O_WRONLY
	case ModeReadWrite:
		flags = unix.O_RDWR
	default:
		return -1, fmt.Errorf("%w: %s: invalid open mode %d", ErrOpen, name, int(mode))
	}

	// O_NONBLOCK keeps open from waiting on carrier detect; it is cleared
	// straight after so transfers are paced by VMIN/VTIME.
	fd, err := unix.Open(name, flags|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return -1, openError(name, err)
	}

	if err := initTTY(fd); err != nil {
		unix.Close(fd)
		return -1, openError(name, err)
	}

	return fd, nil
}

// initTTY takes exclusive access and puts the line into raw mode.
func initTTY(fd int) error {
	if err := unix.SetNonblock(fd, false); err != nil {
		return err
	}

	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}

	if err := unix.IoctlSetInt(fd, unix.TIOCEXCL, 0); err != nil {
		return err
	}

	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF | unix.IXANY
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag |= unix.CREAD | unix.CLOCAL

	return unix.IoctlSetTermios(fd, unix.TCSETS, termios)
}

// openError maps errno values onto the package's open failure causes
func openError(name string, err error) error {
	var cause error
	switch {
	case errors.Is(err, unix.ENOENT), errors.Is(err, unix.ENODEV), errors.Is(err, unix.ENXIO):
		cause = ErrDeviceNotFound
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		cause = ErrPermissionDenied
	case errors.Is(err, unix.EBUSY):
		cause = ErrDeviceInUse
	default:
		return fmt.Errorf("%w: %s: %w", ErrOpen, name, err)
	}
	return fmt.Errorf("%w: %s: %w (%v)", ErrOpen, name, cause, err)
}

func (ttyDevice) Close(fd int) error {
	// Release exclusive access before handing the node back.
	_ = unix.IoctlSetInt(fd, unix.TIOCNXCL, 0)
	return unix.Close(fd)
}

func (ttyDevice) Read(fd int, p []byte) (int, error) {
	for {
		n, err := unix.Read(fd, p)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			return 0, nil
		case err != nil:
			return 0, err
		}
		return n, nil
	}
}

func (ttyDevice) Write(fd int, p []byte) (int, error) {
	for {
		n, err := unix.Write(fd, p)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			return 0, nil
		case err != nil:
			return 0, err
		}
		return n, nil
	}
}

func (ttyDevice) Available(fd int) (int, error) {
	return unix.IoctlGetInt(fd, unix.TIOCINQ)
}

func (ttyDevice) Flush(fd int, q FlushQueue) error {
	var queue int
	switch q {
	case FlushInput:
		queue = unix.TCIFLUSH
	case FlushOutput:
		queue = unix.TCOFLUSH
	case FlushBoth:
		queue = unix.TCIOFLUSH
	default:
		return fmt.Errorf("invalid flush queue %d", int(q))
	}
	return unix.IoctlSetInt(fd, unix.TCFLSH, queue)
}

// Drain waits until all output written to the port has been transmitted
func (ttyDevice) Drain(fd int) error {
	return unix.IoctlSetInt(fd, unix.TCSBRK, 1)
}

func (ttyDevice) GetConfig(fd int) (Config, error) {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get termios: %w", err)
	}
	return decodeTermios(termios)
}

func (ttyDevice) SetConfig(fd int, cfg Config) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("failed to get termios: %w", err)
	}

	if err := encodeTermios(termios, cfg.Resolve()); err != nil {
		return err
	}

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("%w: failed to set termios: %w", ErrConfiguration, err)
	}
	return nil
}

// encodeTermios writes a resolved Config into termios flags
func encodeTermios(termios *unix.Termios, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	baudRate, err := getBaudRate(cfg.BaudRate)
	if err != nil {
		return err
	}
	termios.Cflag = (termios.Cflag &^ unix.CBAUD) | baudRate
	termios.Ispeed = baudRate
	termios.Ospeed = baudRate

	termios.Cflag &^= unix.CSIZE
	switch cfg.CharacterSize {
	case CharSize5:
		termios.Cflag |= unix.CS5
	case CharSize6:
		termios.Cflag |= unix.CS6
	case CharSize7:
		termios.Cflag |= unix.CS7
	default:
		termios.Cflag |= unix.CS8
	}

	termios.Cflag &^= unix.PARENB | unix.PARODD
	termios.Iflag &^= unix.INPCK
	switch cfg.Parity {
	case ParityOdd:
		termios.Cflag |= unix.PARENB | unix.PARODD
		termios.Iflag |= unix.INPCK
	case ParityEven:
		termios.Cflag |= unix.PARENB
		termios.Iflag |= unix.INPCK
	}

	switch cfg.StopBits {
	case StopBits2:
		termios.Cflag |= unix.CSTOPB
	case StopBits1Half:
		return fmt.Errorf("%w: 1.5 stop bits are not supported by termios", ErrConfiguration)
	default:
		termios.Cflag &^= unix.CSTOPB
	}

	termios.Cflag &^= unix.CRTSCTS
	termios.Iflag &^= unix.IXON | unix.IXOFF | unix.IXANY
	switch cfg.FlowControl {
	case FlowControlHardware:
		termios.Cflag |= unix.CRTSCTS
	case FlowControlSoftware:
		termios.Iflag |= unix.IXON | unix.IXOFF
	}

	termios.Cc[unix.VMIN] = uint8(cfg.VMin)
	termios.Cc[unix.VTIME] = uint8(cfg.VTime)
	return nil
}

// decodeTermios reads the active line settings out of termios flags
func decodeTermios(termios *unix.Termios) (Config, error) {
	baud, err := baudRateFromCode(termios.Cflag & unix.CBAUD)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		BaudRate:    baud,
		Parity:      ParityNone,
		StopBits:    StopBits1,
		FlowControl: FlowControlNone,
		VMin:        int(termios.Cc[unix.VMIN]),
		VTime:       int(termios.Cc[unix.VTIME]),
	}

	switch termios.Cflag & unix.CSIZE {
	case unix.CS5:
		cfg.CharacterSize = CharSize5
	case unix.CS6:
		cfg.CharacterSize = CharSize6
	case unix.CS7:
		cfg.CharacterSize = CharSize7
	default:
		cfg.CharacterSize = CharSize8
	}

	if termios.Cflag&unix.PARENB != 0 {
		if termios.Cflag&unix.PARODD != 0 {
			cfg.Parity = ParityOdd
		} else {
			cfg.Parity = ParityEven
		}
	}

	if termios.Cflag&unix.CSTOPB != 0 {
		cfg.StopBits = StopBits2
	}

	switch {
	case termios.Cflag&unix.CRTSCTS != 0:
		cfg.FlowControl = FlowControlHardware
	case termios.Iflag&(unix.IXON|unix.IXOFF) != 0:
		cfg.FlowControl = FlowControlSoftware
	}

	return cfg, nil
}
