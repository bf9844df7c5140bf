package serial

import (
	"fmt"
	"time"
)

// MaxControlCharValue bounds VMIN and VTIME, which are single termios bytes.
const MaxControlCharValue = 255

// Config holds the negotiable line parameters of a serial port.
//
// Enum fields left at their zero value mean "default" and are resolved to
// the baseline when the configuration is applied. A Config returned by a
// Device or by Port.GetConfig never contains default sentinels.
type Config struct {
	BaudRate      BaudRate
	CharacterSize CharacterSize
	Parity        Parity
	StopBits      StopBits
	FlowControl   FlowControl
	VMin          int // minimum bytes for a non-canonical read (0-255)
	VTime         int // non-canonical read timeout in tenths of seconds (0-255)
}

// Option is a functional option for configuring a serial port
type Option func(*Config) error

// DefaultConfig returns a configuration that defers every line parameter
// to the baseline.
func DefaultConfig() Config {
	return Config{
		VMin:  1,
		VTime: 0,
	}
}

// BaselineConfig returns the known-good settings applied by
// SetDefaultSerialPortParameters: 115200 8N1, no flow control, VMIN=1, VTIME=0.
func BaselineConfig() Config {
	return Config{
		BaudRate:      Baud115200,
		CharacterSize: CharSize8,
		Parity:        ParityNone,
		StopBits:      StopBits1,
		FlowControl:   FlowControlNone,
		VMin:          1,
		VTime:         0,
	}
}

// Resolve replaces every default sentinel with its baseline value.
func (c Config) Resolve() Config {
	base := BaselineConfig()
	if c.BaudRate == BaudDefault {
		c.BaudRate = base.BaudRate
	}
	if c.CharacterSize == CharSizeDefault {
		c.CharacterSize = base.CharacterSize
	}
	if c.Parity == ParityDefault {
		c.Parity = base.Parity
	}
	if c.StopBits == StopBitsDefault {
		c.StopBits = base.StopBits
	}
	if c.FlowControl == FlowControlDefault {
		c.FlowControl = base.FlowControl
	}
	return c
}

// Validate checks that every field lies in its domain.
func (c Config) Validate() error {
	if !c.BaudRate.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidBaudRate, int(c.BaudRate))
	}
	if !c.CharacterSize.IsValid() {
		return fmt.Errorf("%w: character size %d", ErrConfiguration, int(c.CharacterSize))
	}
	if !c.Parity.IsValid() {
		return fmt.Errorf("%w: parity %d", ErrConfiguration, int(c.Parity))
	}
	if !c.StopBits.IsValid() {
		return fmt.Errorf("%w: stop bits %d", ErrConfiguration, int(c.StopBits))
	}
	if !c.FlowControl.IsValid() {
		return fmt.Errorf("%w: flow control %d", ErrConfiguration, int(c.FlowControl))
	}
	if err := validateControlChar("VMIN", c.VMin); err != nil {
		return err
	}
	return validateControlChar("VTIME", c.VTime)
}

func (c Config) String() string {
	return fmt.Sprintf("%s baud, %s data bits, parity %s, %s stop bits, flow control %s, VMIN=%d, VTIME=%d",
		c.BaudRate, c.CharacterSize, c.Parity, c.StopBits, c.FlowControl, c.VMin, c.VTime)
}

func validateControlChar(name string, v int) error {
	if v < 0 || v > MaxControlCharValue {
		return fmt.Errorf("%w: %s %d out of range [0,%d]", ErrConfiguration, name, v, MaxControlCharValue)
	}
	return nil
}

// WithBaudRate sets the baud rate
func WithBaudRate(rate BaudRate) Option {
	return func(c *Config) error {
		if !rate.IsValid() {
			return ErrInvalidBaudRate
		}
		c.BaudRate = rate
		return nil
	}
}

// WithCharacterSize sets the number of data bits (5, 6, 7, or 8)
func WithCharacterSize(size CharacterSize) Option {
	return func(c *Config) error {
		if !size.IsValid() {
			return fmt.Errorf("%w: character size %d", ErrConfiguration, int(size))
		}
		c.CharacterSize = size
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) Option {
	return func(c *Config) error {
		if !parity.IsValid() {
			return fmt.Errorf("%w: parity %d", ErrConfiguration, int(parity))
		}
		c.Parity = parity
		return nil
	}
}

// WithStopBits sets the number of stop bits
func WithStopBits(bits StopBits) Option {
	return func(c *Config) error {
		if !bits.IsValid() {
			return fmt.Errorf("%w: stop bits %d", ErrConfiguration, int(bits))
		}
		c.StopBits = bits
		return nil
	}
}

// WithFlowControl sets the flow control mode
func WithFlowControl(fc FlowControl) Option {
	return func(c *Config) error {
		if !fc.IsValid() {
			return fmt.Errorf("%w: flow control %d", ErrConfiguration, int(fc))
		}
		c.FlowControl = fc
		return nil
	}
}

// WithVMin sets the minimum character count for non-canonical reads (0-255)
func WithVMin(vmin int) Option {
	return func(c *Config) error {
		if err := validateControlChar("VMIN", vmin); err != nil {
			return err
		}
		c.VMin = vmin
		return nil
	}
}

// WithVTime sets the non-canonical read timeout in tenths of seconds (0-255)
func WithVTime(vtime int) Option {
	return func(c *Config) error {
		if err := validateControlChar("VTIME", vtime); err != nil {
			return err
		}
		c.VTime = vtime
		return nil
	}
}

// WithReadTimeout sets VTIME from a duration. The duration must be a
// multiple of 100ms between 0 and 25.5s.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout < 0 || timeout%(100*time.Millisecond) != 0 {
			return fmt.Errorf("%w: read timeout %v must be a non-negative multiple of 100ms", ErrConfiguration, timeout)
		}
		tenths := int(timeout / (100 * time.Millisecond))
		if err := validateControlChar("VTIME", tenths); err != nil {
			return err
		}
		c.VTime = tenths
		return nil
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		*c = cfg
		return nil
	}
}
