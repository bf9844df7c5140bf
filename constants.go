package serial

import (
	"fmt"
	"strconv"
	"strings"
)

// BaudRate is a line speed in bits per second. BaudDefault selects the
// baseline rate when the configuration is applied.
type BaudRate int

const (
	BaudDefault BaudRate = 0
	Baud50      BaudRate = 50
	Baud75      BaudRate = 75
	Baud110     BaudRate = 110
	Baud134     BaudRate = 134
	Baud150     BaudRate = 150
	Baud200     BaudRate = 200
	Baud300     BaudRate = 300
	Baud600     BaudRate = 600
	Baud1200    BaudRate = 1200
	Baud1800    BaudRate = 1800
	Baud2400    BaudRate = 2400
	Baud4800    BaudRate = 4800
	Baud9600    BaudRate = 9600
	Baud19200   BaudRate = 19200
	Baud38400   BaudRate = 38400
	Baud57600   BaudRate = 57600
	Baud115200  BaudRate = 115200
	Baud230400  BaudRate = 230400
	Baud460800  BaudRate = 460800
	Baud500000  BaudRate = 500000
	Baud576000  BaudRate = 576000
	Baud921600  BaudRate = 921600
	Baud1000000 BaudRate = 1000000
	Baud1152000 BaudRate = 1152000
	Baud1500000 BaudRate = 1500000
	Baud2000000 BaudRate = 2000000
	Baud2500000 BaudRate = 2500000
	Baud3000000 BaudRate = 3000000
	Baud3500000 BaudRate = 3500000
	Baud4000000 BaudRate = 4000000
)

var standardBaudRates = map[BaudRate]struct{}{
	Baud50: {}, Baud75: {}, Baud110: {}, Baud134: {}, Baud150: {}, Baud200: {},
	Baud300: {}, Baud600: {}, Baud1200: {}, Baud1800: {}, Baud2400: {},
	Baud4800: {}, Baud9600: {}, Baud19200: {}, Baud38400: {}, Baud57600: {},
	Baud115200: {}, Baud230400: {}, Baud460800: {}, Baud500000: {},
	Baud576000: {}, Baud921600: {}, Baud1000000: {}, Baud1152000: {},
	Baud1500000: {}, Baud2000000: {}, Baud2500000: {}, Baud3000000: {},
	Baud3500000: {}, Baud4000000: {},
}

// IsValid reports whether b is a standard rate or BaudDefault.
func (b BaudRate) IsValid() bool {
	if b == BaudDefault {
		return true
	}
	_, ok := standardBaudRates[b]
	return ok
}

func (b BaudRate) String() string {
	if b == BaudDefault {
		return "default"
	}
	return strconv.Itoa(int(b))
}

// ParseBaudRate parses a decimal baud rate or "default".
func ParseBaudRate(s string) (BaudRate, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "default" {
		return BaudDefault, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBaudRate, s)
	}
	b := BaudRate(n)
	if !b.IsValid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidBaudRate, n)
	}
	return b, nil
}

// CharacterSize is the number of data bits per character.
type CharacterSize int

const (
	CharSizeDefault CharacterSize = 0
	CharSize5       CharacterSize = 5
	CharSize6       CharacterSize = 6
	CharSize7       CharacterSize = 7
	CharSize8       CharacterSize = 8
)

func (c CharacterSize) IsValid() bool {
	return c == CharSizeDefault || (c >= CharSize5 && c <= CharSize8)
}

func (c CharacterSize) String() string {
	if c == CharSizeDefault {
		return "default"
	}
	return strconv.Itoa(int(c))
}

// ParseCharacterSize parses 5 to 8 or "default".
func ParseCharacterSize(s string) (CharacterSize, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "default" {
		return CharSizeDefault, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || !CharacterSize(n).IsValid() || n == 0 {
		return 0, fmt.Errorf("%w: character size %q: must be between 5 and 8", ErrConfiguration, s)
	}
	return CharacterSize(n), nil
}

// Parity represents the parity mode
type Parity int

const (
	ParityDefault Parity = iota
	ParityNone
	ParityOdd
	ParityEven
)

func (p Parity) IsValid() bool {
	return p >= ParityDefault && p <= ParityEven
}

func (p Parity) String() string {
	switch p {
	case ParityDefault:
		return "default"
	case ParityNone:
		return "none"
	case ParityOdd:
		return "odd"
	case ParityEven:
		return "even"
	default:
		return fmt.Sprintf("Parity(%d)", int(p))
	}
}

// ParseParity accepts N/none, O/odd, E/even and "default".
func ParseParity(s string) (Parity, error) {
	switch strings.TrimSpace(strings.ToUpper(s)) {
	case "", "DEFAULT":
		return ParityDefault, nil
	case "N", "NONE":
		return ParityNone, nil
	case "O", "ODD":
		return ParityOdd, nil
	case "E", "EVEN":
		return ParityEven, nil
	default:
		return 0, fmt.Errorf("%w: unsupported parity %q: expected N, E, or O", ErrConfiguration, s)
	}
}

// StopBits represents the number of stop bits
type StopBits int

const (
	StopBitsDefault StopBits = iota
	StopBits1
	StopBits1Half
	StopBits2
)

func (s StopBits) IsValid() bool {
	return s >= StopBitsDefault && s <= StopBits2
}

func (s StopBits) String() string {
	switch s {
	case StopBitsDefault:
		return "default"
	case StopBits1:
		return "1"
	case StopBits1Half:
		return "1.5"
	case StopBits2:
		return "2"
	default:
		return fmt.Sprintf("StopBits(%d)", int(s))
	}
}

// ParseStopBits accepts 1, 1.5, 2 and "default".
func ParseStopBits(s string) (StopBits, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "", "default":
		return StopBitsDefault, nil
	case "1":
		return StopBits1, nil
	case "1.5":
		return StopBits1Half, nil
	case "2":
		return StopBits2, nil
	default:
		return 0, fmt.Errorf("%w: invalid stop bits %q: supported values are 1, 1.5 or 2", ErrConfiguration, s)
	}
}

// FlowControl represents the flow control mode
type FlowControl int

const (
	FlowControlDefault FlowControl = iota
	FlowControlNone
	FlowControlHardware // RTS/CTS
	FlowControlSoftware // XON/XOFF
)

func (f FlowControl) IsValid() bool {
	return f >= FlowControlDefault && f <= FlowControlSoftware
}

func (f FlowControl) String() string {
	switch f {
	case FlowControlDefault:
		return "default"
	case FlowControlNone:
		return "none"
	case FlowControlHardware:
		return "hardware"
	case FlowControlSoftware:
		return "software"
	default:
		return fmt.Sprintf("FlowControl(%d)", int(f))
	}
}

// ParseFlowControl accepts none, hardware (rtscts), software (xonxoff) and "default".
func ParseFlowControl(s string) (FlowControl, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "", "default":
		return FlowControlDefault, nil
	case "none", "off":
		return FlowControlNone, nil
	case "hardware", "hw", "rtscts":
		return FlowControlHardware, nil
	case "software", "sw", "xonxoff":
		return FlowControlSoftware, nil
	default:
		return 0, fmt.Errorf("%w: unsupported flow control %q: expected none, hardware or software", ErrConfiguration, s)
	}
}
