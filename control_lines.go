package serial

import "golang.org/x/sys/unix"

// Modem control lines are not part of the byte stream. These helpers work
// on a raw descriptor, normally obtained from Port.GetFileDescriptor.

// ModemSignals represents modem control signal states
type ModemSignals struct {
	CTS bool // Clear To Send
	DSR bool // Data Set Ready
	RI  bool // Ring Indicator
	DCD bool // Data Carrier Detect
	RTS bool // Request To Send
	DTR bool // Data Terminal Ready
}

// ReadModemSignals returns the current state of all modem control signals
func ReadModemSignals(fd int) (ModemSignals, error) {
	status, err := unix.IoctlGetInt(fd, unix.TIOCMGET)
	if err != nil {
		return ModemSignals{}, err
	}
	return decodeModemStatus(status), nil
}

// SetRTS asserts (true) or deasserts (false) Request To Send
func SetRTS(fd int, state bool) error {
	return setModemBit(fd, unix.TIOCM_RTS, state)
}

// SetDTR asserts (true) or deasserts (false) Data Terminal Ready
func SetDTR(fd int, state bool) error {
	return setModemBit(fd, unix.TIOCM_DTR, state)
}

func setModemBit(fd int, bit int, state bool) error {
	if state {
		return unix.IoctlSetPointerInt(fd, unix.TIOCMBIS, bit)
	}
	return unix.IoctlSetPointerInt(fd, unix.TIOCMBIC, bit)
}

// decodeModemStatus converts TIOCMGET bits to ModemSignals
func decodeModemStatus(status int) ModemSignals {
	return ModemSignals{
		CTS: status&unix.TIOCM_CTS != 0,
		DSR: status&unix.TIOCM_DSR != 0,
		RI:  status&unix.TIOCM_RI != 0,
		DCD: status&unix.TIOCM_CAR != 0,
		RTS: status&unix.TIOCM_RTS != 0,
		DTR: status&unix.TIOCM_DTR != 0,
	}
}
