package serial

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestDecodeModemStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected ModemSignals
	}{
		{
			name:     "No signals",
			status:   0,
			expected: ModemSignals{},
		},
		{
			name:     "CTS only",
			status:   unix.TIOCM_CTS,
			expected: ModemSignals{CTS: true},
		},
		{
			name:     "DCD maps from carrier",
			status:   unix.TIOCM_CAR,
			expected: ModemSignals{DCD: true},
		},
		{
			name:     "Outputs asserted",
			status:   unix.TIOCM_RTS | unix.TIOCM_DTR,
			expected: ModemSignals{RTS: true, DTR: true},
		},
		{
			name:   "All signals",
			status: unix.TIOCM_CTS | unix.TIOCM_DSR | unix.TIOCM_RI | unix.TIOCM_CAR | unix.TIOCM_RTS | unix.TIOCM_DTR,
			expected: ModemSignals{
				CTS: true, DSR: true, RI: true, DCD: true, RTS: true, DTR: true,
			},
		},
		{
			name:     "Unrelated bits ignored",
			status:   unix.TIOCM_LE | unix.TIOCM_ST | unix.TIOCM_SR,
			expected: ModemSignals{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := decodeModemStatus(tt.status)
			if result != tt.expected {
				t.Errorf("decodeModemStatus(0x%x) = %+v, want %+v", tt.status, result, tt.expected)
			}
		})
	}
}

func TestControlLinesOnInvalidDescriptor(t *testing.T) {
	if _, err := ReadModemSignals(-1); err == nil {
		t.Error("ReadModemSignals(-1) succeeded")
	}
	if err := SetRTS(-1, true); err == nil {
		t.Error("SetRTS(-1) succeeded")
	}
	if err := SetDTR(-1, false); err == nil {
		t.Error("SetDTR(-1) succeeded")
	}
}
