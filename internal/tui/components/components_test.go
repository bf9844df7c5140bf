package components

import (
	"strings"
	"testing"
	"time"
)

func TestPrintableASCII(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
	}{
		{[]byte("hello"), "hello"},
		{[]byte{0x1b, '[', '2', 'J'}, ".[2J"},
		{[]byte{0x00, 0x7f, 0xff, '~', ' '}, "...~ "},
		{nil, ""},
	}

	for _, tt := range tests {
		if got := PrintableASCII(tt.in); got != tt.want {
			t.Errorf("PrintableASCII(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatChunk(t *testing.T) {
	chunk := Chunk{
		Timestamp: time.Date(2025, 1, 2, 13, 4, 5, 6_000_000, time.UTC),
		Data:      []byte{0x41, 0x42, 0x0a},
	}

	tests := []struct {
		name     string
		mode     DisplayMode
		contains []string
		excludes []string
	}{
		{
			name:     "hex",
			mode:     DisplayMode{ShowHex: true},
			contains: []string{"HEX: 41 42 0A"},
			excludes: []string{"ASCII", "13:04:05"},
		},
		{
			name:     "ascii with timestamp",
			mode:     DisplayMode{ShowASCII: true, ShowTimestamps: true},
			contains: []string{"ASCII: AB.", "[13:04:05.006]"},
			excludes: []string{"HEX"},
		},
		{
			name:     "byte count fallback",
			mode:     DisplayMode{ShowIndicators: true},
			contains: []string{"BYTES: 3", "RX"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewDataFormatter(tt.mode).FormatChunk(chunk)
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("FormatChunk() = %q, missing %q", got, s)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("FormatChunk() = %q, should not contain %q", got, s)
				}
			}
		})
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(
		[]string{"Setting", "Value"},
		[][]string{
			{"Baud rate", "115200"},
			{"Parity", "none"},
		},
	)

	for _, s := range []string{"Setting", "Value", "Baud rate", "115200", "Parity", "none"} {
		if !strings.Contains(out, s) {
			t.Errorf("RenderTable output missing %q:\n%s", s, out)
		}
	}
}
