package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/allbin/go-serialstream/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

// Chunk is one batch of bytes moved by a single Read or Write call
type Chunk struct {
	Timestamp time.Time
	Data      []byte
	IsTX      bool
}

type DisplayMode struct {
	ShowHex        bool
	ShowASCII      bool
	ShowTimestamps bool
	ShowIndicators bool
}

type DataFormatter struct {
	mode DisplayMode
}

func NewDataFormatter(mode DisplayMode) *DataFormatter {
	return &DataFormatter{mode: mode}
}

func (df *DataFormatter) GetDisplayMode() DisplayMode {
	return df.mode
}

func (df *DataFormatter) FormatChunk(c Chunk) string {
	var prefix []string

	if df.mode.ShowTimestamps {
		prefix = append(prefix, lipgloss.NewStyle().
			Foreground(colors.Subtext0).
			Render(fmt.Sprintf("[%s]", c.Timestamp.Format("15:04:05.000"))))
	}

	if df.mode.ShowIndicators {
		if c.IsTX {
			prefix = append(prefix, lipgloss.NewStyle().Foreground(colors.TX).Bold(true).Render("↗ TX"))
		} else {
			prefix = append(prefix, lipgloss.NewStyle().Foreground(colors.RX).Bold(true).Render("↙ RX"))
		}
	}

	var parts []string

	if df.mode.ShowHex {
		parts = append(parts, fmt.Sprintf("HEX: % X", c.Data))
	}

	if df.mode.ShowASCII {
		parts = append(parts, fmt.Sprintf("ASCII: %s", PrintableASCII(c.Data)))
	}

	// If both are disabled, show raw bytes count
	if !df.mode.ShowHex && !df.mode.ShowASCII {
		parts = append(parts, fmt.Sprintf("BYTES: %d", len(c.Data)))
	}

	body := strings.Join(parts, "  ")
	if len(prefix) == 0 {
		return body
	}
	return strings.Join(prefix, " ") + ": " + body
}

// PrintableASCII replaces every byte outside 0x20-0x7E with a dot so the
// result never carries terminal control sequences.
func PrintableASCII(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		if c >= 32 && c <= 126 {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}
