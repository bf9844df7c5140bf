package styles

import (
	"github.com/allbin/go-serialstream/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Header styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Accent).
			Background(colors.Surface0).
			Padding(0, 1)

	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Blue)

	// Outcome styles
	SuccessStyle = lipgloss.NewStyle().
			Foreground(colors.Success).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(colors.Warning).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(colors.Failure).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(colors.Accent).
			Bold(true)

	// Key/value listings
	LabelStyle = lipgloss.NewStyle().
			Foreground(colors.Subtext0).
			Width(16)

	ValueStyle = lipgloss.NewStyle().
			Foreground(colors.Text)

	MutedStyle = lipgloss.NewStyle().
			Foreground(colors.Muted)

	// Table styles
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colors.Accent).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(colors.Surface1).
				Padding(0, 1)

	TableCellStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

// SignalStyle colours a modem line state: asserted lines green, idle lines muted
func SignalStyle(asserted bool) lipgloss.Style {
	if asserted {
		return SuccessStyle
	}
	return MutedStyle
}
