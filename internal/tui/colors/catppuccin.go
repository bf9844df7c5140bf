package colors

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha color palette, limited to the shades the CLI renders with
var (
	Surface0 = lipgloss.Color("#313244")
	Surface1 = lipgloss.Color("#45475a")
	Overlay0 = lipgloss.Color("#6c7086")
	Subtext0 = lipgloss.Color("#a6adc8")
	Text     = lipgloss.Color("#cdd6f4")

	Blue   = lipgloss.Color("#89b4fa")
	Sky    = lipgloss.Color("#89dceb")
	Green  = lipgloss.Color("#a6e3a1")
	Yellow = lipgloss.Color("#f9e2af")
	Peach  = lipgloss.Color("#fab387")
	Red    = lipgloss.Color("#f38ba8")
	Mauve  = lipgloss.Color("#cba6f7")
)

// Semantic aliases
var (
	Accent  = Mauve
	Success = Green
	Warning = Yellow
	Failure = Red
	Muted   = Overlay0
	RX      = Sky
	TX      = Peach
)
