// Package themes defines the visual styles available to the TUI.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Faint         lipgloss.Style
	SectionHeader lipgloss.Style
	Income        lipgloss.Style
	Expense       lipgloss.Style
	StatusError   lipgloss.Style
	StatusInfo    lipgloss.Style
	Banner        lipgloss.Style
	BorderedBox   lipgloss.Style
	Primary       lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
	Foreground    lipgloss.Color
	Error         lipgloss.Color
	Success       lipgloss.Color
}

// Default is the default dark theme.
var Default = Theme{
	Primary:    lipgloss.Color("#7c3aed"),
	Muted:      lipgloss.Color("#737373"),
	Border:     lipgloss.Color("#404040"),
	Foreground: lipgloss.Color("#fafafa"),
	Error:      lipgloss.Color("#ef4444"),
	Success:    lipgloss.Color("#10b981"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")),
	Bold: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Faint: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")),
	SectionHeader: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#a78bfa")),
	Income: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10b981")),
	Expense: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")),
	StatusError: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")).
		Bold(true),
	StatusInfo: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3b82f6")).
		Bold(true),
	Banner: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")).
		Background(lipgloss.Color("#7c3aed")).
		Padding(0, 1),
	BorderedBox: lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		Padding(1, 2),
}

// Light is a light-background variant.
var Light = Theme{
	Primary:    lipgloss.Color("#6d28d9"),
	Muted:      lipgloss.Color("#8a8a8a"),
	Border:     lipgloss.Color("#d4d4d4"),
	Foreground: lipgloss.Color("#171717"),
	Error:      lipgloss.Color("#dc2626"),
	Success:    lipgloss.Color("#059669"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#171717")),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#525252")),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#171717")),
	Bold: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#171717")),
	Faint: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#8a8a8a")),
	SectionHeader: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#6d28d9")),
	Income: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#059669")),
	Expense: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#dc2626")),
	StatusError: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#dc2626")).
		Bold(true),
	StatusInfo: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#2563eb")).
		Bold(true),
	Banner: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")).
		Background(lipgloss.Color("#6d28d9")).
		Padding(0, 1),
	BorderedBox: lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#d4d4d4")).
		Padding(1, 2),
}

// ByName resolves a stored theme preference. Unknown names fall back to the
// default theme.
func ByName(name string) Theme {
	switch name {
	case "light":
		return Light
	default:
		return Default
	}
}
