package ui

import "github.com/charmbracelet/lipgloss"

// Color palette shared by both CLIs.
var (
	// Brand colors
	Primary   = lipgloss.Color("#00B4D8") // Teal - brand color
	Secondary = lipgloss.Color("#90E0EF")

	// Status colors
	Success = lipgloss.Color("#00D26A")
	Warning = lipgloss.Color("#FFB800")
	Error   = lipgloss.Color("#FF3838")
	Muted   = lipgloss.Color("#6B7280")

	// Classification colors
	Vendor     = lipgloss.Color("#FF6B6B") // Security vendor - highlighted
	SelfHosted = lipgloss.Color("#6BCB77")
	Unknown    = lipgloss.Color("#FFD93D")
)

// Pre-configured styles
var (
	BannerStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	VersionStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	TargetStyle = lipgloss.NewStyle().
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(Secondary)

	VendorStyle = lipgloss.NewStyle().
			Foreground(Vendor).
			Bold(true)

	SelfHostedStyle = lipgloss.NewStyle().
			Foreground(SelfHosted)

	UnknownStyle = lipgloss.NewStyle().
			Foreground(Unknown)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error)

	SummaryStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)
)

// ClassStyle returns the style for a classification label: highlighted
// for known security vendors, green for self-hosted, yellow for unknown.
func ClassStyle(label string, vendor bool) lipgloss.Style {
	switch {
	case vendor:
		return VendorStyle
	case label == "self-hosted":
		return SelfHostedStyle
	case label == "unknown":
		return UnknownStyle
	default:
		return LabelStyle
	}
}
