package ui

import "github.com/charmbracelet/lipgloss"

var (
	ColorAccent  = lipgloss.Color("#00CC88")
	ColorText    = lipgloss.Color("#DDDDDD")
	ColorDim     = lipgloss.Color("#777777")
	ColorBar     = lipgloss.Color("#1E2A24")
	ColorCursor  = lipgloss.Color("#223A30")
	ColorError   = lipgloss.Color("#FF5533")
	ColorWarning = lipgloss.Color("#FFAA00")
)

var (
	StyleTitle = lipgloss.NewStyle().
			Background(ColorBar).
			Foreground(ColorAccent).
			Bold(true).
			Padding(0, 1)

	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorDim).
			Bold(true)

	StyleCode = lipgloss.NewStyle().
			Foreground(ColorText)

	StyleTime = lipgloss.NewStyle().
			Foreground(ColorDim)

	StyleCursorLine = lipgloss.NewStyle().
			Background(ColorCursor)

	StyleCheckOn = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	StyleCheckOff = lipgloss.NewStyle().
			Foreground(ColorDim)

	StyleStatusBar = lipgloss.NewStyle().
			Background(ColorBar).
			Foreground(ColorText).
			Padding(0, 1)

	StyleStatusOK = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	StyleStatusErr = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StyleConfirm = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorDim)

	StyleAccepted = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	StyleRejected = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)
)
