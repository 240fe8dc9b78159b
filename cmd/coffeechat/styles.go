package main

import "github.com/charmbracelet/lipgloss"

var (
	colorCream  = lipgloss.Color("#F5E9D9")
	colorCoffee = lipgloss.Color("#8B5E3C")
	colorGreen  = lipgloss.Color("#00AF5F")
	colorRed    = lipgloss.Color("#FF5F5F")
	colorGray   = lipgloss.Color("#666666")
	colorYellow = lipgloss.Color("#FFD700")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCream).
			Background(colorCoffee).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorGray).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCream)

	userStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	recordingStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	idleStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	totalStyle = lipgloss.NewStyle().
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	footerDescStyle = lipgloss.NewStyle().
			Foreground(colorGray)
)
