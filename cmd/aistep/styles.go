package main

import "github.com/charmbracelet/lipgloss"

// Style palette for the run/doctor summaries, following the teacher's
// cmd/nerd/ui.Theme approach of naming semantic colors rather than
// scattering raw hex codes through command bodies.
var (
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935")).Bold(true)
	skipStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
	headStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
)
