package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/outfitter-dev/waymark/internal/grammar"
)

const (
	colorRed    = "#FF6188"
	colorOrange = "#FC9867"
	colorYellow = "#FFD866"
	colorGreen  = "#A9DC76"
	colorCyan   = "#78DCE8"
	colorBlue   = "#AB9DF2"
	colorDim    = "#727072"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed)).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorOrange))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(colorDim))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorBlue))
	signalStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(colorYellow)).Bold(true)
)

// categoryStyles colors marker types by their blessed category.
var categoryStyles = map[string]lipgloss.Style{
	"work":     lipgloss.NewStyle().Foreground(lipgloss.Color(colorYellow)).Bold(true),
	"info":     lipgloss.NewStyle().Foreground(lipgloss.Color(colorCyan)).Bold(true),
	"caution":  lipgloss.NewStyle().Foreground(lipgloss.Color(colorOrange)).Bold(true),
	"workflow": lipgloss.NewStyle().Foreground(lipgloss.Color(colorBlue)).Bold(true),
	"inquiry":  lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen)).Bold(true),
}

var markerCategory = func() map[string]string {
	m := make(map[string]string)
	for _, mk := range grammar.Markers() {
		m[mk.Name] = mk.Category
	}
	return m
}()

func typeStyle(t string) lipgloss.Style {
	if name, ok := grammar.CanonicalMarker(t); ok {
		if s, ok := categoryStyles[markerCategory[name]]; ok {
			return s
		}
	}
	return lipgloss.NewStyle().Bold(true)
}
