// Package ui holds the terminal styling helpers of the drift CLI.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette — muted, dark-terminal friendly.
var (
	purple = lipgloss.Color("99")
	green  = lipgloss.Color("76")
	red    = lipgloss.Color("204")
	yellow = lipgloss.Color("214")
	dim    = lipgloss.Color("243")
)

var (
	AccentStyle  = lipgloss.NewStyle().Foreground(purple)
	SuccessStyle = lipgloss.NewStyle().Foreground(green)
	ErrorStyle   = lipgloss.NewStyle().Foreground(red)
	WarnStyle    = lipgloss.NewStyle().Foreground(yellow)
	LabelStyle   = lipgloss.NewStyle().Foreground(dim)
)

// Configure sets the color profile from the terminal, dropping to plain
// ASCII for pipes, dumb terminals and CI.
func Configure() {
	if isPlainOutput() {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.ColorProfile())
}

func isPlainOutput() bool {
	if strings.EqualFold(strings.TrimSpace(os.Getenv("TERM")), "dumb") {
		return true
	}
	if os.Getenv("CI") != "" {
		return true
	}
	info, err := os.Stdout.Stat()
	if err != nil {
		return true
	}
	return (info.Mode() & os.ModeCharDevice) == 0
}

func Bool(v bool) string {
	if v {
		return SuccessStyle.Render("true")
	}
	return ErrorStyle.Render("false")
}

func Health(healthy bool) string {
	if healthy {
		return SuccessStyle.Render("healthy")
	}
	return ErrorStyle.Render("unhealthy")
}

// Pair holds a key-value pair for KeyValues output.
type Pair struct {
	key   string
	value string
}

func KV(key, value string) Pair {
	return Pair{key: key, value: value}
}

// KeyValues renders aligned "key:  value" lines with a trailing
// newline.
func KeyValues(indent string, pairs ...Pair) string {
	maxLen := 0
	for _, p := range pairs {
		if len(p.key) > maxLen {
			maxLen = len(p.key)
		}
	}

	var sb strings.Builder
	for _, p := range pairs {
		label := fmt.Sprintf("%-*s", maxLen+1, p.key+":")
		sb.WriteString(indent + LabelStyle.Render(label) + " " + p.value + "\n")
	}
	return sb.String()
}
