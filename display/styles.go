// Package display prints audit results to the terminal.
package display

import (
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/wyseguys/site-audit/ratings"
)

var (
	Primary = lipgloss.Color("#7D56F4")
	Muted   = lipgloss.Color("#6B7280")

	GoodColor = lipgloss.Color("#00D26A")
	OKColor   = lipgloss.Color("#FFB800")
	PoorColor = lipgloss.Color("#FF3838")

	// lighthouse uses the snyk severity names
	High   = lipgloss.Color("#FF6B6B")
	Medium = lipgloss.Color("#FFD93D")
	Low    = lipgloss.Color("#6BCB77")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(Primary).
			Padding(0, 1)

	SectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true).
			MarginTop(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(Muted)

	URLStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00D4AA")).
			Underline(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)
)

var (
	colorMu sync.Mutex
	noColor bool
)

// SetNoColor switches lipgloss to the ASCII profile so output carries no
// escape codes.
func SetNoColor(on bool) {
	colorMu.Lock()
	defer colorMu.Unlock()
	noColor = on
	if on {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// IsNoColor reports whether SetNoColor(true) was called.
func IsNoColor() bool {
	colorMu.Lock()
	defer colorMu.Unlock()
	return noColor
}

// ClassStyle colors a score by its rating class.
func ClassStyle(class string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch class {
	case ratings.Good:
		return base.Foreground(GoodColor)
	case ratings.OK:
		return base.Foreground(OKColor)
	case ratings.Poor:
		return base.Foreground(PoorColor)
	}
	return base.Foreground(Muted)
}

// SeverityStyle colors a vulnerable library by its highest severity.
func SeverityStyle(severity string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch strings.ToLower(severity) {
	case "high":
		return base.Foreground(High)
	case "medium":
		return base.Foreground(Medium)
	case "low":
		return base.Foreground(Low)
	}
	return base.Foreground(Muted)
}

// GradeStyle colors an observatory letter grade.
func GradeStyle(grade string) lipgloss.Style {
	switch {
	case strings.HasPrefix(grade, "A"), strings.HasPrefix(grade, "B"):
		return ClassStyle(ratings.Good)
	case strings.HasPrefix(grade, "C"):
		return ClassStyle(ratings.OK)
	}
	return ClassStyle(ratings.Poor)
}

// padRight pads s to width visible columns.
func padRight(s string, width int) string {
	pad := width - lipgloss.Width(s)
	if pad <= 0 {
		return s
	}
	return s + strings.Repeat(" ", pad)
}
