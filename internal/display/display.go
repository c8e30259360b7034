// Package display renders styled terminal output for project and extension
// listings.
package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/pm-labs/pm/internal/config"
	"github.com/pm-labs/pm/internal/extension"
)

var (
	nameStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	tagStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Success prints a confirmation line.
func Success(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, successStyle.Render("✓")+" "+fmt.Sprintf(format, args...))
}

// Error prints an error line.
func Error(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, errorStyle.Render("error:")+" "+fmt.Sprintf(format, args...))
}

// Warn prints a warning line.
func Warn(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, warnStyle.Render("warning:")+" "+fmt.Sprintf(format, args...))
}

// ProjectList renders tracked projects, one per line.
func ProjectList(w io.Writer, projects []*config.ProjectEntry) {
	if len(projects) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no projects tracked"))
		return
	}
	for _, p := range projects {
		line := nameStyle.Render(padRight(p.Name, 20)) + " " + pathStyle.Render(p.Path)
		if len(p.Tags) > 0 {
			line += " " + tagStyle.Render("["+strings.Join(p.Tags, ", ")+"]")
		}
		line += " " + dimStyle.Render(relativeTime(p.UpdatedAt))
		fmt.Fprintln(w, line)
	}
}

// ExtensionList renders installed extensions with their versions.
func ExtensionList(w io.Writer, exts []*extension.Installed) {
	if len(exts) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no extensions installed"))
		return
	}
	for _, e := range exts {
		fmt.Fprintln(w, nameStyle.Render(padRight(e.Name, 20))+" "+
			e.Manifest.Version+"  "+dimStyle.Render(e.Manifest.Description))
	}
}

// ExtensionInfo renders one extension's manifest in full.
func ExtensionInfo(w io.Writer, e *extension.Installed) {
	fmt.Fprintln(w, nameStyle.Render(e.Name)+" "+e.Manifest.Version)
	if e.Manifest.Description != "" {
		fmt.Fprintln(w, e.Manifest.Description)
	}
	if e.Manifest.Author != "" {
		fmt.Fprintln(w, dimStyle.Render("author: "+e.Manifest.Author))
	}
	fmt.Fprintln(w, dimStyle.Render("binary: "+e.BinaryPath))
	for _, c := range e.Manifest.Commands {
		line := "  " + padRight(c.Name, 14) + c.Help
		if len(c.Aliases) > 0 {
			line += dimStyle.Render(" (" + strings.Join(c.Aliases, ", ") + ")")
		}
		fmt.Fprintln(w, line)
	}
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
