package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// stdout receives all human-readable command output. Tests swap it.
var stdout io.Writer = os.Stdout

// Palette, in ANSI 256 colors.
var (
	colorAccent = lipgloss.Color("36")
	colorOK     = lipgloss.Color("35")
	colorWarn   = lipgloss.Color("220")
	colorLink   = lipgloss.Color("75")
	colorBright = lipgloss.Color("255")
	colorLabel  = lipgloss.Color("245")
	colorFaint  = lipgloss.Color("240")
)

// Styles shared by the commands.
var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	StyleLink    = lipgloss.NewStyle().Foreground(colorLink).Underline(true)
	StyleDim     = lipgloss.NewStyle().Foreground(colorFaint)
	StyleValue   = lipgloss.NewStyle().Foreground(colorBright)
	StyleNumber  = lipgloss.NewStyle().Foreground(colorAccent)
	StyleWarning = lipgloss.NewStyle().Foreground(colorWarn)

	styleLabel       = lipgloss.NewStyle().Foreground(colorLabel).Width(12)
	styleFallback    = lipgloss.NewStyle().Foreground(colorWarn)
	styleCommand     = lipgloss.NewStyle().Foreground(colorLink)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorAccent)
)

// Status line prefixes.
var (
	iconSuccess = lipgloss.NewStyle().Foreground(colorOK).Render("✓")
	iconWarning = lipgloss.NewStyle().Foreground(colorWarn).Render("!")
	iconInfo    = lipgloss.NewStyle().Foreground(colorLabel).Render("›")
	iconArrow   = StyleDim.Render("→")
)

func status(icon, text string) {
	fmt.Fprintln(stdout, icon+" "+text)
}

func printSuccess(format string, args ...any) { status(iconSuccess, fmt.Sprintf(format, args...)) }
func printInfo(format string, args ...any)    { status(iconInfo, fmt.Sprintf(format, args...)) }

func printWarning(format string, args ...any) {
	status(iconWarning, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented, dimmed line under the previous status.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints the path of a written file.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+iconArrow+" "+StyleValue.Render(path))
}

// printKeyValue prints a label padded to a fixed column and its value.
func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleLabel.Render(key)+" "+StyleValue.Render(value))
}

// printSection prints a heading preceded by a blank line.
func printSection(title string) {
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, StyleTitle.Render(title))
}

// printStats prints "N mods · M unresolved · 1.2s", omitting the middle
// part when every item resolved.
func printStats(itemCount, fallbackCount int, took time.Duration) {
	parts := []string{StyleDim.Render(fmt.Sprintf("%d mods", itemCount))}
	if fallbackCount > 0 {
		parts = append(parts, styleFallback.Render(fmt.Sprintf("%d unresolved", fallbackCount)))
	}
	parts = append(parts, StyleDim.Render(took.Round(time.Millisecond).String()))
	fmt.Fprintln(stdout, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}
