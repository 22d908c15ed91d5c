package pipeline

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Styles holds the renderers for run summaries.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Success lipgloss.Style
	Failure lipgloss.Style
	Dim     lipgloss.Style
}

// NewStyles returns coloured styles, or plain ones when color is false.
func NewStyles(color bool) *Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return &Styles{Title: plain, Label: plain, Value: plain, Success: plain, Failure: plain, Dim: plain}
	}
	return &Styles{
		Title:   lipgloss.NewStyle().Bold(true),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Value:   lipgloss.NewStyle().Bold(true),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Failure: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// ColorEnabled reports whether w is a terminal and NO_COLOR is unset.
func ColorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// RenderSummary formats run statistics for the terminal.
func RenderSummary(s Stats, errorLog string, styles *Styles) string {
	var b strings.Builder

	status := styles.Success.Render("done")
	if s.ObfuscateFailed > 0 || s.PairFailed > 0 {
		status = styles.Failure.Render("done with failures")
	}
	fmt.Fprintf(&b, "%s %s\n", styles.Title.Render("Conversion"), status)

	row := func(label, value string) {
		fmt.Fprintf(&b, "  %s %s\n", styles.Label.Render(padLabel(label)), value)
	}
	row("files", styles.Value.Render(fmt.Sprint(s.Files)))
	row("obfuscated", fmt.Sprintf("%s renamed, %d unchanged, %d skipped, %s",
		styles.Value.Render(fmt.Sprint(s.Renamed)), s.Unchanged, s.Skipped, failed(styles, s.ObfuscateFailed)))
	row("paired", fmt.Sprintf("%s written, %d skipped, %s",
		styles.Value.Render(fmt.Sprint(s.Paired)), s.PairSkipped, failed(styles, s.PairFailed)))
	row("renamed", fmt.Sprintf("%d methods, %d locals", s.Methods, s.Locals))
	row("took", styles.Dim.Render(s.Duration.Round(time.Millisecond).String()))
	if (s.ObfuscateFailed > 0 || s.PairFailed > 0) && errorLog != "" {
		row("errors", errorLog)
	}
	return b.String()
}

func failed(styles *Styles, n int) string {
	text := fmt.Sprintf("%d failed", n)
	if n == 0 {
		return text
	}
	return styles.Failure.Render(text)
}

func padLabel(label string) string {
	const width = 11
	if len(label) >= width {
		return label
	}
	return label + strings.Repeat(" ", width-len(label))
}
