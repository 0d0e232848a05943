package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm shows a warning box for title and reads one line from in. It
// returns true only when the answer is "y" or "yes", case-insensitively.
// EOF or a read error counts as no.
func Confirm(in io.Reader, out io.Writer, title string, details ...Detail) bool {
	fmt.Fprintln(out, NewWarningResult(title, details...).Render())
	fmt.Fprintln(out)

	prompt := lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	fmt.Fprint(out, prompt.Render("Proceed? [y/N]: "))

	answer, err := bufio.NewReader(in).ReadString('\n')
	fmt.Fprintln(out)
	if err != nil && answer == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
