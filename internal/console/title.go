// Package console renders user-facing messages for the command line tools.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes styled blocks to an output stream. Colour is only emitted
// when the stream is a terminal.
type Printer struct {
	out        io.Writer
	titleStyle lipgloss.Style
	ruleStyle  lipgloss.Style
}

func NewPrinter(out io.Writer) *Printer {
	r := lipgloss.NewRenderer(out)
	return &Printer{
		out:        out,
		titleStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		ruleStyle:  r.NewStyle().Foreground(lipgloss.Color("214")),
	}
}

// Title prints msg underlined with '=' followed by a blank line.
func (p *Printer) Title(msg string) error {
	rule := strings.Repeat("=", lipgloss.Width(msg))
	_, err := fmt.Fprintf(p.out, "%s\n%s\n\n", p.titleStyle.Render(msg), p.ruleStyle.Render(rule))
	return err
}
