package tui

import (
	"fmt"
	"io"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/muesli/termenv"
)

// PrintOutcome writes a one-line coloured summary of a finished session.
func PrintOutcome(w io.Writer, source string, o domain.Outcome) {
	p := termenv.ColorProfile()
	if o.Succeeded() {
		mark := termenv.String("✔").Foreground(p.Color("#22c55e")).Bold()
		fmt.Fprintf(w, "%s %s  %s  %s\n", mark, o.SessionID, source, o.Headline)
		return
	}
	mark := termenv.String("✘").Foreground(p.Color("#ef4444")).Bold()
	fmt.Fprintf(w, "%s %s  %s  %s\n", mark, o.SessionID, source, o.Reason())
}

// Warn writes a highlighted warning line.
func Warn(w io.Writer, msg string) {
	p := termenv.ColorProfile()
	fmt.Fprintln(w, termenv.String("! "+msg).Foreground(p.Color("#eab308")))
}
