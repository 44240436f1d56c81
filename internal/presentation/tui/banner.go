package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the gazette banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{`   ____                _   _       `, "#38bdf8"},
		{`  / ___| __ _ _______| |_| |_ ___ `, "#60a5fa"},
		{` | |  _ / _' |_  / _ \ __| __/ _ \`, "#818cf8"},
		{` | |_| | (_| |/ /  __/ |_| ||  __/`, "#a78bfa"},
		{`  \____|\__,_/___\___|\__|\__\___|`, "#c084fc"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  "+version).Faint())
	fmt.Fprintln(w)
}
