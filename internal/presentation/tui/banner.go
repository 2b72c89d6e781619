package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the ASCII art banner and version to w, colored when w is a
// terminal that supports it.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	// Gradient from indigo to rose.
	lines := []struct{ text, color string }{
		{"             _                   _       ", "#818cf8"},
		{"   ___ _ __ | |_ _ __ ___  _ __ (_) __ _ ", "#a78bfa"},
		{"  / _ \\ '_ \\| __| '__/ _ \\| '_ \\| |/ _` |", "#c084fc"},
		{" |  __/ | | | |_| | | (_) | |_) | | (_| |", "#e879f9"},
		{"  \\___|_| |_|\\__|_|  \\___/| .__/|_|\\__,_|", "#f472b6"},
		{"                          |_|            ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  "+version).Faint())
	fmt.Fprintln(w)
}
