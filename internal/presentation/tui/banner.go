package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{` _   _      _        _                   `, "#818cf8"},
	{`| |_(_) ___| | _____| |_ ___  _ __ _   _ `, "#a78bfa"},
	{`| __| |/ __| |/ / __| __/ _ \| '__| | | |`, "#c084fc"},
	{`| |_| | (__|   <\__ \ || (_) | |  | |_| |`, "#e879f9"},
	{` \__|_|\___|_|\_\___/\__\___/|_|   \__, |`, "#f472b6"},
	{`                                   |___/ `, "#fb7185"},
}

// PrintBanner writes the tickstory banner followed by the version.
// Colors degrade with the terminal profile of w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  "+version).Faint())
	fmt.Fprintln(w)
}

// SystemMessage writes a standardized system line, distinct from story answers.
func SystemMessage(w io.Writer, format string, args ...any) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w, out.String(">>> "+fmt.Sprintf(format, args...)).Foreground(out.ColorProfile().Color("#94a3b8")))
}

// ErrorMessage writes an error line in red.
func ErrorMessage(w io.Writer, err error) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w, out.String("!!! "+err.Error()).Foreground(out.ColorProfile().Color("#ef4444")))
}
