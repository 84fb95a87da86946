package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Terminal colors
var (
	Brand  = color.New(color.FgHiBlue, color.Bold)
	Subtle = color.New(color.FgHiBlack)
	Warn   = color.New(color.FgYellow)
	Good   = color.New(color.FgGreen)
	Bad    = color.New(color.FgRed)
)

// printError writes err in red
func printError(w io.Writer, err error) {
	_, _ = Bad.Fprintf(w, "Error: %v\n", err)
}

// printIgnored warns about relationships dropped while building the graph
func printIgnored(w io.Writer, n int) {
	if n > 0 {
		_, _ = Warn.Fprintf(w, "%d relationships were ignored\n", n)
	}
}

func printDone(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, "%s %s\n", Good.Sprint("✓"), fmt.Sprintf(format, args...))
}
