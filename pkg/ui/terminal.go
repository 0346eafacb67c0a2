package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
	"walldl/internal/downloader"
)

// Output is where all ui output goes
var Output io.Writer = os.Stdout

// colorEnabled is decided once; ANSI codes are dropped when stdout is not
// a terminal.
var colorEnabled = term.IsTerminal(int(os.Stdout.Fd()))

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// SetColor forces colours on or off
func SetColor(enabled bool) {
	colorEnabled = enabled
}

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if !colorEnabled {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Output, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Output, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(Output, Green(msg))
}

// PrintInfo prints an info message in cyan
func PrintInfo(label string, value string) {
	fmt.Fprintf(Output, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Output, Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Output, Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	fmt.Fprintln(Output, Magenta(msg))
}

// PrintSummary prints the counters of a finished run followed by one line
// per failed job.
func PrintSummary(s *downloader.Summary) {
	if s == nil {
		return
	}

	PrintHighlight("\nRun summary")
	PrintInfo("Downloaded", fmt.Sprintf("%d (%s)", s.Downloaded, humanize.Bytes(uint64(s.Bytes))))
	PrintInfo("Already present", fmt.Sprintf("%d", s.Skipped))
	if s.Duplicates > 0 {
		PrintInfo("Duplicate links", fmt.Sprintf("%d", s.Duplicates))
	}
	if s.Cancelled > 0 {
		PrintInfo("Cancelled", fmt.Sprintf("%d", s.Cancelled))
	}
	PrintInfo("Elapsed", s.Duration.Round(time.Millisecond).String())

	if s.Failed == 0 {
		PrintSuccess(fmt.Sprintf("All %d jobs finished", s.Total))
		return
	}

	PrintWarning(fmt.Sprintf("%d of %d downloads failed", s.Failed, s.Total))
	for _, f := range s.Failures {
		PrintError(fmt.Sprintf("  %s / %s", f.Job.Category, f.Job.Link.Title), f.Error)
	}
}
