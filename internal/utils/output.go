package utils

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Printer writes the CLI's human-facing lines.
type Printer struct {
	Out   io.Writer
	Err   io.Writer
	Quiet bool
}

var std = &Printer{Out: os.Stdout, Err: os.Stderr}

// Default returns the process-wide printer.
func Default() *Printer { return std }

// SetQuiet silences Info and Success on the default printer.
func SetQuiet(quiet bool) { std.Quiet = quiet }

func (p *Printer) Info(format string, args ...interface{}) {
	if p.Quiet {
		return
	}
	fmt.Fprintln(p.Out, color.CyanString(format, args...))
}

func (p *Printer) Success(format string, args ...interface{}) {
	if p.Quiet {
		return
	}
	fmt.Fprintln(p.Out, color.GreenString(format, args...))
}

// Warn is never silenced.
func (p *Printer) Warn(format string, args ...interface{}) {
	fmt.Fprintln(p.Err, color.YellowString("warning: "+format, args...))
}

func (p *Printer) Fail(err error) {
	fmt.Fprintln(p.Err, color.RedString("error: %v", err))
}
