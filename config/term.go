package config

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

type TerminalIO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

var DefaultTermIO = TerminalIO{
	Stdin:  os.Stdin,
	Stdout: os.Stdout,
	Stderr: os.Stderr,
}

func (t *TerminalIO) Printf(msg string, args ...interface{}) {
	fmt.Fprintf(t.Stdout, msg, args...)
}

// StdinIsPipe reports whether stdin has data piped into it. Readers that
// aren't files, such as buffers in tests, count as pipes.
func (t *TerminalIO) StdinIsPipe() bool {
	f, ok := t.Stdin.(*os.File)
	if !ok {
		return t.Stdin != nil
	}
	return !isTerminal(f)
}

// StdoutIsTerminal reports whether stdout is an interactive terminal.
func (t *TerminalIO) StdoutIsTerminal() bool {
	f, ok := t.Stdout.(*os.File)
	return ok && isTerminal(f)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
