// Package terminal prepares the host terminal for use as the guest serial console.
package terminal

import (
	"os"

	"golang.org/x/term"
)

// Console wraps the standard streams the guest serial port is wired to.
type Console struct {
	stdin  *os.File
	stdout *os.File
	fd     int
}

// Current returns the current console.
func Current() *Console {
	return New(os.Stdin, os.Stdout)
}

// New returns a console over the given streams.
func New(stdin, stdout *os.File) *Console {
	return &Console{
		stdin:  stdin,
		stdout: stdout,
		fd:     int(stdin.Fd()),
	}
}

// Input returns the stream the guest reads from.
func (c *Console) Input() *os.File {
	return c.stdin
}

// Output returns the stream the guest writes to.
func (c *Console) Output() *os.File {
	return c.stdout
}

// IsTTY returns true if the console input is a terminal.
func (c *Console) IsTTY() bool {
	return term.IsTerminal(c.fd)
}

// SetRaw disables local echo, canonical input and CR-to-NL mapping on the
// console input and returns a function restoring the previous settings.
// Output processing and signal keys are left alone, so the guest console
// behaves like a direct terminal while Ctrl-C still reaches the host.
// A non-terminal input is left untouched.
func (c *Console) SetRaw() (func(), error) {
	if !c.IsTTY() {
		return func() {}, nil
	}
	return setRaw(c.fd)
}
