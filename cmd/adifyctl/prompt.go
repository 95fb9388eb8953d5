package main

import (
	"bufio"
	"errors"
	"io"
	"os"

	"golang.org/x/term"
)

// prompter asks the operator for input. Secrets are never echoed.
type prompter interface {
	Line(label string) (string, error)
	Secret(label string) (string, error)
}

type terminalPrompter struct {
	in     *os.File
	out    io.Writer
	reader *bufio.Reader
}

func newTerminalPrompter(in *os.File, out io.Writer) *terminalPrompter {
	return &terminalPrompter{in: in, out: out, reader: bufio.NewReader(in)}
}

func (p *terminalPrompter) Line(label string) (string, error) {
	if err := writef(p.out, "%s: ", label); err != nil {
		return "", err
	}
	return readLine(p.reader)
}

// Secret disables echo when stdin is a terminal and falls back to a plain
// line read for piped input.
func (p *terminalPrompter) Secret(label string) (string, error) {
	if err := writef(p.out, "%s: ", label); err != nil {
		return "", err
	}
	fd := int(p.in.Fd())
	if !term.IsTerminal(fd) {
		return readLine(p.reader)
	}
	b, err := term.ReadPassword(fd)
	if werr := writef(p.out, "\n"); werr != nil {
		err = errors.Join(err, werr)
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}
