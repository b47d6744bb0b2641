// Package prompt reads interactive answers for CLI commands whose flags were
// left empty.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter asks questions on out and reads one answer per line from in.
type Prompter struct {
	sc  *bufio.Scanner
	out io.Writer
}

// New creates a Prompter.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{sc: bufio.NewScanner(in), out: out}
}

// Line prints label and returns the next input line without surrounding spaces.
// It returns io.EOF once the input is exhausted.
func (p *Prompter) Line(label string) (string, error) {
	if label != "" {
		fmt.Fprint(p.out, label)
	}
	if !p.sc.Scan() {
		if err := p.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.sc.Text()), nil
}

// Required asks until a non-empty answer is given.
func (p *Prompter) Required(label string) (string, error) {
	for {
		s, err := p.Line(label)
		if err != nil {
			return "", err
		}
		if s != "" {
			return s, nil
		}
		fmt.Fprintln(p.out, "A value is required.")
	}
}

// Optional returns nil for an empty answer.
func (p *Prompter) Optional(label string) (*string, error) {
	s, err := p.Line(label)
	if err != nil || s == "" {
		return nil, err
	}
	return &s, nil
}

// Fill asks for *dst with Required when it is empty.
func (p *Prompter) Fill(dst *string, label string) error {
	if *dst != "" {
		return nil
	}
	s, err := p.Required(label)
	if err != nil {
		return err
	}
	*dst = s
	return nil
}
