// Package console is the operator-facing terminal: printing, line prompts and
// "press ENTER" confirmations
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	bmerrors "github.com/davidroman0O/backupmenu/errors"
)

// Prompter asks the operator for a line of input
type Prompter interface {
	// Prompt prints message and blocks until a line is read or ctx is done
	Prompt(ctx context.Context, message string) (string, error)
}

// Console reads operator input and writes operator output
type Console struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool

	// pending holds the read left in flight by an interrupted prompt
	pending chan readResult

	heading *color.Color
	warning *color.Color
	failure *color.Color
}

// New creates a console on the given streams. Colors are disabled and the
// console reports itself as non-interactive.
func New(in io.Reader, out io.Writer) *Console {
	c := &Console{
		in:      bufio.NewReader(in),
		out:     out,
		heading: color.New(color.FgCyan, color.Bold),
		warning: color.New(color.FgYellow),
		failure: color.New(color.FgRed, color.Bold),
	}
	c.heading.DisableColor()
	c.warning.DisableColor()
	c.failure.DisableColor()
	return c
}

// NewStd creates a console on stdin/stdout, with colors and interactivity
// enabled when both are terminals
func NewStd() *Console {
	c := New(os.Stdin, os.Stdout)
	c.interactive = isTerminal(os.Stdin) && isTerminal(os.Stdout)
	if c.interactive && !color.NoColor {
		c.heading.EnableColor()
		c.warning.EnableColor()
		c.failure.EnableColor()
	}
	return c
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetInteractive overrides terminal detection
func (c *Console) SetInteractive(interactive bool) {
	c.interactive = interactive
}

// Interactive reports whether an operator is expected to answer prompts
func (c *Console) Interactive() bool {
	return c.interactive
}

// Out returns the output stream
func (c *Console) Out() io.Writer {
	return c.out
}

// Println writes a plain line
func (c *Console) Println(args ...interface{}) {
	fmt.Fprintln(c.out, args...)
}

// Printf writes formatted plain text
func (c *Console) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

// Heading writes a highlighted line
func (c *Console) Heading(line string) {
	c.heading.Fprintln(c.out, line)
}

// Warn writes a warning line
func (c *Console) Warn(line string) {
	c.warning.Fprintln(c.out, line)
}

// Fail writes an error line
func (c *Console) Fail(line string) {
	c.failure.Fprintln(c.out, line)
}

type readResult struct {
	line string
	err  error
}

// Prompt implements Prompter. The returned line has its line ending removed.
// A closed input yields ErrInputClosed unless a partial line was read; a done
// ctx yields ErrCancelled. The read of an interrupted prompt is not lost: the
// next prompt receives its line.
func (c *Console) Prompt(ctx context.Context, message string) (string, error) {
	fmt.Fprint(c.out, message)

	if c.pending == nil {
		ch := make(chan readResult, 1)
		c.pending = ch
		go func() {
			line, err := c.in.ReadString('\n')
			ch <- readResult{line: line, err: err}
		}()
	}

	var r readResult
	select {
	case <-ctx.Done():
		fmt.Fprintln(c.out)
		return "", bmerrors.Wrap(ctx.Err(), bmerrors.ErrCancelled, "interrupted while waiting for an answer")
	case r = <-c.pending:
		c.pending = nil
	}

	if r.err != nil {
		if errors.Is(r.err, io.EOF) {
			if r.line != "" {
				return strings.TrimRight(r.line, "\r\n"), nil
			}
			fmt.Fprintln(c.out)
			return "", bmerrors.New(bmerrors.ErrInputClosed, "input closed while waiting for an answer")
		}
		return "", fmt.Errorf("failed to read input: %w", r.err)
	}
	return strings.TrimRight(r.line, "\r\n"), nil
}

// WaitForEnter blocks until the operator presses ENTER or ctx is done
func WaitForEnter(ctx context.Context, p Prompter, message string) error {
	_, err := p.Prompt(ctx, message)
	return err
}
