// Package menu presents the configured options and turns operator input into
// the chain of one option
package menu

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/davidroman0O/backupmenu/console"
	bmerrors "github.com/davidroman0O/backupmenu/errors"
	workflow "github.com/davidroman0O/backupmenu/workflows"
)

// InvalidChoice is printed when input does not name an option
const InvalidChoice = "Invalid choice!"

// Presenter renders the numbered menu
type Presenter struct {
	console *console.Console
}

// NewPresenter creates a presenter on the given console
func NewPresenter(c *console.Console) *Presenter {
	return &Presenter{console: c}
}

// ShowTitle prints the title lines
func (p *Presenter) ShowTitle(title []string) {
	for _, line := range title {
		p.console.Heading(line)
	}
}

// Present prints the title and the numbered options, then prompts until the
// input names an option. The loop has no iteration limit; it only ends early
// when the input is closed or ctx is done.
func (p *Presenter) Present(ctx context.Context, title []string, options workflow.Options) (workflow.Option, error) {
	if len(options) == 0 {
		return workflow.Option{}, bmerrors.New(bmerrors.ErrConfiguration, "no options to choose from")
	}

	p.ShowTitle(title)

	for {
		p.console.Heading("Menu:")
		for i, opt := range options {
			p.console.Printf("%d: %s\n", i+1, opt.Name)
		}

		line, err := p.console.Prompt(ctx, "\nChoice: ")
		if err != nil {
			return workflow.Option{}, err
		}

		idx, err := ParseChoice(line, len(options))
		if err != nil {
			p.console.Warn(InvalidChoice)
			p.console.Println()
			continue
		}
		return options[idx], nil
	}
}

// Select is the non-interactive bypass: it looks an option up by exact name
func Select(options workflow.Options, name string) (workflow.Option, error) {
	return options.Lookup(name)
}

// ParseChoice converts menu input into a zero-based option index. Only a
// string of decimal digits N with 1 <= N <= count is accepted; surrounding
// whitespace is ignored.
func ParseChoice(line string, count int) (int, error) {
	line = strings.TrimSpace(line)
	if line == "" || !isDigits(line) {
		return 0, bmerrors.Newf(bmerrors.ErrInvalidSelection, "%q is not a number", line)
	}

	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, bmerrors.Wrap(err, bmerrors.ErrInvalidSelection, fmt.Sprintf("%q is not a valid index", line))
	}
	if n < 1 || n > count {
		return 0, bmerrors.Newf(bmerrors.ErrInvalidSelection, "%d is outside 1..%d", n, count)
	}
	return n - 1, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
