package workflow

import (
	"fmt"
	"strings"

	bmerrors "github.com/davidroman0O/backupmenu/errors"
)

// Option is a named, ordered chain of action names selectable from the menu
type Option struct {
	Name    string
	Actions []string
}

// Options keeps options in the order they were declared
type Options []Option

// Names returns the option names in declaration order
func (o Options) Names() []string {
	names := make([]string, len(o))
	for i, opt := range o {
		names[i] = opt.Name
	}
	return names
}

// Lookup finds an option by exact name
func (o Options) Lookup(name string) (Option, error) {
	for _, opt := range o {
		if opt.Name == name {
			return opt, nil
		}
	}
	return Option{}, &bmerrors.Error{
		Code:    bmerrors.ErrUnknownOption,
		Message: fmt.Sprintf("option '%s' is not defined", name),
		Context: map[string]interface{}{"option": name},
	}
}

// Validate checks that every option is non-empty, unique and only references
// actions known to the registry
func (o Options) Validate(r *Registry) error {
	if len(o) == 0 {
		return bmerrors.New(bmerrors.ErrConfiguration, "no options defined")
	}

	var problems []string
	seen := make(map[string]bool, len(o))
	for _, opt := range o {
		if opt.Name == "" {
			problems = append(problems, "option with empty name")
			continue
		}
		if seen[opt.Name] {
			problems = append(problems, fmt.Sprintf("option '%s' is defined twice", opt.Name))
		}
		seen[opt.Name] = true

		if len(opt.Actions) == 0 {
			problems = append(problems, fmt.Sprintf("option '%s' has no actions", opt.Name))
		}
		for _, name := range opt.Actions {
			if !r.Has(name) {
				problems = append(problems, fmt.Sprintf("option '%s' references undefined action '%s'", opt.Name, name))
			}
		}
	}

	if len(problems) > 0 {
		return bmerrors.New(bmerrors.ErrConfiguration, "invalid options:\n- "+strings.Join(problems, "\n- "))
	}
	return nil
}
