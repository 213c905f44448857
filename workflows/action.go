package workflow

import (
	"context"
	"fmt"
	"sort"
)

// Arity tags how an action is invoked by the runner
type Arity int

const (
	// NoInput actions are invoked without the previous result
	NoInput Arity = iota

	// WithInput actions receive the previous result
	WithInput

	// Overlay actions apply environment variables and delegate to an inner action
	Overlay
)

func (a Arity) String() string {
	switch a {
	case NoInput:
		return "no-arg"
	case WithInput:
		return "with-arg"
	case Overlay:
		return "env-overlay"
	default:
		return fmt.Sprintf("arity(%d)", int(a))
	}
}

// ActionContext provides access to the run environment
type ActionContext struct {
	// Embedded Go context
	GoContext context.Context

	// Name of the action being executed
	Name string

	// Option the current chain belongs to, empty for programmatic chains
	Option string

	// Logger for output
	Logger Logger
}

// NoArgFunc is the body of an action that ignores the previous result
type NoArgFunc func(ctx *ActionContext) (Result, error)

// WithArgFunc is the body of an action consuming the previous result
type WithArgFunc func(ctx *ActionContext, input any) (Result, error)

// EnvVar is a single variable of an environment overlay
type EnvVar struct {
	Name  string
	Value string
}

// Action is a single unit of work in the registry.
//
// The zero value is not usable; build actions with NoArg, WithArg or WithEnv.
type Action struct {
	arity       Arity
	description string
	noArg       NoArgFunc
	withArg     WithArgFunc
	overlay     []EnvVar
	inner       *Action
}

// NoArg creates an action that is invoked without the previous result
func NoArg(fn NoArgFunc) Action {
	return Action{arity: NoInput, noArg: fn}
}

// WithArg creates an action that receives the previous result
func WithArg(fn WithArgFunc) Action {
	return Action{arity: WithInput, withArg: fn}
}

// WithEnv wraps inner so that overlay is applied to the process environment
// right before inner runs. Variables are applied in name order.
func WithEnv(overlay map[string]string, inner Action) Action {
	vars := make([]EnvVar, 0, len(overlay))
	for name, value := range overlay {
		vars = append(vars, EnvVar{Name: name, Value: value})
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })

	return Action{
		arity:       Overlay,
		description: inner.description,
		overlay:     vars,
		inner:       &inner,
	}
}

// Describe returns a copy of the action carrying a human-readable description
func (a Action) Describe(description string) Action {
	a.description = description
	return a
}

// Description returns the action description
func (a Action) Description() string {
	return a.description
}

// Arity returns the outermost tag of the action
func (a Action) Arity() Arity {
	return a.arity
}

// Overlay returns the environment variables of an Overlay action, nil otherwise
func (a Action) Overlay() []EnvVar {
	return a.overlay
}

// Inner returns the wrapped action of an Overlay action
func (a Action) Inner() (Action, bool) {
	if a.inner == nil {
		return Action{}, false
	}
	return *a.inner, true
}

// AcceptsInput reports whether the innermost action consumes the previous result
func (a Action) AcceptsInput() bool {
	for a.arity == Overlay && a.inner != nil {
		a = *a.inner
	}
	return a.arity == WithInput
}

// valid reports whether the action was built through one of the constructors
func (a Action) valid() bool {
	switch a.arity {
	case NoInput:
		return a.noArg != nil
	case WithInput:
		return a.withArg != nil
	case Overlay:
		return a.inner != nil && a.inner.valid()
	}
	return false
}
