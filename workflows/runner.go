package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	bmerrors "github.com/davidroman0O/backupmenu/errors"
)

// RunResult contains the result of one chain execution
type RunResult struct {
	Option        string
	Success       bool
	Value         any
	Error         error
	ExecutionTime time.Duration
}

// Runner executes action chains against a registry
type Runner struct {
	registry *Registry
	logger   Logger
	env      EnvOverlay
	out      io.Writer
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithLogger sets the logger used by the runner and its scopes
func WithLogger(logger Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithEnvOverlay replaces the process environment as the target of overlays
func WithEnvOverlay(env EnvOverlay) RunnerOption {
	return func(r *Runner) {
		if env != nil {
			r.env = env
		}
	}
}

// WithOutput sets where the runner announces each action to the operator
func WithOutput(out io.Writer) RunnerOption {
	return func(r *Runner) {
		if out != nil {
			r.out = out
		}
	}
}

// NewRunner creates a runner for the given registry
func NewRunner(registry *Registry, opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: registry,
		logger:   NewDefaultLogger(),
		env:      ProcessEnv{},
		out:      io.Discard,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the chain of an option and reports how it went
func (r *Runner) Run(ctx context.Context, option Option) RunResult {
	startTime := time.Now()

	value, err := r.execute(ctx, option.Name, option.Actions)

	return RunResult{
		Option:        option.Name,
		Success:       err == nil,
		Value:         value,
		Error:         err,
		ExecutionTime: time.Since(startTime),
	}
}

// Execute runs the named actions in order, feeding each action the value
// produced by the one before it, and returns the last value.
//
// Scoped results are held in a Scope that is unwound exactly once when the
// chain ends, whether it completed, failed, was cancelled or panicked. A
// failing action aborts the remaining steps; nothing is retried here.
func (r *Runner) Execute(ctx context.Context, actions []string) (any, error) {
	return r.execute(ctx, "", actions)
}

func (r *Runner) execute(ctx context.Context, option string, actions []string) (value any, err error) {
	scope := NewScope(r.logger)

	defer func() {
		// Release steps must still run after an interrupt cancelled ctx.
		releaseErr := scope.ReleaseAll(context.WithoutCancel(ctx))
		switch {
		case releaseErr == nil:
		case err == nil:
			err = releaseErr
		default:
			err = errors.Join(err, releaseErr)
		}
	}()

	r.logger.Info("Starting chain %q with %d actions", option, len(actions))

	var previous any
	for i, name := range actions {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return previous, bmerrors.Wrap(ctxErr, bmerrors.ErrCancelled,
				fmt.Sprintf("chain interrupted before '%s'", name))
		}

		action, err := r.registry.Resolve(name)
		if err != nil {
			return previous, err
		}

		fmt.Fprintf(r.out, "executing '%s'\n", name)
		r.logger.Debug("Action %d/%d: %s (%s)", i+1, len(actions), name, action.Arity())

		actx := &ActionContext{
			GoContext: ctx,
			Name:      name,
			Option:    option,
			Logger:    r.logger,
		}

		// entered before the error check: a failing action may still hold a resource
		result, err := r.invoke(actx, action, previous)
		value := scope.Enter(name, result)
		if err != nil {
			r.logger.Error("Action '%s' failed: %v", name, err)
			if ctx.Err() != nil {
				return previous, bmerrors.Wrap(err, bmerrors.ErrCancelled,
					fmt.Sprintf("action '%s' interrupted", name))
			}
			return previous, fmt.Errorf("action '%s': %w", name, err)
		}

		previous = value
	}

	r.logger.Info("Chain %q completed", option)
	return previous, nil
}

// invoke peels overlay layers, applying their variables, then calls the body
// with or without the previous result according to its tag
func (r *Runner) invoke(actx *ActionContext, action Action, input any) (Result, error) {
	for action.arity == Overlay {
		for _, v := range action.overlay {
			r.logger.Info("Setting %s for the rest of the run (action '%s')", v.Name, actx.Name)
			if err := r.env.Setenv(v.Name, v.Value); err != nil {
				return Result{}, fmt.Errorf("failed to set %s: %w", v.Name, err)
			}
		}
		action = *action.inner
	}

	switch action.arity {
	case NoInput:
		return action.noArg(actx)
	case WithInput:
		return action.withArg(actx, input)
	default:
		return Result{}, fmt.Errorf("unsupported action arity %s", action.arity)
	}
}

// FormatResult returns a human-readable summary of a chain execution
func FormatResult(result RunResult) string {
	status := "FAILED"
	if result.Success {
		status = "SUCCESS"
	}

	summary := fmt.Sprintf("Option '%s': %s (%s)\n",
		result.Option,
		status,
		result.ExecutionTime.Round(time.Millisecond),
	)
	if result.Success && result.Value != nil {
		summary += fmt.Sprintf("  Result: %v\n", result.Value)
	}
	if result.Error != nil {
		summary += fmt.Sprintf("  Error: %v\n", result.Error)
	}
	return summary
}
