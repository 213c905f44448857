package workflow

import "context"

// ReleaseFunc undoes the acquire step of a scoped result. It runs exactly once.
type ReleaseFunc func(ctx context.Context) error

// Result is the value an action hands to the next action in the chain.
//
// The zero Result carries nothing. A scoped Result additionally carries the
// release step of a resource that was already acquired.
type Result struct {
	value   any
	release ReleaseFunc
}

// None is the empty result
func None() Result {
	return Result{}
}

// Plain wraps a value that needs no cleanup
func Plain(value any) Result {
	return Result{value: value}
}

// Scoped wraps an acquired resource together with its release step
func Scoped(value any, release ReleaseFunc) Result {
	if release == nil {
		release = func(context.Context) error { return nil }
	}
	return Result{value: value, release: release}
}

// Value returns the payload
func (r Result) Value() any {
	return r.value
}

// IsScoped reports whether the result must be entered into a Scope
func (r Result) IsScoped() bool {
	return r.release != nil
}
