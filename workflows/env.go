package workflow

import "os"

// EnvOverlay applies environment variables for Overlay actions.
//
// Values set through the process overlay persist for the rest of the process
// and are inherited by every command started afterwards. There is no undo.
type EnvOverlay interface {
	Setenv(name, value string) error
}

// ProcessEnv is the EnvOverlay backed by the process environment
type ProcessEnv struct{}

// Setenv implements EnvOverlay
func (ProcessEnv) Setenv(name, value string) error {
	return os.Setenv(name, value)
}

// MapEnv is an in-memory EnvOverlay, mainly for tests and dry runs
type MapEnv map[string]string

// Setenv implements EnvOverlay
func (m MapEnv) Setenv(name, value string) error {
	m[name] = value
	return nil
}
