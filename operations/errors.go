package operations

import (
	"errors"
	"fmt"
	"strings"
)

// CommandError represents an error that occurred while executing a command
type CommandError struct {
	Command string   // The command that was executed
	Args    []string // The arguments passed to the command
	Output  string   // The command output (stdout/stderr)
	Err     error    // The underlying error
}

// Error implements the error interface
func (e *CommandError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("command failed: '%s': %v", e.CommandLine(), e.Err)
	}

	return fmt.Sprintf("command failed: '%s': %v\nOutput: %s",
		e.CommandLine(), e.Err, formatCommandOutput(e.Output))
}

// CommandLine returns the command and its arguments joined by spaces
func (e *CommandError) CommandLine() string {
	if len(e.Args) == 0 {
		return e.Command
	}
	return e.Command + " " + strings.Join(e.Args, " ")
}

// Unwrap returns the underlying error
func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError
func NewCommandError(command string, args []string, output string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Args:    args,
		Output:  output,
		Err:     err,
	}
}

// ExitStatus is a bare exit status, used where no *exec.ExitError exists
type ExitStatus int

// Error implements the error interface
func (s ExitStatus) Error() string {
	return fmt.Sprintf("exit status %d", int(s))
}

// ExitCode returns the status
func (s ExitStatus) ExitCode() int {
	return int(s)
}

// ExitCode extracts the exit status from an error chain: 0 for nil, -1 when
// the command did not run to completion (not found, killed, ...)
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return -1
}

// formatCommandOutput formats command output for better readability in error messages
func formatCommandOutput(output string) string {
	output = strings.TrimSpace(output)
	if output == "" {
		return "<no output>"
	}

	if len(output) > 1000 {
		output = output[:1000] + "... [output truncated]"
	}

	if strings.Contains(output, "\n") {
		lines := strings.Split(output, "\n")
		for i, line := range lines {
			lines[i] = "  | " + line
		}
		return "\n" + strings.Join(lines, "\n")
	}

	return output
}
