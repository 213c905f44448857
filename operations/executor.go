// Package operations runs the external commands backupmenu delegates to:
// mount, umount, borg and whatever the configuration asks for
package operations

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// CommandExecutor defines an interface for executing commands
type CommandExecutor interface {
	// Execute runs a command and returns its combined output
	Execute(ctx context.Context, name string, args ...string) ([]byte, error)

	// Stream runs a command attached to the console. env holds extra
	// KEY=VALUE pairs added to the inherited environment of the child only.
	Stream(ctx context.Context, env []string, name string, args ...string) error
}

// ExecuteCommand is a helper that executes a command and returns a formatted error if it fails
func ExecuteCommand(executor CommandExecutor, ctx context.Context, name string, args ...string) ([]byte, error) {
	output, err := executor.Execute(ctx, name, args...)
	if err != nil {
		return output, NewCommandError(name, args, string(output), err)
	}
	return output, nil
}

// StreamCommand is a helper that streams a command and returns a formatted error if it fails
func StreamCommand(executor CommandExecutor, ctx context.Context, env []string, name string, args ...string) error {
	if err := executor.Stream(ctx, env, name, args...); err != nil {
		return NewCommandError(name, args, "", err)
	}
	return nil
}

// NativeExecutor implements CommandExecutor by directly executing commands on the host OS
type NativeExecutor struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewNativeExecutor creates an executor attached to the process standard streams
func NewNativeExecutor() *NativeExecutor {
	return &NativeExecutor{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Execute implements CommandExecutor.Execute for native OS execution
func (e *NativeExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// Stream implements CommandExecutor.Stream for native OS execution
func (e *NativeExecutor) Stream(ctx context.Context, env []string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	return cmd.Run()
}

// Privileged prefixes a command with sudo when sudo is true
func Privileged(sudo bool, name string, args ...string) (string, []string) {
	if !sudo {
		return name, args
	}
	return "sudo", append([]string{name}, args...)
}

// InputPlaceholder in a command argument is replaced by the previous result
const InputPlaceholder = "{input}"

// ExpandInput replaces InputPlaceholder in every argument. A nil input
// expands to the empty string.
func ExpandInput(args []string, input any) []string {
	value := ""
	if input != nil {
		value = fmt.Sprint(input)
	}
	expanded := make([]string, len(args))
	for i, arg := range args {
		expanded[i] = strings.ReplaceAll(arg, InputPlaceholder, value)
	}
	return expanded
}
