/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	bmerrors "github.com/davidroman0O/backupmenu/errors"
	"github.com/davidroman0O/backupmenu/operations"
)

// ExecutorFactory creates the executor external commands run through
type ExecutorFactory func(in io.Reader, out, errOut io.Writer) operations.CommandExecutor

func nativeExecutor(in io.Reader, out, errOut io.Writer) operations.CommandExecutor {
	executor := operations.NewNativeExecutor()
	executor.Stdin = in
	executor.Stdout = out
	executor.Stderr = errOut
	return executor
}

// rootOptions holds the global flags
type rootOptions struct {
	configPath string
	option     string
	logLevel   string
	noWait     bool

	newExecutor ExecutorFactory
}

// NewRootCommand creates the backupmenu command tree
func NewRootCommand() *cobra.Command {
	return newRootCommand(nativeExecutor)
}

func newRootCommand(newExecutor ExecutorFactory) *cobra.Command {
	opts := &rootOptions{newExecutor: newExecutor}

	rootCmd := &cobra.Command{
		Use:   "backupmenu",
		Short: "Menu launcher for mount and borg backup chains",
		Long: `backupmenu shows the options of a configuration file as a numbered menu and
runs the chain of actions behind the chosen one. Mounts acquired along the way
are released in reverse order when the chain ends, also after a failure or an
interrupt.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file (required)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	rootCmd.Flags().StringVarP(&opts.option, "option", "o", "", "Run this option directly instead of showing the menu")
	rootCmd.Flags().BoolVar(&opts.noWait, "no-wait", false, "Do not wait for ENTER after the chain finished")

	rootCmd.AddCommand(newListCommand(opts))
	rootCmd.AddCommand(newSchemaCommand())

	return rootCmd
}

// checkConfigPath fails unless path names an existing regular file
func checkConfigPath(path string) error {
	if path == "" {
		return bmerrors.New(bmerrors.ErrConfiguration, "a config file is required (-c PATH)")
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return bmerrors.WithContext(
			bmerrors.Newf(bmerrors.ErrConfiguration, "could not find config file '%s'", path),
			map[string]interface{}{"path": path})
	}
	return nil
}

// reported marks an error the operator has already seen in the run summary
type reported struct {
	error
}

func (r reported) Unwrap() error {
	return r.error
}

// Execute runs the command line and returns the process exit status
func Execute() int {
	return execute(NewRootCommand())
}

func execute(root *cobra.Command) int {
	err := root.Execute()
	var seen reported
	if err != nil && !errors.As(err, &seen) {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
	}
	return ExitCode(err)
}
