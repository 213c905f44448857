/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davidroman0O/backupmenu/pkg/config"
)

func newListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the options of the config file and the actions they run",
		Long: `Loads and validates the config file, then prints every option in menu order
followed by its chain of actions. Nothing is executed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkConfigPath(opts.configPath); err != nil {
				return err
			}

			cfg, err := config.LoadFile(opts.configPath)
			if err != nil {
				return err
			}

			reg, err := cfg.BuildRegistry(config.Dependencies{
				Executor: opts.newExecutor(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, opt := range cfg.MenuOptions() {
				fmt.Fprintf(out, "%d: %s\n", i+1, opt.Name)
				fmt.Fprintf(out, "   %s\n", strings.Join(opt.Actions, " -> "))
			}

			fmt.Fprintln(out, "\nActions:")
			for _, name := range reg.Names() {
				kind := "built-in"
				if spec, ok := cfg.Actions[name]; ok {
					kind = spec.Kind
				} else if !reg.IsBuiltin(name) {
					kind = "plugin"
				}
				fmt.Fprintf(out, "  %s (%s)\n", name, kind)
			}
			return nil
		},
	}
}
