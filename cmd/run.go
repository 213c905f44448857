/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/davidroman0O/backupmenu/console"
	bmerrors "github.com/davidroman0O/backupmenu/errors"
	"github.com/davidroman0O/backupmenu/menu"
	"github.com/davidroman0O/backupmenu/pkg/config"
	workflow "github.com/davidroman0O/backupmenu/workflows"
)

// ReadyPrompt is shown once a chain finished successfully
const ReadyPrompt = "Ready - press ENTER to finish."

// newConsole attaches the console to the command streams. Only the real
// terminal streams can be interactive.
func newConsole(cmd *cobra.Command) *console.Console {
	if cmd.InOrStdin() == os.Stdin && cmd.OutOrStdout() == os.Stdout {
		return console.NewStd()
	}
	return console.New(cmd.InOrStdin(), cmd.OutOrStdout())
}

func newLogger(cmd *cobra.Command, level string) (*workflow.ZapLogger, error) {
	logger, err := workflow.NewZapLogger(level, cmd.ErrOrStderr())
	if err != nil {
		return nil, bmerrors.Wrap(err, bmerrors.ErrConfiguration, "invalid --log-level")
	}
	return logger.With("run", uuid.NewString()), nil
}

// acquireLock takes the single-instance lock without waiting
func acquireLock(path string) (*flock.Flock, error) {
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, bmerrors.Wrap(err, bmerrors.ErrLocked, "failed to take the run lock "+path)
	}
	if !locked {
		return nil, bmerrors.WithContext(
			bmerrors.Newf(bmerrors.ErrLocked, "another backupmenu is running (lock %s)", path),
			map[string]interface{}{"lock": path})
	}
	return lock, nil
}

func runMenu(cmd *cobra.Command, opts *rootOptions) error {
	if err := checkConfigPath(opts.configPath); err != nil {
		return err
	}

	logger, err := newLogger(cmd, opts.logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		return err
	}
	logger.Debug("Loaded %d actions and %d options from %s", len(cfg.Actions), len(cfg.Options), opts.configPath)

	con := newConsole(cmd)
	executor := opts.newExecutor(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())

	reg, err := cfg.BuildRegistry(config.Dependencies{
		Executor: executor,
		Prompter: con,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	// the first signal cancels prompts and the chain; a second one gets the
	// default handling while mounts are released
	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		stop()
	}()

	options := cfg.MenuOptions()
	var option workflow.Option
	if opts.option != "" {
		option, err = menu.Select(options, opts.option)
	} else {
		option, err = menu.NewPresenter(con).Present(ctx, cfg.Title, options)
	}
	if err != nil {
		return err
	}

	lock, err := acquireLock(cfg.Settings.LockPath())
	if err != nil {
		return err
	}
	defer lock.Unlock()

	runner := workflow.NewRunner(reg,
		workflow.WithLogger(logger),
		workflow.WithOutput(con.Out()),
	)
	result := runner.Run(ctx, option)

	summary := workflow.FormatResult(result)
	if !result.Success {
		con.Fail(strings.TrimRight(summary, "\n"))
		return reported{result.Error}
	}
	con.Printf("%s", summary)

	if !opts.noWait && con.Interactive() {
		if err := console.WaitForEnter(ctx, con, ReadyPrompt); err != nil && !bmerrors.IsInputClosed(err) {
			return err
		}
	}
	return nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
