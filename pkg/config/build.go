package config

import (
	"sort"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/davidroman0O/backupmenu/console"
	bmerrors "github.com/davidroman0O/backupmenu/errors"
	"github.com/davidroman0O/backupmenu/operations"
	"github.com/davidroman0O/backupmenu/pkg/borg"
	"github.com/davidroman0O/backupmenu/pkg/browse"
	"github.com/davidroman0O/backupmenu/pkg/mount"
	"github.com/davidroman0O/backupmenu/pkg/remote"
	workflow "github.com/davidroman0O/backupmenu/workflows"
)

// Dependencies are the collaborators configured actions run against
type Dependencies struct {
	Executor operations.CommandExecutor
	Prompter console.Prompter
	Logger   workflow.Logger

	// Opener shows mount points; derived from settings.browser when nil
	Opener browse.Opener

	// Fetcher serves sftp-get actions; a real SSH fetcher when nil
	Fetcher *remote.Fetcher

	// Customize, when set, adjusts the clients before actions are built
	CustomizeMounter func(*mount.Mounter)
	CustomizeBorg    func(*borg.Client)
}

// BuildRegistry registers the built-ins, then the configured actions, then
// whatever the plugins add, and finally checks every option against the
// result. Nothing runs before this succeeds.
func (f *File) BuildRegistry(deps Dependencies) (*workflow.Registry, error) {
	opener := deps.Opener
	if opener == nil {
		opener = browse.DesktopOpener
		if f.Settings.Browser != "" {
			opener = browse.CommandOpener(deps.Executor, f.Settings.Browser)
		}
	}

	reg := workflow.NewRegistry(browse.Builtins(opener, deps.Prompter))

	actions, err := f.BuildActions(deps)
	if err != nil {
		return nil, err
	}
	if err := reg.Merge(actions); err != nil {
		return nil, err
	}

	if err := LoadPlugins(reg, f.PluginPaths()); err != nil {
		return nil, err
	}

	if err := f.MenuOptions().Validate(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// BuildActions turns every action spec into a runnable action
func (f *File) BuildActions(deps Dependencies) (map[string]workflow.Action, error) {
	mounter := mount.New(deps.Executor)
	if deps.CustomizeMounter != nil {
		deps.CustomizeMounter(mounter)
	}

	borgClient := borg.New(deps.Executor, deps.Prompter)
	borgClient.Binary = f.Settings.Borg()
	borgClient.UnmountRetries = f.Settings.UnmountRetries
	if deps.Logger != nil {
		borgClient.Logger = deps.Logger
	}
	if deps.CustomizeBorg != nil {
		deps.CustomizeBorg(borgClient)
	}

	fetcher := deps.Fetcher
	if fetcher == nil {
		fetcher = remote.NewFetcher()
	}

	names := make([]string, 0, len(f.Actions))
	for name := range f.Actions {
		names = append(names, name)
	}
	sort.Strings(names)

	actions := make(map[string]workflow.Action, len(f.Actions))
	for _, name := range names {
		spec := f.Actions[name]

		var action workflow.Action
		switch spec.Kind {
		case KindMount:
			action = mounter.Action(mount.Options{
				Args:   spec.Mount.Args,
				Target: spec.Mount.Target,
				Sudo:   spec.Mount.Sudo,
			})
		case KindBorgBackup:
			action = borgClient.BackupAction(borg.BackupOptions{
				Repo:        spec.Borg.Repo,
				Sources:     spec.Borg.Sources,
				ExcludeFrom: spec.Borg.ExcludeFrom,
			})
		case KindBorgMount:
			action = borgClient.MountAction(borg.MountOptions{Repo: spec.Borg.Repo})
		case KindExec:
			var err error
			action, err = ExecAction(deps.Executor, *spec.Exec)
			if err != nil {
				return nil, bmerrors.WithOp(err, "action '"+name+"'")
			}
		case KindSSH:
			action = remote.RunAction(spec.SSH.Endpoint, spec.SSH.Command, spec.SSH.PassInput)
		case KindSFTPGet:
			action = fetcher.FetchAction(spec.SFTP.Endpoint, spec.SFTP.RemotePath)
		default:
			return nil, bmerrors.Newf(bmerrors.ErrConfiguration, "action '%s': unknown kind %q", name, spec.Kind)
		}

		if spec.Description != "" {
			action = action.Describe(spec.Description)
		}
		if len(spec.Env) > 0 {
			action = workflow.WithEnv(spec.Env, action)
		}
		actions[name] = action
	}
	return actions, nil
}

// ExecAction builds an action running a command line. The line is split
// with shell quoting rules but no shell is involved.
func ExecAction(executor operations.CommandExecutor, spec ExecSpec) (workflow.Action, error) {
	argv, err := shellquote.Split(spec.Command)
	if err != nil {
		return workflow.Action{}, bmerrors.Wrap(err, bmerrors.ErrConfiguration, "invalid exec command")
	}
	if len(argv) == 0 {
		return workflow.Action{}, bmerrors.New(bmerrors.ErrConfiguration, "exec command is empty")
	}

	run := func(ctx *workflow.ActionContext, input any) (workflow.Result, error) {
		args := operations.ExpandInput(argv, input)
		name, rest := operations.Privileged(spec.Sudo, args[0], args[1:]...)
		ctx.Logger.Debug("exec %s %s", name, strings.Join(rest, " "))

		if spec.Capture {
			out, err := operations.ExecuteCommand(executor, ctx.GoContext, name, rest...)
			if err != nil {
				return workflow.None(), bmerrors.Wrap(err, bmerrors.ErrExternalTool, "command failed")
			}
			return workflow.Plain(strings.TrimSpace(string(out))), nil
		}

		if err := operations.StreamCommand(executor, ctx.GoContext, nil, name, rest...); err != nil {
			return workflow.None(), bmerrors.Wrap(err, bmerrors.ErrExternalTool, "command failed")
		}
		return workflow.None(), nil
	}

	if spec.PassInput {
		return workflow.WithArg(run).Describe(spec.Command), nil
	}
	return workflow.NoArg(func(ctx *workflow.ActionContext) (workflow.Result, error) {
		return run(ctx, nil)
	}).Describe(spec.Command), nil
}
