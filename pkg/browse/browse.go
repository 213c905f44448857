// Package browse provides the built-in "show mountpoint" action
package browse

import (
	"context"
	"fmt"

	"github.com/skratchdot/open-golang/open"

	"github.com/davidroman0O/backupmenu/console"
	bmerrors "github.com/davidroman0O/backupmenu/errors"
	"github.com/davidroman0O/backupmenu/operations"
	workflow "github.com/davidroman0O/backupmenu/workflows"
)

// Opener shows a path to the operator
type Opener func(ctx context.Context, path string) error

// DesktopOpener opens path with the desktop default file browser
func DesktopOpener(ctx context.Context, path string) error {
	return open.Run(path)
}

// CommandOpener opens path with a configured program
func CommandOpener(executor operations.CommandExecutor, program string) Opener {
	return func(ctx context.Context, path string) error {
		return operations.StreamCommand(executor, ctx, nil, program, path)
	}
}

// ShowMountpoint opens the previous result in a file browser, then blocks
// until the operator confirms. It returns no value.
func ShowMountpoint(opener Opener, prompter console.Prompter) workflow.Action {
	return workflow.WithArg(func(ctx *workflow.ActionContext, input any) (workflow.Result, error) {
		path, ok := input.(string)
		if !ok || path == "" {
			return workflow.None(), bmerrors.Newf(bmerrors.ErrConfiguration,
				"'%s' needs a mount point from the previous action, got %v", ctx.Name, input)
		}

		if err := opener(ctx.GoContext, path); err != nil {
			return workflow.None(), bmerrors.Wrap(err, bmerrors.ErrExternalTool,
				fmt.Sprintf("failed to open %s", path))
		}

		if err := console.WaitForEnter(ctx.GoContext, prompter, fmt.Sprintf("backup is mounted at %s - press ENTER to unmount", path)); err != nil {
			return workflow.None(), err
		}
		return workflow.None(), nil
	}).Describe("open the mount point and wait for ENTER")
}

// Builtins returns the built-in actions
func Builtins(opener Opener, prompter console.Prompter) map[string]workflow.Action {
	return map[string]workflow.Action{
		workflow.ShowMountpointAction: ShowMountpoint(opener, prompter),
	}
}
