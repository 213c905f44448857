// Package mount acquires filesystem mounts as scoped results
package mount

import (
	"context"
	"fmt"
	"os"

	"github.com/moby/sys/mountinfo"

	bmerrors "github.com/davidroman0O/backupmenu/errors"
	"github.com/davidroman0O/backupmenu/operations"
	workflow "github.com/davidroman0O/backupmenu/workflows"
)

// Options describe one mount
type Options struct {
	// Args are passed to mount before the target, e.g. ["-t", "nfs", "nas:/backup"]
	Args []string

	// Target is the mount point. A temporary directory is used when empty.
	Target string

	// Sudo runs mount and umount through sudo
	Sudo bool
}

// Mounter runs mount and umount through a command executor
type Mounter struct {
	executor operations.CommandExecutor

	// Mounted reports whether a path is already a mount point
	Mounted func(path string) (bool, error)

	// TempDir creates the mount point when Options.Target is empty
	TempDir func() (string, error)
}

// New creates a mounter
func New(executor operations.CommandExecutor) *Mounter {
	return &Mounter{
		executor: executor,
		Mounted:  mountinfo.Mounted,
		TempDir:  func() (string, error) { return os.MkdirTemp("", "backupmenu-mount-") },
	}
}

// Mount mounts according to opts and returns the mount point as a scoped
// result. Releasing it unmounts and removes the temporary mount point.
func (m *Mounter) Mount(ctx context.Context, opts Options) (workflow.Result, error) {
	target := opts.Target
	temporary := target == ""

	if temporary {
		dir, err := m.TempDir()
		if err != nil {
			return workflow.None(), fmt.Errorf("failed to create mount point: %w", err)
		}
		target = dir
	} else {
		mounted, err := m.Mounted(target)
		if err != nil {
			return workflow.None(), fmt.Errorf("failed to inspect %s: %w", target, err)
		}
		if mounted {
			return workflow.None(), bmerrors.WithContext(
				bmerrors.Newf(bmerrors.ErrExternalTool, "%s is already a mount point", target),
				map[string]interface{}{"target": target})
		}
	}

	args := append(append([]string{}, opts.Args...), target)
	name, args := operations.Privileged(opts.Sudo, "mount", args...)
	if err := operations.StreamCommand(m.executor, ctx, nil, name, args...); err != nil {
		if temporary {
			os.Remove(target)
		}
		return workflow.None(), bmerrors.Wrap(err, bmerrors.ErrExternalTool, "mount failed")
	}

	release := func(ctx context.Context) error {
		name, args := operations.Privileged(opts.Sudo, "umount", target)
		if err := operations.StreamCommand(m.executor, ctx, nil, name, args...); err != nil {
			return bmerrors.Wrap(err, bmerrors.ErrExternalTool, "umount failed")
		}
		if temporary {
			if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove mount point %s: %w", target, err)
			}
		}
		return nil
	}

	return workflow.Scoped(target, release), nil
}

// Action returns a no-argument action mounting opts
func (m *Mounter) Action(opts Options) workflow.Action {
	return workflow.NoArg(func(ctx *workflow.ActionContext) (workflow.Result, error) {
		ctx.Logger.Debug("mounting %v (sudo=%t)", opts.Args, opts.Sudo)
		return m.Mount(ctx.GoContext, opts)
	}).Describe(fmt.Sprintf("mount %v", opts.Args))
}
