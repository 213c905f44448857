// Package borg wraps the borg command line: creating archives and mounting
// repositories for browsing
package borg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/davidroman0O/backupmenu/console"
	bmerrors "github.com/davidroman0O/backupmenu/errors"
	"github.com/davidroman0O/backupmenu/operations"
	"github.com/davidroman0O/backupmenu/pkg/retry"
	workflow "github.com/davidroman0O/backupmenu/workflows"
)

const (
	// DefaultBinary is the borg executable looked up in PATH
	DefaultBinary = "borg"

	// ArchiveTimeFormat names archives after their creation time
	ArchiveTimeFormat = "20060102-150405"

	relocatedRepoEnv = "BORG_RELOCATED_REPO_ACCESS_IS_OK=yes"
)

// BackupOptions describe one borg create run
type BackupOptions struct {
	// Repo is the repository path. A relative path is resolved against the
	// previous result when that is a directory path.
	Repo        string
	Sources     []string
	ExcludeFrom string
}

// MountOptions describe one borg mount
type MountOptions struct {
	Repo string
}

// Client runs borg through a command executor
type Client struct {
	executor operations.CommandExecutor
	prompter console.Prompter

	// Binary is the borg executable
	Binary string

	// UnmountRetries bounds the umount attempts of a mount release. With a
	// prompter, zero retries until umount succeeds; without one, zero keeps
	// the bound of Backoff.
	UnmountRetries int

	// Backoff paces umount retries when there is no prompter to wait on
	Backoff retry.Config

	Logger workflow.Logger

	Now     func() time.Time
	TempDir func() (string, error)
}

// New creates a borg client. prompter is asked before every umount retry; a
// nil prompter retries on a bounded exponential backoff instead.
func New(executor operations.CommandExecutor, prompter console.Prompter) *Client {
	backoff := retry.DefaultConfig()
	backoff.MaxAttempts = 5

	return &Client{
		executor: executor,
		prompter: prompter,
		Binary:   DefaultBinary,
		Backoff:  backoff,
		Logger:   workflow.NewDefaultLogger(),
		Now:      time.Now,
		TempDir:  func() (string, error) { return os.MkdirTemp("", "backupmenu-borg-") },
	}
}

// RepoPath resolves repo against the previous result of the chain
func RepoPath(input any, repo string) (string, error) {
	if input == nil || filepath.IsAbs(repo) {
		return repo, nil
	}
	base, ok := input.(string)
	if !ok {
		return "", bmerrors.Newf(bmerrors.ErrConfiguration,
			"cannot resolve repository %q against a %T", repo, input)
	}
	return filepath.Join(base, repo), nil
}

// Backup creates a new archive named after the current time and returns the
// archive name. borg warnings (exit status 1) count as success.
func (c *Client) Backup(ctx context.Context, input any, opts BackupOptions) (workflow.Result, error) {
	repo, err := RepoPath(input, opts.Repo)
	if err != nil {
		return workflow.None(), err
	}

	name := c.Now().Format(ArchiveTimeFormat)
	args := []string{"create", "--list", "--filter=AME", repo + "::" + name}
	args = append(args, opts.Sources...)
	if opts.ExcludeFrom != "" {
		args = append(args, "--exclude-from="+opts.ExcludeFrom)
	}

	err = operations.StreamCommand(c.executor, ctx, []string{relocatedRepoEnv}, c.Binary, args...)
	switch code := operations.ExitCode(err); code {
	case 0, 1:
		return workflow.Plain(name), nil
	default:
		return workflow.None(), bmerrors.WithContext(
			bmerrors.Wrap(err, bmerrors.ErrExternalTool, fmt.Sprintf("borg create returned error-code %d", code)),
			map[string]interface{}{"exit_code": code, "repo": repo})
	}
}

// Mount mounts the repository on a temporary directory and returns the
// directory as a scoped result
func (c *Client) Mount(ctx context.Context, input any, opts MountOptions) (workflow.Result, error) {
	repo, err := RepoPath(input, opts.Repo)
	if err != nil {
		return workflow.None(), err
	}

	target, err := c.TempDir()
	if err != nil {
		return workflow.None(), fmt.Errorf("failed to create mount point: %w", err)
	}

	if err := operations.StreamCommand(c.executor, ctx, nil, c.Binary, "mount", repo, target); err != nil {
		os.Remove(target)
		return workflow.None(), bmerrors.Wrap(err, bmerrors.ErrExternalTool, "borg mount failed")
	}

	return workflow.Scoped(target, func(ctx context.Context) error {
		return c.unmount(ctx, target)
	}), nil
}

func (c *Client) unmount(ctx context.Context, target string) error {
	umount := func(ctx context.Context) error {
		_, err := operations.ExecuteCommand(c.executor, ctx, c.Binary, "umount", target)
		return retry.NewRetryableError(err)
	}

	cfg := c.Backoff
	if c.UnmountRetries > 0 {
		cfg.MaxAttempts = c.UnmountRetries
	}
	if c.prompter != nil {
		cfg = retry.Interactive(c.UnmountRetries, func(ctx context.Context, attempt int, lastErr error) error {
			_, err := c.prompter.Prompt(ctx, fmt.Sprintf("Error %s, RETURN to retry", failureOutput(lastErr)))
			return err
		})
	}
	cfg.OnRetry = func(attempt int, err error) {
		c.logger().Warn("borg umount %s attempt %d failed: %s", target, attempt, failureOutput(err))
	}

	if err := retry.WithBackoff(ctx, umount, cfg); err != nil {
		return bmerrors.Wrap(err, bmerrors.ErrExternalTool, "borg umount failed")
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove mount point %s: %w", target, err)
	}
	return nil
}

func (c *Client) logger() workflow.Logger {
	if c.Logger == nil {
		return workflow.NewDefaultLogger()
	}
	return c.Logger
}

func failureOutput(err error) string {
	var cmdErr *operations.CommandError
	if errors.As(err, &cmdErr) {
		if out := strings.TrimSpace(cmdErr.Output); out != "" {
			return out
		}
		return cmdErr.Err.Error()
	}
	return err.Error()
}

// BackupAction returns a one-argument action running Backup
func (c *Client) BackupAction(opts BackupOptions) workflow.Action {
	return workflow.WithArg(func(ctx *workflow.ActionContext, input any) (workflow.Result, error) {
		ctx.Logger.Info("borg create %s from %v", opts.Repo, opts.Sources)
		return c.Backup(ctx.GoContext, input, opts)
	}).Describe("borg backup to " + opts.Repo)
}

// MountAction returns a one-argument action running Mount
func (c *Client) MountAction(opts MountOptions) workflow.Action {
	return workflow.WithArg(func(ctx *workflow.ActionContext, input any) (workflow.Result, error) {
		ctx.Logger.Info("borg mount %s", opts.Repo)
		return c.Mount(ctx.GoContext, input, opts)
	}).Describe("borg mount " + opts.Repo)
}
