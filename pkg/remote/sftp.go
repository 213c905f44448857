package remote

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/sftp"

	bmerrors "github.com/davidroman0O/backupmenu/errors"
	workflow "github.com/davidroman0O/backupmenu/workflows"
)

// Download copies remotePath into localDir and returns the local file path
func Download(client *sftp.Client, remotePath, localDir string) (string, error) {
	src, err := client.Open(remotePath)
	if err != nil {
		return "", bmerrors.Wrap(err, bmerrors.ErrExternalTool, fmt.Sprintf("failed to open remote file %s", remotePath))
	}
	defer src.Close()

	localPath := filepath.Join(localDir, path.Base(remotePath))
	dst, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create local file %s: %w", localPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(localPath)
		return "", bmerrors.Wrap(err, bmerrors.ErrExternalTool, "failed to copy content from remote")
	}
	return localPath, nil
}

// Fetcher downloads remote files into temporary directories
type Fetcher struct {
	// Connect opens an SFTP session; the returned func closes it
	Connect func(ctx context.Context, e Endpoint) (*sftp.Client, func(), error)

	TempDir func() (string, error)
}

// NewFetcher creates a fetcher dialling real SSH hosts
func NewFetcher() *Fetcher {
	return &Fetcher{
		Connect: connectSFTP,
		TempDir: func() (string, error) { return os.MkdirTemp("", "backupmenu-sftp-") },
	}
}

func connectSFTP(ctx context.Context, e Endpoint) (*sftp.Client, func(), error) {
	sshClient, err := Dial(ctx, e)
	if err != nil {
		return nil, nil, err
	}
	client, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, nil, bmerrors.Wrap(err, bmerrors.ErrExternalTool, "sftp client creation failed")
	}
	return client, func() {
		client.Close()
		sshClient.Close()
	}, nil
}

// Fetch downloads remotePath into a fresh temporary directory. The result is
// the local file path; releasing it removes the directory.
func (f *Fetcher) Fetch(ctx context.Context, e Endpoint, remotePath string) (workflow.Result, error) {
	client, closeFn, err := f.Connect(ctx, e)
	if err != nil {
		return workflow.None(), err
	}
	defer closeFn()

	dir, err := f.TempDir()
	if err != nil {
		return workflow.None(), fmt.Errorf("failed to create download directory: %w", err)
	}

	local, err := Download(client, remotePath, dir)
	if err != nil {
		os.RemoveAll(dir)
		return workflow.None(), err
	}

	return workflow.Scoped(local, func(context.Context) error {
		return os.RemoveAll(dir)
	}), nil
}

// FetchAction returns a no-argument action running Fetch
func (f *Fetcher) FetchAction(e Endpoint, remotePath string) workflow.Action {
	return workflow.NoArg(func(ctx *workflow.ActionContext) (workflow.Result, error) {
		ctx.Logger.Info("sftp get %s:%s", e.Address(), remotePath)
		return f.Fetch(ctx.GoContext, e, remotePath)
	}).Describe(fmt.Sprintf("fetch %s from %s", remotePath, e.Host))
}
