package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bmerrors "github.com/davidroman0O/backupmenu/errors"
	"github.com/davidroman0O/backupmenu/operations"
)

type harness struct {
	exec   *operations.MockExecutor
	out    bytes.Buffer
	errOut bytes.Buffer
	config string
	lock   string
}

func newHarness(t *testing.T, actionsAndOptions string) *harness {
	t.Helper()
	dir := t.TempDir()
	h := &harness{
		exec:   operations.NewMockExecutor(),
		config: filepath.Join(dir, "backup.yaml"),
		lock:   filepath.Join(dir, "backupmenu.lock"),
	}
	doc := "settings:\n  lock_file: " + h.lock + "\n" + actionsAndOptions
	require.NoError(t, os.WriteFile(h.config, []byte(doc), 0o600))
	return h
}

func (h *harness) run(stdin string, args ...string) int {
	return h.runContext(context.Background(), strings.NewReader(stdin), args...)
}

func (h *harness) runContext(ctx context.Context, stdin io.Reader, args ...string) int {
	root := newRootCommand(func(io.Reader, io.Writer, io.Writer) operations.CommandExecutor {
		return h.exec
	})
	root.SetContext(ctx)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(&h.out)
	root.SetErr(&h.errOut)
	return execute(root)
}

const chainConfig = `
title: ["* BACKUP *"]
actions:
  stamp:
    kind: exec
    exec: {command: "date +%Y", capture: true}
  notify:
    kind: exec
    exec: {command: "logger 'archive {input}'", pass_input: true}
  broken:
    kind: exec
    exec: {command: "false"}
options:
  stamp and notify: [stamp, notify]
  just stamp: [stamp]
  broken chain: [stamp, broken, notify]
`

func TestDirectOptionRunsChain(t *testing.T) {
	h := newHarness(t, chainConfig)
	h.exec.MockResponses["date +%Y"] = operations.MockResponse{Output: []byte("2024\n")}

	code := h.run("", "-c", h.config, "-o", "stamp and notify")

	assert.Equal(t, ExitOK, code, h.errOut.String())
	assert.Equal(t, []string{"date +%Y", "logger archive 2024"}, h.exec.Lines())
	out := h.out.String()
	assert.Contains(t, out, "executing 'stamp'\nexecuting 'notify'\n")
	assert.Contains(t, out, "Option 'stamp and notify': SUCCESS")
	assert.NotContains(t, out, "Menu:")
	assert.NotContains(t, out, ReadyPrompt)
}

func TestMenuSelectionMatchesDirectOption(t *testing.T) {
	h := newHarness(t, chainConfig)
	h.exec.MockResponses["date +%Y"] = operations.MockResponse{Output: []byte("2024\n")}

	code := h.run("abc\n9\n2\n", "-c", h.config)

	assert.Equal(t, ExitOK, code, h.errOut.String())
	out := h.out.String()
	assert.True(t, strings.HasPrefix(out, "* BACKUP *\nMenu:\n1: stamp and notify\n2: just stamp\n3: broken chain\n"))
	assert.Equal(t, 2, strings.Count(out, "Invalid choice!"))
	assert.Contains(t, out, "Option 'just stamp': SUCCESS")
	assert.Contains(t, out, "Result: 2024")

	direct := newHarness(t, chainConfig)
	direct.exec.MockResponses["date +%Y"] = operations.MockResponse{Output: []byte("2024\n")}
	require.Equal(t, ExitOK, direct.run("", "-c", direct.config, "-o", "just stamp"))
	assert.Equal(t, h.exec.Lines(), direct.exec.Lines())
}

func TestFailingActionAbortsChain(t *testing.T) {
	h := newHarness(t, chainConfig)
	h.exec.MockResponses["false"] = operations.MockResponse{Err: operations.ExitStatus(1)}

	code := h.run("", "-c", h.config, "-o", "broken chain")

	assert.Equal(t, ExitExternalTool, code)
	assert.Equal(t, []string{"date +%Y", "false"}, h.exec.Lines())
	assert.Contains(t, h.out.String(), "Option 'broken chain': FAILED")
	assert.NotContains(t, h.errOut.String(), "Error: ")
}

func TestInterruptWhileBrowsingUnmounts(t *testing.T) {
	target := t.TempDir()
	h := newHarness(t, `  browser: thunar
actions:
  mount disk:
    kind: mount
    mount:
      args: ["/dev/sdb1"]
      target: `+target+`
options:
  browse disk: [mount disk, show mountpoint]
`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.exec.OnCall = func(call operations.MockCall) {
		if call.Name == "thunar" {
			cancel()
		}
	}

	// nobody ever presses ENTER
	stdin, w := io.Pipe()
	defer w.Close()

	code := h.runContext(ctx, stdin, "-c", h.config, "-o", "browse disk")

	assert.Equal(t, ExitInterrupted, code, h.errOut.String())
	assert.Equal(t, []string{
		"mount /dev/sdb1 " + target,
		"thunar " + target,
		"umount " + target,
	}, h.exec.Lines())
	assert.Contains(t, h.out.String(), "Option 'browse disk': FAILED")
}

func TestInterruptedMenuRunsNothing(t *testing.T) {
	h := newHarness(t, chainConfig)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stdin, w := io.Pipe()
	defer w.Close()

	assert.Equal(t, ExitInterrupted, h.runContext(ctx, stdin, "-c", h.config))
	assert.Empty(t, h.exec.Calls)
}

func TestUnknownOptionRunsNothing(t *testing.T) {
	h := newHarness(t, chainConfig)

	code := h.run("", "-c", h.config, "-o", "stamp")

	assert.Equal(t, ExitUnknownName, code)
	assert.Empty(t, h.exec.Calls)
	assert.Contains(t, h.errOut.String(), "stamp")
}

func TestMissingConfigFile(t *testing.T) {
	h := newHarness(t, chainConfig)

	assert.Equal(t, ExitFailure, h.run("", "-c", filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Contains(t, h.errOut.String(), "could not find config file")

	h.errOut.Reset()
	assert.Equal(t, ExitFailure, h.run("", "-c", t.TempDir()))
	assert.Contains(t, h.errOut.String(), "could not find config file")

	h.errOut.Reset()
	assert.Equal(t, ExitFailure, h.run(""))
	assert.Contains(t, h.errOut.String(), "-c PATH")
}

func TestInvalidConfigRunsNothing(t *testing.T) {
	h := newHarness(t, "actions: {}\noptions:\n  one: [missing]\n")

	code := h.run("1\n", "-c", h.config)

	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, h.errOut.String(), "undefined action 'missing'")
	assert.NotContains(t, h.out.String(), "Menu:")
}

func TestSecondInstanceIsRefused(t *testing.T) {
	h := newHarness(t, chainConfig)
	held := flock.New(h.lock)
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer held.Unlock()

	code := h.run("", "-c", h.config, "-o", "just stamp")

	assert.Equal(t, ExitLocked, code)
	assert.Empty(t, h.exec.Calls)
}

func TestClosedInputEndsMenu(t *testing.T) {
	h := newHarness(t, chainConfig)

	code := h.run("0\n", "-c", h.config)

	assert.Equal(t, ExitFailure, code)
	assert.Empty(t, h.exec.Calls)
}

func TestBadLogLevel(t *testing.T) {
	h := newHarness(t, chainConfig)

	assert.Equal(t, ExitFailure, h.run("", "-c", h.config, "-o", "just stamp", "--log-level", "loud"))
	assert.Empty(t, h.exec.Calls)
}

func TestListCommand(t *testing.T) {
	h := newHarness(t, chainConfig)

	code := h.run("", "list", "-c", h.config)

	assert.Equal(t, ExitOK, code, h.errOut.String())
	out := h.out.String()
	assert.Contains(t, out, "1: stamp and notify\n   stamp -> notify\n")
	assert.Contains(t, out, "3: broken chain\n   stamp -> broken -> notify\n")
	assert.Contains(t, out, "  show mountpoint (built-in)\n")
	assert.Contains(t, out, "  stamp (exec)\n")
	assert.Empty(t, h.exec.Calls)
}

func TestSchemaCommand(t *testing.T) {
	h := newHarness(t, chainConfig)

	assert.Equal(t, ExitOK, h.run("", "schema"))
	assert.Contains(t, h.out.String(), `"$schema"`)
	assert.Contains(t, h.out.String(), `"options"`)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{bmerrors.New(bmerrors.ErrConfiguration, "x"), ExitFailure},
		{bmerrors.New(bmerrors.ErrUnknownOption, "x"), ExitUnknownName},
		{bmerrors.New(bmerrors.ErrUnknownAction, "x"), ExitUnknownName},
		{bmerrors.New(bmerrors.ErrExternalTool, "x"), ExitExternalTool},
		{bmerrors.New(bmerrors.ErrCancelled, "x"), ExitInterrupted},
		{bmerrors.New(bmerrors.ErrLocked, "x"), ExitLocked},
		{bmerrors.Wrap(bmerrors.New(bmerrors.ErrExternalTool, "x"), bmerrors.ErrRelease, "y"), ExitRelease},
		{reported{bmerrors.New(bmerrors.ErrExternalTool, "x")}, ExitExternalTool},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "%v", tt.err)
	}
}
