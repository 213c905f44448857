// Package remote runs commands on and fetches files from SSH hosts
package remote

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	bmerrors "github.com/davidroman0O/backupmenu/errors"
	"github.com/davidroman0O/backupmenu/operations"
	"github.com/davidroman0O/backupmenu/pkg/retry"
	workflow "github.com/davidroman0O/backupmenu/workflows"
)

const (
	// DefaultPort is the SSH port used when none is configured
	DefaultPort = 22

	// DefaultTimeout bounds the TCP connect and SSH handshake
	DefaultTimeout = 10 * time.Second
)

// Endpoint identifies an SSH host and how to authenticate on it
type Endpoint struct {
	Host           string `yaml:"host" json:"host" jsonschema:"required"`
	Port           int    `yaml:"port,omitempty" json:"port,omitempty"`
	User           string `yaml:"user" json:"user" jsonschema:"required"`
	Password       string `yaml:"password,omitempty" json:"password,omitempty"`
	KeyFile        string `yaml:"key_file,omitempty" json:"key_file,omitempty"`
	KeyPassphrase  string `yaml:"key_passphrase,omitempty" json:"key_passphrase,omitempty"`
	KnownHosts     string `yaml:"known_hosts,omitempty" json:"known_hosts,omitempty" jsonschema:"description=known_hosts file; host keys are not verified when empty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
	DialAttempts   int    `yaml:"dial_attempts,omitempty" json:"dial_attempts,omitempty" jsonschema:"description=TCP connect attempts before giving up; 3 when zero"`
}

// Validate checks that the endpoint can be dialled
func (e Endpoint) Validate() error {
	var problems []string
	if e.Host == "" {
		problems = append(problems, "host is required")
	}
	if e.User == "" {
		problems = append(problems, "user is required")
	}
	if e.Password == "" && e.KeyFile == "" {
		problems = append(problems, "either password or key_file is required")
	}
	if e.Port < 0 || e.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port %d is out of range", e.Port))
	}
	if e.DialAttempts < 0 {
		problems = append(problems, fmt.Sprintf("dial_attempts %d is negative", e.DialAttempts))
	}
	if len(problems) > 0 {
		return bmerrors.Newf(bmerrors.ErrConfiguration, "invalid ssh endpoint: %s", strings.Join(problems, ", "))
	}
	return nil
}

// Address returns host:port
func (e Endpoint) Address() string {
	port := e.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(e.Host, strconv.Itoa(port))
}

// Timeout returns the connect timeout
func (e Endpoint) Timeout() time.Duration {
	if e.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// DialBackoff returns the retry policy of the TCP connect
func (e Endpoint) DialBackoff() retry.Config {
	cfg := retry.DefaultConfig()
	if e.DialAttempts > 0 {
		cfg.MaxAttempts = e.DialAttempts
	}
	return cfg
}

// ClientConfig builds the SSH client configuration. Key authentication is
// offered before password authentication.
func (e Endpoint) ClientConfig() (*ssh.ClientConfig, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	var auth []ssh.AuthMethod
	if e.KeyFile != "" {
		signer, err := loadSigner(e.KeyFile, e.KeyPassphrase)
		if err != nil {
			return nil, err
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if e.Password != "" {
		auth = append(auth, ssh.Password(e.Password))
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if e.KnownHosts != "" {
		cb, err := knownhosts.New(e.KnownHosts)
		if err != nil {
			return nil, bmerrors.Wrap(err, bmerrors.ErrConfiguration, "failed to read known_hosts")
		}
		hostKeyCallback = cb
	}

	return &ssh.ClientConfig{
		User:            e.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         e.Timeout(),
	}, nil
}

func loadSigner(path, passphrase string) (ssh.Signer, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, bmerrors.Wrap(err, bmerrors.ErrConfiguration, "failed to read key file")
	}

	var signer ssh.Signer
	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(pemBytes, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(pemBytes)
	}
	if err != nil {
		return nil, bmerrors.Wrap(err, bmerrors.ErrConfiguration, fmt.Sprintf("failed to parse key file %s", path))
	}
	return signer, nil
}

// Dial connects to the endpoint. Refused or timed out TCP connects are retried
// with backoff; a failed SSH handshake is not.
func Dial(ctx context.Context, e Endpoint) (*ssh.Client, error) {
	return dial(ctx, e, workflow.NewDefaultLogger())
}

func dial(ctx context.Context, e Endpoint, logger workflow.Logger) (*ssh.Client, error) {
	config, err := e.ClientConfig()
	if err != nil {
		return nil, err
	}

	addr := e.Address()
	dialer := net.Dialer{Timeout: config.Timeout}

	var conn net.Conn
	backoff := e.DialBackoff()
	backoff.OnRetry = func(attempt int, err error) {
		logger.Warn("connect to %s failed (attempt %d of %d): %v", addr, attempt, backoff.MaxAttempts, err)
	}
	err = retry.WithBackoff(ctx, retry.WithRetryable(func(ctx context.Context) error {
		var err error
		conn, err = dialer.DialContext(ctx, "tcp", addr)
		return err
	}), backoff)
	if err != nil {
		return nil, bmerrors.Wrap(err, bmerrors.ErrExternalTool, fmt.Sprintf("failed to dial %s", addr))
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, bmerrors.Wrap(err, bmerrors.ErrExternalTool, fmt.Sprintf("ssh handshake with %s failed", addr))
	}
	return ssh.NewClient(c, chans, reqs), nil
}

// Run executes command on the client and returns its trimmed stdout
func Run(ctx context.Context, client *ssh.Client, command string) (string, error) {
	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		session.Signal(ssh.SIGTERM)
		return "", ctx.Err()
	case err := <-done:
		if err != nil {
			return "", bmerrors.Wrap(
				operations.NewCommandError("ssh", []string{client.User() + "@" + client.RemoteAddr().String(), command}, stderr.String(), err),
				bmerrors.ErrExternalTool, "remote command failed")
		}
	}
	return strings.TrimSpace(stdout.String()), nil
}

// RunAction returns an action running command on the endpoint. With
// passInput the action consumes the previous result, which replaces
// {input} in the command.
func RunAction(e Endpoint, command string, passInput bool) workflow.Action {
	run := func(ctx *workflow.ActionContext, input any) (workflow.Result, error) {
		cmd := operations.ExpandInput([]string{command}, input)[0]
		ctx.Logger.Info("ssh %s@%s: %s", e.User, e.Address(), cmd)

		client, err := dial(ctx.GoContext, e, ctx.Logger)
		if err != nil {
			return workflow.None(), err
		}
		defer client.Close()

		out, err := Run(ctx.GoContext, client, cmd)
		if err != nil {
			return workflow.None(), err
		}
		return workflow.Plain(out), nil
	}

	if passInput {
		return workflow.WithArg(run).Describe("ssh " + e.Host)
	}
	return workflow.NoArg(func(ctx *workflow.ActionContext) (workflow.Result, error) {
		return run(ctx, nil)
	}).Describe("ssh " + e.Host)
}
