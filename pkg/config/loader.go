// Package config loads the launcher configuration file and turns it into a
// populated action registry
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kballard/go-shellquote"
	"gopkg.in/yaml.v3"

	bmerrors "github.com/davidroman0O/backupmenu/errors"
)

// LoadFile loads a configuration file and returns the parsed File.
//
// JSON files go through the YAML decoder too, so option order is kept for
// both formats. Unknown keys are rejected.
func LoadFile(path string) (*File, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml", ".json":
	default:
		return nil, bmerrors.Newf(bmerrors.ErrConfiguration, "unsupported config file format: %s", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, bmerrors.Wrap(err, bmerrors.ErrConfiguration, "failed to read config file")
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, bmerrors.WithOp(err, path)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes and checks a configuration document
func Parse(data []byte) (*File, error) {
	cfg := &File{}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, bmerrors.New(bmerrors.ErrConfiguration, "config file is empty")
		}
		return nil, bmerrors.Wrap(err, bmerrors.ErrConfiguration, "failed to parse config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the document on its own. References between options and
// actions are checked once the registry is built, since plugins may add
// actions.
func (f *File) Validate() error {
	var problems []string

	if f.Actions == nil {
		problems = append(problems, "'actions' is required")
	}
	if f.Options == nil {
		problems = append(problems, "'options' is required")
	}
	if f.Settings.UnmountRetries < 0 {
		problems = append(problems, "settings.unmount_retries cannot be negative")
	}

	names := make([]string, 0, len(f.Actions))
	for name := range f.Actions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := f.Actions[name].validate(); err != nil {
			problems = append(problems, fmt.Sprintf("action '%s': %v", name, err))
		}
	}

	if len(problems) > 0 {
		return bmerrors.New(bmerrors.ErrConfiguration, "invalid config:\n- "+strings.Join(problems, "\n- "))
	}
	return nil
}

func (a ActionSpec) validate() error {
	blocks := map[string]bool{
		KindMount:      a.Mount != nil,
		KindBorgBackup: a.Borg != nil,
		KindBorgMount:  a.Borg != nil,
		KindExec:       a.Exec != nil,
		KindSSH:        a.SSH != nil,
		KindSFTPGet:    a.SFTP != nil,
	}

	present, known := blocks[a.Kind]
	if !known {
		return fmt.Errorf("unknown kind %q, expected one of %s", a.Kind, strings.Join(Kinds, ", "))
	}
	if !present {
		return fmt.Errorf("kind %q needs a '%s' block", a.Kind, blockName(a.Kind))
	}

	switch a.Kind {
	case KindBorgBackup:
		if a.Borg.Repo == "" {
			return errors.New("borg.repo is required")
		}
		if len(a.Borg.Sources) == 0 {
			return errors.New("borg.sources needs at least one path")
		}
	case KindBorgMount:
		if a.Borg.Repo == "" {
			return errors.New("borg.repo is required")
		}
	case KindExec:
		args, err := shellquote.Split(a.Exec.Command)
		if err != nil {
			return fmt.Errorf("exec.command: %w", err)
		}
		if len(args) == 0 {
			return errors.New("exec.command is empty")
		}
	case KindSSH:
		if err := a.SSH.Endpoint.Validate(); err != nil {
			return err
		}
		if a.SSH.Command == "" {
			return errors.New("ssh.command is required")
		}
	case KindSFTPGet:
		if err := a.SFTP.Endpoint.Validate(); err != nil {
			return err
		}
		if a.SFTP.RemotePath == "" {
			return errors.New("sftp.remote_path is required")
		}
	}
	return nil
}

func blockName(kind string) string {
	switch kind {
	case KindBorgBackup, KindBorgMount:
		return "borg"
	case KindSFTPGet:
		return "sftp"
	}
	return kind
}
