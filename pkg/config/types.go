package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/davidroman0O/backupmenu/pkg/remote"
	workflow "github.com/davidroman0O/backupmenu/workflows"
)

// Action kinds
const (
	KindMount      = "mount"
	KindBorgBackup = "borg-backup"
	KindBorgMount  = "borg-mount"
	KindExec       = "exec"
	KindSSH        = "ssh"
	KindSFTPGet    = "sftp-get"
)

// Kinds lists every supported action kind
var Kinds = []string{KindMount, KindBorgBackup, KindBorgMount, KindExec, KindSSH, KindSFTPGet}

// File represents the structure of the configuration file
type File struct {
	Title    []string              `yaml:"title,omitempty" json:"title,omitempty" jsonschema:"description=Lines printed above the menu"`
	Settings Settings              `yaml:"settings,omitempty" json:"settings,omitempty"`
	Plugins  []string              `yaml:"plugins,omitempty" json:"plugins,omitempty" jsonschema:"description=Go plugins exporting Register(*workflow.Registry) error"`
	Actions  map[string]ActionSpec `yaml:"actions" json:"actions" jsonschema:"required"`
	Options  OptionList            `yaml:"options" json:"options" jsonschema:"required"`

	dir string
}

// Settings tune the built-in action kinds and the launcher itself
type Settings struct {
	BorgBinary     string `yaml:"borg_binary,omitempty" json:"borg_binary,omitempty" jsonschema:"default=borg"`
	UnmountRetries int    `yaml:"unmount_retries,omitempty" json:"unmount_retries,omitempty" jsonschema:"minimum=0,description=Attempts of borg umount before giving up; 0 retries until it succeeds"`
	LockFile       string `yaml:"lock_file,omitempty" json:"lock_file,omitempty"`
	Browser        string `yaml:"browser,omitempty" json:"browser,omitempty" jsonschema:"description=Program opening mount points; the desktop default when empty"`
}

// Borg returns the borg executable
func (s Settings) Borg() string {
	if s.BorgBinary == "" {
		return "borg"
	}
	return s.BorgBinary
}

// LockPath returns the single-instance lock file
func (s Settings) LockPath() string {
	if s.LockFile != "" {
		return s.LockFile
	}
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "backupmenu.lock")
}

// ActionSpec declares one named action. Exactly the block matching Kind is used.
type ActionSpec struct {
	Kind        string            `yaml:"kind" json:"kind" jsonschema:"required,enum=mount,enum=borg-backup,enum=borg-mount,enum=exec,enum=ssh,enum=sftp-get"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Env         map[string]string `yaml:"env,omitempty" json:"env,omitempty" jsonschema:"description=Variables set in the process environment before the action runs"`

	Mount *MountSpec `yaml:"mount,omitempty" json:"mount,omitempty"`
	Borg  *BorgSpec  `yaml:"borg,omitempty" json:"borg,omitempty"`
	Exec  *ExecSpec  `yaml:"exec,omitempty" json:"exec,omitempty"`
	SSH   *SSHSpec   `yaml:"ssh,omitempty" json:"ssh,omitempty"`
	SFTP  *SFTPSpec  `yaml:"sftp,omitempty" json:"sftp,omitempty"`
}

// MountSpec configures a mount action
type MountSpec struct {
	Args   []string `yaml:"args,omitempty" json:"args,omitempty" jsonschema:"description=Arguments passed to mount before the target"`
	Target string   `yaml:"target,omitempty" json:"target,omitempty" jsonschema:"description=Mount point; a temporary directory when empty"`
	Sudo   bool     `yaml:"sudo,omitempty" json:"sudo,omitempty"`
}

// BorgSpec configures borg-backup and borg-mount actions
type BorgSpec struct {
	Repo        string   `yaml:"repo" json:"repo" jsonschema:"required,description=Repository path; relative paths are resolved against the previous result"`
	Sources     []string `yaml:"sources,omitempty" json:"sources,omitempty"`
	ExcludeFrom string   `yaml:"exclude_from,omitempty" json:"exclude_from,omitempty"`
}

// ExecSpec configures an exec action
type ExecSpec struct {
	Command   string `yaml:"command" json:"command" jsonschema:"required,description=Command line split with shell quoting rules; {input} is replaced by the previous result"`
	Capture   bool   `yaml:"capture,omitempty" json:"capture,omitempty" jsonschema:"description=Return trimmed output as the result instead of streaming it"`
	PassInput bool   `yaml:"pass_input,omitempty" json:"pass_input,omitempty"`
	Sudo      bool   `yaml:"sudo,omitempty" json:"sudo,omitempty"`
}

// SSHSpec configures an ssh action
type SSHSpec struct {
	remote.Endpoint `yaml:",inline"`
	Command         string `yaml:"command" json:"command" jsonschema:"required"`
	PassInput       bool   `yaml:"pass_input,omitempty" json:"pass_input,omitempty"`
}

// SFTPSpec configures an sftp-get action
type SFTPSpec struct {
	remote.Endpoint `yaml:",inline"`
	RemotePath      string `yaml:"remote_path" json:"remote_path" jsonschema:"required"`
}

// OptionList keeps options in file order. It is written as a mapping from
// option name to the list of action names.
type OptionList []workflow.Option

// UnmarshalYAML decodes the mapping node pair by pair so order survives
func (l *OptionList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: options must be a mapping of option name to action names", node.Line)
	}

	list := make(OptionList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		var name string
		if err := keyNode.Decode(&name); err != nil {
			return fmt.Errorf("line %d: option name: %w", keyNode.Line, err)
		}

		var actions []string
		if err := valueNode.Decode(&actions); err != nil {
			return fmt.Errorf("line %d: option '%s' must list action names: %w", valueNode.Line, name, err)
		}
		list = append(list, workflow.Option{Name: name, Actions: actions})
	}

	*l = list
	return nil
}

// MarshalYAML writes the list back as an ordered mapping
func (l OptionList) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, opt := range l {
		var value yaml.Node
		if err := value.Encode(opt.Actions); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: opt.Name},
			&value)
	}
	return node, nil
}

// JSONSchema describes the list as an object of string arrays
func (OptionList) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "object",
		Description: "Menu options in display order, each naming the actions it runs",
		AdditionalProperties: &jsonschema.Schema{
			Type:     "array",
			MinItems: uintPtr(1),
			Items:    &jsonschema.Schema{Type: "string"},
		},
	}
}

func uintPtr(v uint64) *uint64 {
	return &v
}

// MenuOptions returns the options in file order
func (f *File) MenuOptions() workflow.Options {
	return workflow.Options(f.Options)
}
