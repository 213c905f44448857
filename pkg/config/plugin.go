package config

import (
	"fmt"
	"path/filepath"
	"plugin"

	bmerrors "github.com/davidroman0O/backupmenu/errors"
	workflow "github.com/davidroman0O/backupmenu/workflows"
)

// RegisterSymbol is the function every plugin exports
const RegisterSymbol = "Register"

// RegisterFunc is the signature of RegisterSymbol
type RegisterFunc = func(*workflow.Registry) error

// PluginPaths returns the plugin paths, relative ones resolved against the
// directory of the config file
func (f *File) PluginPaths() []string {
	paths := make([]string, len(f.Plugins))
	for i, p := range f.Plugins {
		if f.dir != "" && !filepath.IsAbs(p) {
			p = filepath.Join(f.dir, p)
		}
		paths[i] = p
	}
	return paths
}

// LoadPlugins opens each Go plugin and lets it register actions
func LoadPlugins(reg *workflow.Registry, paths []string) error {
	for _, path := range paths {
		p, err := plugin.Open(path)
		if err != nil {
			return bmerrors.Wrap(err, bmerrors.ErrConfiguration, fmt.Sprintf("failed to open plugin %s", path))
		}

		sym, err := p.Lookup(RegisterSymbol)
		if err != nil {
			return bmerrors.Wrap(err, bmerrors.ErrConfiguration, fmt.Sprintf("plugin %s has no %s function", path, RegisterSymbol))
		}

		register, ok := sym.(RegisterFunc)
		if !ok {
			return bmerrors.Newf(bmerrors.ErrConfiguration, "plugin %s: %s has type %T, want %T", path, RegisterSymbol, sym, RegisterFunc(nil))
		}

		if err := register(reg); err != nil {
			return bmerrors.Wrap(err, bmerrors.ErrConfiguration, fmt.Sprintf("plugin %s failed to register", path))
		}
	}
	return nil
}
