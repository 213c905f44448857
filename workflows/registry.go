package workflow

import (
	"fmt"
	"sort"

	bmerrors "github.com/davidroman0O/backupmenu/errors"
)

// ShowMountpointAction is the name of the built-in action opening a mount point
const ShowMountpointAction = "show mountpoint"

// Registry maps action names to actions.
//
// Built-ins are registered first; later registrations replace earlier ones, so
// user definitions take precedence over built-ins.
type Registry struct {
	actions  map[string]Action
	builtins map[string]bool
}

// NewRegistry creates a registry seeded with the given built-in actions
func NewRegistry(builtins map[string]Action) *Registry {
	r := &Registry{
		actions:  make(map[string]Action),
		builtins: make(map[string]bool),
	}
	for name, action := range builtins {
		r.actions[name] = action
		r.builtins[name] = true
	}
	return r
}

// Register adds or replaces an action
func (r *Registry) Register(name string, action Action) error {
	if name == "" {
		return bmerrors.New(bmerrors.ErrConfiguration, "action name cannot be empty")
	}
	if !action.valid() {
		return bmerrors.Newf(bmerrors.ErrConfiguration, "action '%s' has no body", name)
	}
	r.actions[name] = action
	delete(r.builtins, name)
	return nil
}

// Merge registers every action of the map on top of the current entries
func (r *Registry) Merge(actions map[string]Action) error {
	for _, name := range sortedKeys(actions) {
		if err := r.Register(name, actions[name]); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns the action registered under name
func (r *Registry) Resolve(name string) (Action, error) {
	action, ok := r.actions[name]
	if !ok {
		return Action{}, &bmerrors.Error{
			Code:    bmerrors.ErrUnknownAction,
			Message: fmt.Sprintf("action '%s' is not defined", name),
			Context: map[string]interface{}{"action": name},
		}
	}
	return action, nil
}

// Has reports whether name is registered
func (r *Registry) Has(name string) bool {
	_, ok := r.actions[name]
	return ok
}

// IsBuiltin reports whether name still resolves to a built-in action
func (r *Registry) IsBuiltin(name string) bool {
	return r.builtins[name]
}

// Names returns all registered names in lexical order
func (r *Registry) Names() []string {
	return sortedKeys(r.actions)
}

func sortedKeys(m map[string]Action) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
