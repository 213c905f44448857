package workflow

import (
	"context"
	"testing"

	bmerrors "github.com/davidroman0O/backupmenu/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constant(v any) Action {
	return NoArg(func(ctx *ActionContext) (Result, error) { return Plain(v), nil })
}

func TestRegistryUserEntriesOverrideBuiltins(t *testing.T) {
	reg := NewRegistry(map[string]Action{
		ShowMountpointAction: constant("builtin"),
	})
	assert.True(t, reg.IsBuiltin(ShowMountpointAction))

	require.NoError(t, reg.Merge(map[string]Action{
		ShowMountpointAction: constant("user"),
		"other":              constant("other"),
	}))

	assert.False(t, reg.IsBuiltin(ShowMountpointAction))
	assert.Equal(t, []string{"other", ShowMountpointAction}, reg.Names())

	runner := NewRunner(reg)
	value, err := runner.Execute(context.Background(), []string{ShowMountpointAction})
	require.NoError(t, err)
	assert.Equal(t, "user", value)
}

func TestRegistryResolveUnknown(t *testing.T) {
	reg := NewRegistry(nil)

	_, err := reg.Resolve("nope")

	require.Error(t, err)
	assert.True(t, bmerrors.IsUnknownAction(err))
	assert.Equal(t, "nope", bmerrors.GetContext(err)["action"])
	assert.False(t, reg.Has("nope"))
}

func TestRegistryRejectsInvalidActions(t *testing.T) {
	reg := NewRegistry(nil)

	assert.True(t, bmerrors.IsConfiguration(reg.Register("", constant(1))))
	assert.True(t, bmerrors.IsConfiguration(reg.Register("zero", Action{})))
	assert.True(t, bmerrors.IsConfiguration(reg.Register("nil body", NoArg(nil))))
	assert.True(t, bmerrors.IsConfiguration(reg.Register("bad overlay", WithEnv(nil, Action{}))))
}

func TestActionTags(t *testing.T) {
	noArg := constant(1)
	withArg := WithArg(func(ctx *ActionContext, input any) (Result, error) { return Plain(input), nil })
	overlay := WithEnv(map[string]string{"B": "2", "A": "1"}, withArg.Describe("echo"))

	assert.Equal(t, NoInput, noArg.Arity())
	assert.False(t, noArg.AcceptsInput())
	assert.Equal(t, WithInput, withArg.Arity())
	assert.True(t, withArg.AcceptsInput())

	assert.Equal(t, Overlay, overlay.Arity())
	assert.True(t, overlay.AcceptsInput())
	assert.Equal(t, "echo", overlay.Description())
	assert.Equal(t, []EnvVar{{Name: "A", Value: "1"}, {Name: "B", Value: "2"}}, overlay.Overlay())

	inner, ok := overlay.Inner()
	require.True(t, ok)
	assert.Equal(t, WithInput, inner.Arity())

	_, ok = noArg.Inner()
	assert.False(t, ok)

	assert.Equal(t, "env-overlay", Overlay.String())
}

func TestResultTags(t *testing.T) {
	assert.False(t, None().IsScoped())
	assert.Nil(t, None().Value())
	assert.False(t, Plain("x").IsScoped())

	scoped := Scoped("/mnt", nil)
	assert.True(t, scoped.IsScoped())
	assert.Equal(t, "/mnt", scoped.Value())
}
