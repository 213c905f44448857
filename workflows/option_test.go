package workflow

import (
	"testing"

	bmerrors "github.com/davidroman0O/backupmenu/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsLookup(t *testing.T) {
	opts := Options{
		{Name: "backup", Actions: []string{"mount", "borg"}},
		{Name: "browse", Actions: []string{"mount", "borg mount", ShowMountpointAction}},
	}

	assert.Equal(t, []string{"backup", "browse"}, opts.Names())

	opt, err := opts.Lookup("browse")
	require.NoError(t, err)
	assert.Equal(t, []string{"mount", "borg mount", ShowMountpointAction}, opt.Actions)

	_, err = opts.Lookup("Browse")
	require.Error(t, err)
	assert.True(t, bmerrors.IsUnknownOption(err))
}

func TestOptionsValidate(t *testing.T) {
	reg := NewRegistry(map[string]Action{ShowMountpointAction: constant(nil)})
	require.NoError(t, reg.Register("mount", constant("/mnt")))

	tests := []struct {
		name    string
		options Options
		wantErr string
	}{
		{
			name:    "valid",
			options: Options{{Name: "a", Actions: []string{"mount", ShowMountpointAction}}},
		},
		{
			name:    "no options",
			options: Options{},
			wantErr: "no options defined",
		},
		{
			name:    "empty chain",
			options: Options{{Name: "a"}},
			wantErr: "option 'a' has no actions",
		},
		{
			name:    "dangling reference",
			options: Options{{Name: "a", Actions: []string{"mount", "borg"}}},
			wantErr: "references undefined action 'borg'",
		},
		{
			name:    "duplicate",
			options: Options{{Name: "a", Actions: []string{"mount"}}, {Name: "a", Actions: []string{"mount"}}},
			wantErr: "defined twice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.options.Validate(reg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, bmerrors.IsConfiguration(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
