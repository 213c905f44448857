package menu

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/davidroman0O/backupmenu/console"
	bmerrors "github.com/davidroman0O/backupmenu/errors"
	workflow "github.com/davidroman0O/backupmenu/workflows"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOptions = workflow.Options{
	{Name: "borg backup to local disk", Actions: []string{"mount local", "borg backup"}},
	{Name: "borg backup to NAS", Actions: []string{"mount NAS", "borg backup"}},
	{Name: "mount borg backup from NAS", Actions: []string{"mount NAS", "mount borg", workflow.ShowMountpointAction}},
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{input: "1", want: 0},
		{input: "3", want: 2},
		{input: " 2 ", want: 1},
		{input: "0", wantErr: true},
		{input: "-1", wantErr: true},
		{input: "4", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "1.0", wantErr: true},
		{input: "+1", wantErr: true},
		{input: "", wantErr: true},
		{input: "99999999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseChoice(tt.input, len(testOptions))
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, bmerrors.ErrInvalidSelection, bmerrors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPresentRepromptsUntilValid(t *testing.T) {
	var out bytes.Buffer
	c := console.New(strings.NewReader("0\n-1\nabc\n4\n2\n"), &out)
	p := NewPresenter(c)

	opt, err := p.Present(context.Background(), []string{"*****", "* BACKUP *", "*****"}, testOptions)

	require.NoError(t, err)
	assert.Equal(t, testOptions[1], opt)

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "*****\n* BACKUP *\n*****\nMenu:\n"))
	assert.Equal(t, 4, strings.Count(text, InvalidChoice))
	assert.Equal(t, 5, strings.Count(text, "Menu:"))
	assert.Contains(t, text, "1: borg backup to local disk\n2: borg backup to NAS\n3: mount borg backup from NAS\n")
	assert.Contains(t, text, "\nChoice: ")
}

func TestPresentStopsWhenInputCloses(t *testing.T) {
	c := console.New(strings.NewReader("7\n"), &bytes.Buffer{})

	_, err := NewPresenter(c).Present(context.Background(), nil, testOptions)

	require.Error(t, err)
	assert.True(t, bmerrors.IsInputClosed(err))
}

func TestPresentStopsWhenCancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	c := console.New(r, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPresenter(c).Present(ctx, nil, testOptions)

	require.Error(t, err)
	assert.True(t, bmerrors.IsCancelled(err))
}

func TestPresentWithoutOptions(t *testing.T) {
	c := console.New(strings.NewReader("1\n"), &bytes.Buffer{})

	_, err := NewPresenter(c).Present(context.Background(), nil, nil)

	assert.True(t, bmerrors.IsConfiguration(err))
}

func TestSelectMatchesInteractiveChoice(t *testing.T) {
	c := console.New(strings.NewReader("3\n"), &bytes.Buffer{})
	interactive, err := NewPresenter(c).Present(context.Background(), nil, testOptions)
	require.NoError(t, err)

	direct, err := Select(testOptions, "mount borg backup from NAS")
	require.NoError(t, err)

	assert.Equal(t, interactive, direct)

	_, err = Select(testOptions, "mount borg backup")
	assert.True(t, bmerrors.IsUnknownOption(err))
}
