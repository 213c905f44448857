package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := &Error{Code: ErrExternalTool, Op: "borg create", Message: "exit status 2"}
	assert.Equal(t, "borg create: exit status 2", err.Error())

	cause := errors.New("boom")
	err = &Error{Code: ErrConfiguration, Message: "load failed", Cause: cause}
	assert.Equal(t, "load failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestCodesSurviveWrapping(t *testing.T) {
	base := New(ErrUnknownAction, "action 'x' not found")
	wrapped := fmt.Errorf("chain A: %w", base)

	assert.Equal(t, ErrUnknownAction, GetCode(wrapped))
	assert.True(t, IsUnknownAction(wrapped))
	assert.False(t, IsUnknownOption(wrapped))
}

func TestHasCodeLooksThroughJoinedErrors(t *testing.T) {
	chainErr := New(ErrExternalTool, "mount failed")
	releaseErr := New(ErrRelease, "umount failed")
	joined := errors.Join(chainErr, releaseErr)

	assert.True(t, IsExternalTool(joined))
	assert.True(t, IsRelease(joined))
	assert.False(t, IsConfiguration(joined))
}

func TestHasCodeLooksPastOuterCode(t *testing.T) {
	inner := New(ErrCancelled, "interrupted")
	outer := Wrap(inner, ErrRelease, "unwind")

	assert.Equal(t, ErrRelease, GetCode(outer))
	assert.True(t, IsCancelled(outer))
}

func TestWithOpAndContext(t *testing.T) {
	err := WithOp(New(ErrConfiguration, "missing options"), "load config")
	assert.Equal(t, "load config: missing options", err.Error())
	assert.True(t, IsConfiguration(err))

	err = WithContext(err, map[string]interface{}{"path": "/etc/backup.yaml"})
	assert.Equal(t, "/etc/backup.yaml", GetContext(err)["path"])
	assert.Equal(t, ErrConfiguration, GetCode(err))

	assert.Nil(t, WithOp(nil, "noop"))
	assert.Nil(t, Wrap(nil, ErrRelease, "noop"))

	plain := WithOp(errors.New("raw"), "op")
	assert.Equal(t, ErrUnknown, GetCode(plain))
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "unknown option", ErrUnknownOption.String())
	assert.Equal(t, "code(99)", ErrorCode(99).String())
}

func TestLocked(t *testing.T) {
	err := Wrap(errors.New("resource temporarily unavailable"), ErrLocked, "another run is active")
	assert.True(t, IsLocked(err))
	assert.Equal(t, "locked", ErrLocked.String())
}
