package cmd

import (
	bmerrors "github.com/davidroman0O/backupmenu/errors"
)

// Exit statuses
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitUnknownName  = 2
	ExitExternalTool = 3
	ExitRelease      = 4
	ExitLocked       = 75
	ExitInterrupted  = 130
)

// ExitCode maps an error to the process exit status. A release failure takes
// precedence over the error that aborted the chain.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case bmerrors.IsRelease(err):
		return ExitRelease
	case bmerrors.IsCancelled(err):
		return ExitInterrupted
	case bmerrors.IsUnknownOption(err), bmerrors.IsUnknownAction(err):
		return ExitUnknownName
	case bmerrors.IsExternalTool(err):
		return ExitExternalTool
	case bmerrors.IsLocked(err):
		return ExitLocked
	default:
		return ExitFailure
	}
}
