package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/collab/internal/roster"
	"github.com/mesh-intelligence/collab/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// userErrors are caused by the request rather than by storage: validation,
// malformed input, lookups, permissions and configuration.
var userErrors = []error{
	types.ErrInvalidID,
	types.ErrInvalidFilename,
	types.ErrInvalidTitle,
	types.ErrInvalidRevision,
	types.ErrInvalidProject,
	types.ErrInvalidField,
	types.ErrInvalidActor,
	types.ErrMalformedUpload,
	types.ErrNotFound,
	types.ErrNoRevisions,
	types.ErrPermissionDenied,
	types.ErrBackendEmpty,
	types.ErrBackendUnknown,
	types.ErrBlobDriverUnknown,
	types.ErrBlobBucketEmpty,
	types.ErrAttributionUnknown,
	types.ErrCacheSizeInvalid,
	roster.ErrUnknownUser,
	roster.ErrUnknownProject,
}

// exitError carries the process exit code for err.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userErr(err error) error { return &exitError{code: exitUserError, err: err} }
func sysErr(err error) error  { return &exitError{code: exitSysError, err: err} }

// classify attaches an exit code to err. Anything wrapping ErrTransaction is
// a storage failure even when it also wraps a validation sentinel.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	if errors.Is(err, types.ErrTransaction) {
		return sysErr(err)
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return userErr(err)
		}
	}
	return sysErr(err)
}

// runE adapts fn so every error it returns carries an exit code. Errors
// without one at the top level come from cobra itself and are usage errors.
func runE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return classify(fn(cmd, args))
	}
}

// ExitCode maps an error returned by the command tree to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}
