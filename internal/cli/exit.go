package cli

import (
	"errors"

	pyext "github.com/contriboss/python-extension-go"
)

// ExitCode maps an error returned by Execute to a process exit status.
//
// A failed build stage propagates the tool's own exit status; every other
// failure, a missing build tool included, exits with 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var stageErr *pyext.StageError
	if errors.As(err, &stageErr) && stageErr.Code > 0 {
		return stageErr.Code
	}

	return 1
}
