package angrnative

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrNoBuildTool is wrapped by a BuildToolError when no candidate could be started.
var ErrNoBuildTool = errors.New("no usable build tool found")

// MissingPrerequisiteError reports upstream packages that are not importable.
// It is returned before any build tool runs.
type MissingPrerequisiteError struct {
	Packages []string
}

func (e *MissingPrerequisiteError) Error() string {
	return fmt.Sprintf("you must install %s before building angr_native", strings.Join(e.Packages, " and "))
}

func newMissingPrerequisiteError(packages []string) error {
	err := &MissingPrerequisiteError{Packages: packages}
	return errors.WithHint(err, "pip install "+strings.Join(packages, " "))
}

// BuildToolError reports a failed build tool dispatch.
//
// Command is nil when none of the candidates could be started; otherwise it
// is the candidate that ran and exited unsuccessfully.
type BuildToolError struct {
	Candidates []Candidate
	Command    Candidate
	ExitCode   int
	Output     []string
	Err        error
}

func (e *BuildToolError) Error() string {
	if e.Command == nil {
		tried := make([]string, 0, len(e.Candidates))
		for _, c := range e.Candidates {
			tried = append(tried, c.String())
		}
		return fmt.Sprintf("unable to build angr_native: %v (tried: %s)", e.Err, strings.Join(tried, ", "))
	}
	cause := errors.Newf("%s exited with status %d", e.Command, e.ExitCode)
	if e.ExitCode < 0 {
		cause = errors.Newf("%s was terminated", e.Command)
	}
	return "unable to build angr_native: " + BuildError(e.Command.Program(), e.Output, cause).Error()
}

func (e *BuildToolError) Unwrap() error {
	return e.Err
}

// BuildError creates a standardized build error with output context.
//
// With error and output:
//
//	make build failed: make exited with status 2
//
//	Build output:
//	cc -c sim_unicorn.cpp
//	sim_unicorn.cpp:1:10: fatal error: unicorn/unicorn.h: No such file or directory
//
// With output but no error:
//
//	make build failed
//
//	Build output:
//	... output lines ...
func BuildError(tool string, output []string, err error) error {
	outputStr := strings.TrimRight(strings.Join(output, "\n"), "\n")

	var prefix string
	if err != nil {
		prefix = fmt.Sprintf("%s build failed: %v", tool, err)
	} else {
		prefix = fmt.Sprintf("%s build failed", tool)
	}

	if outputStr != "" {
		return errors.Newf("%s\n\nBuild output:\n%s", prefix, outputStr)
	}

	return errors.Newf("%s", prefix)
}
