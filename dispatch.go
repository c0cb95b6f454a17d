package angrnative

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/magefile/mage/sh"
	"mvdan.cc/sh/v3/shell"

	"github.com/angr/angr-native-go/internal/logging"
)

// Build tool constants
const (
	nmakeProgram  = "nmake"
	makeProgram   = "make"
	nmakeMakefile = "Makefile-win"
	cleanTarget   = "clean"
)

// Candidate is one build command: the program followed by its arguments.
type Candidate []string

// Program returns the executable name, or "" for an empty candidate.
func (c Candidate) Program() string {
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

func (c Candidate) String() string {
	return strings.Join(c, " ")
}

// DefaultCandidates returns the build commands tried for the native library:
// nmake with the Windows Makefile first, then make.
//
// The generic candidate honors $MAKE and, when parallel is positive, runs
// make -j<parallel>.
func DefaultCandidates(parallel int) []Candidate {
	generic := makeCommand()
	if parallel > 0 {
		generic = append(generic, fmt.Sprintf("-j%d", parallel))
	}
	return []Candidate{
		{nmakeProgram, "/f", nmakeMakefile},
		generic,
	}
}

// makeCommand returns the generic build command, checking $MAKE first.
// $MAKE may carry arguments ("gmake -s") and is split with shell quoting rules.
func makeCommand() Candidate {
	makeEnv := strings.TrimSpace(os.Getenv("MAKE"))
	if makeEnv == "" {
		return Candidate{makeProgram}
	}
	fields, err := shell.Fields(makeEnv, nil)
	if err != nil || len(fields) == 0 {
		return Candidate{makeEnv}
	}
	return Candidate(fields)
}

// DispatchOptions controls how build tool candidates are run.
type DispatchOptions struct {
	Dir    string      // Working directory of the build tool
	Env    []string    // Complete environment of the build tool
	Output io.Writer   // Optional live copy of the tool output
	Logger *log.Logger // nil discards log output
}

// DispatchResult describes the candidate that succeeded.
type DispatchResult struct {
	Command Candidate
	Output  []string
}

// Dispatch runs the candidates in order until one succeeds.
//
// A candidate whose executable cannot be started is skipped. A candidate that
// starts and exits unsuccessfully stops the dispatch: the remaining candidates
// are not tried. Both failures are reported as a *BuildToolError.
func Dispatch(ctx context.Context, candidates []Candidate, opts DispatchOptions) (*DispatchResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	var unavailable []string
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(candidate) == 0 {
			continue
		}

		logger.Debug("running build tool", "command", candidate.String(), "dir", opts.Dir)
		output, err := runCandidate(ctx, candidate, opts)
		if err == nil {
			return &DispatchResult{Command: candidate, Output: output}, nil
		}

		if ran(err) {
			return nil, &BuildToolError{
				Candidates: candidates,
				Command:    candidate,
				ExitCode:   sh.ExitStatus(err),
				Output:     output,
				Err:        err,
			}
		}

		logger.Debug("build tool unavailable", "command", candidate.Program(), "error", err)
		unavailable = append(unavailable, fmt.Sprintf("%s: %v", candidate.Program(), err))
	}

	return nil, &BuildToolError{
		Candidates: candidates,
		Err:        errors.WithDetail(ErrNoBuildTool, strings.Join(unavailable, "\n")),
	}
}

// ran reports whether err came from a process that started and then failed,
// as opposed to one that could not be started at all.
func ran(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

func runCandidate(ctx context.Context, candidate Candidate, opts DispatchOptions) ([]string, error) {
	cmd := execCommandContext(ctx, candidate[0], candidate[1:]...)
	cmd.Dir = opts.Dir
	cmd.Env = opts.Env

	var buf bytes.Buffer
	var w io.Writer = &buf
	if opts.Output != nil {
		w = io.MultiWriter(&buf, opts.Output)
	}
	cmd.Stdout = w
	cmd.Stderr = w

	err := cmd.Run()
	return splitOutput(buf.String()), err
}

func splitOutput(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// dispatchBuild is the dispatch step of the native build.
func dispatchBuild(ctx context.Context, config *BuildConfig, overlay Overlay, result *BuildResult) error {
	env := overlay.Merge(config.Env).Environ(os.Environ())

	res, err := Dispatch(ctx, config.Candidates, DispatchOptions{
		Dir:    config.NativeDir,
		Env:    env,
		Output: config.Output,
		Logger: config.Logger,
	})
	if err != nil {
		var toolErr *BuildToolError
		if errors.As(err, &toolErr) {
			result.Output = append(result.Output, toolErr.Output...)
		}
		return err
	}

	result.Command = res.Command
	result.Output = append(result.Output, res.Output...)
	if config.Verbose {
		result.Output = append(result.Output,
			fmt.Sprintf("Running: %s", res.Command),
			fmt.Sprintf("Working directory: %s", config.NativeDir))
	}
	return nil
}

// CleanNative runs the clean target of the first build tool that can be
// started and removes the runtime data directory.
//
// Failures of the clean target itself are ignored since it may not exist.
func CleanNative(ctx context.Context, config *BuildConfig) error {
	cfg, err := config.resolved()
	if err != nil {
		return err
	}

	var cleaners []Candidate
	for _, c := range cfg.Candidates {
		if len(c) == 0 {
			continue
		}
		cleaner := append(Candidate{}, c...)
		cleaners = append(cleaners, append(cleaner, cleanTarget))
	}

	_, err = Dispatch(ctx, cleaners, DispatchOptions{
		Dir:    cfg.NativeDir,
		Env:    os.Environ(),
		Output: cfg.Output,
		Logger: cfg.Logger,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		cfg.Logger.Debug("clean target failed", "error", err)
	}

	if err := sh.Rm(cfg.LibDir); err != nil {
		return errors.Wrapf(err, "removing %s", cfg.LibDir)
	}
	return nil
}
