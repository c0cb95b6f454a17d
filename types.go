package angrnative

import (
	"context"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/angr/angr-native-go/internal/logging"
)

// Default locations relative to the project root.
const (
	DefaultNativeDir = "native"
	DefaultLibDir    = "angr/lib"
)

// BuildResult contains the output and status of a native build.
//
// After a build completes, this structure provides:
//   - Success status indicating the artifact was installed
//   - Output lines captured from the build tool (stdout/stderr)
//   - The candidate command that produced the artifact
//   - The environment overlay handed to the build tool
//   - The installed artifact path
type BuildResult struct {
	Success  bool      // True once the artifact has been installed
	Output   []string  // Lines of output from the build tool
	Command  Candidate // Candidate that ran successfully
	Overlay  Overlay   // Resolved dependency variables
	Artifact string    // Absolute path of the installed artifact
	Error    error     // Error if the build failed, nil otherwise
}

// BuildConfig contains configuration for the native build.
//
// Source paths:
//   - ProjectDir: Root of the package tree (defaults to the working directory)
//   - NativeDir: Directory holding the native sources and Makefiles
//   - LibDir: Runtime data directory receiving the artifact
//
// Relative NativeDir and LibDir are resolved against ProjectDir.
//
// Dependency discovery:
//   - Required: Packages that must be importable before building
//   - Dependencies: Variable/package/resource triples for the overlay
//   - Finder: Resolves installed package locations
//
// Build tool:
//   - Candidates: Ordered build commands, first success wins
//   - Env: Extra variables for the build tool, applied after the overlay
//   - Parallel: Number of parallel jobs passed to make -j (0 = default)
type BuildConfig struct {
	// Source paths
	ProjectDir string
	NativeDir  string
	LibDir     string

	// Dependency discovery
	Required     []string
	Dependencies []Dependency
	Finder       PackageFinder

	// Build tool
	Candidates []Candidate
	Env        map[string]string
	Parallel   int

	// Host description; zero value means DetectHost()
	Host Host

	// Output options
	Verbose bool
	Output  io.Writer   // Streams build tool output when set
	Logger  *log.Logger // nil discards log output
}

// resolved returns a copy of the config with defaults filled in and paths made absolute.
func (c *BuildConfig) resolved() (*BuildConfig, error) {
	out := *c

	if out.ProjectDir == "" {
		out.ProjectDir = "."
	}
	abs, err := filepath.Abs(out.ProjectDir)
	if err != nil {
		return nil, err
	}
	out.ProjectDir = abs

	if out.NativeDir == "" {
		out.NativeDir = DefaultNativeDir
	}
	if out.LibDir == "" {
		out.LibDir = DefaultLibDir
	}
	out.NativeDir = out.projectPath(out.NativeDir)
	out.LibDir = out.projectPath(out.LibDir)

	if out.Required == nil {
		out.Required = RequiredPackages
	}
	if out.Dependencies == nil {
		out.Dependencies = DefaultDependencies
	}
	if out.Finder == nil {
		out.Finder = &PythonFinder{}
	}
	if out.Host == (Host{}) {
		out.Host = DetectHost()
	}
	if out.Candidates == nil {
		out.Candidates = DefaultCandidates(out.Parallel)
	}
	if out.Logger == nil {
		out.Logger = logging.Discard()
	}

	return &out, nil
}

func (c *BuildConfig) projectPath(p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.ProjectDir, p)
}

// nativeBuildSteps defines the native build sequence run before a hooked command.
//
//  1. Require: Fail fast when the upstream packages are not importable
//  2. Locate: Build the environment overlay
//  3. Dispatch: Run the build tool candidates
//  4. Install: Place the artifact into the runtime data directory
//
// Tests replace individual steps to drive the failure transitions.
type nativeBuildSteps struct {
	RequireFunc  func(ctx context.Context, config *BuildConfig) error
	LocateFunc   func(ctx context.Context, config *BuildConfig) Overlay
	DispatchFunc func(ctx context.Context, config *BuildConfig, overlay Overlay, result *BuildResult) error
	InstallFunc  func(config *BuildConfig) (string, error)
}
