package angrnative

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
)

// Test hooks for subprocess creation.
var (
	execCommandContext = exec.CommandContext
	execLookPath       = exec.LookPath
)

// ErrPackageNotFound reports that a finder could not locate an installed package.
var ErrPackageNotFound = errors.New("package not found")

// RequiredPackages are the upstream packages that must be importable before
// the native library can be built.
var RequiredPackages = []string{"unicorn", "pyvex"}

// Dependency maps an installed package resource onto a build tool variable.
type Dependency struct {
	Var      string // Variable exported to the build tool
	Package  string // Installed package owning the resource
	Resource string // Slash separated path inside the package
}

// DefaultDependencies are the headers and libraries the native Makefiles consume.
var DefaultDependencies = []Dependency{
	{Var: "UNICORN_INCLUDE_PATH", Package: "unicorn", Resource: "include"},
	{Var: "UNICORN_LIB_PATH", Package: "unicorn", Resource: "lib"},
	{Var: "UNICORN_LIB_FILE", Package: "unicorn", Resource: "lib/unicorn.lib"},
	{Var: "PYVEX_INCLUDE_PATH", Package: "pyvex", Resource: "include"},
	{Var: "PYVEX_LIB_PATH", Package: "pyvex", Resource: "lib"},
	{Var: "PYVEX_LIB_FILE", Package: "pyvex", Resource: "lib/pyvex.lib"},
}

// PackageFinder resolves the directory an installed package lives in.
//
// Implementations return an error wrapping ErrPackageNotFound when the package
// is not installed.
type PackageFinder interface {
	PackageDir(ctx context.Context, name string) (string, error)
}

// SiteFinder looks packages up in a fixed list of site-packages directories.
type SiteFinder struct {
	Dirs []string
}

// PackageDir returns the first <dir>/<name> directory found.
func (f *SiteFinder) PackageDir(_ context.Context, name string) (string, error) {
	for _, dir := range f.Dirs {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			abs, err := filepath.Abs(candidate)
			if err != nil {
				return "", err
			}
			return abs, nil
		}
	}
	return "", errors.Wrapf(ErrPackageNotFound, "%s not in %s", name, strings.Join(f.Dirs, string(os.PathListSeparator)))
}

// importScript imports the package named by argv[1] and prints its
// directory. A package that is missing or fails to import exits non-zero.
const importScript = `import importlib, os, sys
mod = importlib.import_module(sys.argv[1])
print(os.path.dirname(mod.__file__))
`

// PythonFinder imports packages with a Python interpreter to find where they
// are installed. Broken installs count as missing.
//
// Lookups are cached for the lifetime of the finder. It is not safe for
// concurrent use.
type PythonFinder struct {
	Python string // Interpreter, defaults to DefaultPython()

	cache map[string]string
}

// DefaultPython returns the interpreter name used when none is configured.
func DefaultPython() string {
	if runtime.GOOS == platformWindows {
		return "python"
	}
	return "python3"
}

// PackageDir runs the interpreter to locate name.
func (f *PythonFinder) PackageDir(ctx context.Context, name string) (string, error) {
	if dir, ok := f.cache[name]; ok {
		return dir, nil
	}

	python := f.Python
	if python == "" {
		python = DefaultPython()
	}

	cmd := execCommandContext(ctx, python, "-c", importScript, name)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", errors.Wrapf(ErrPackageNotFound, "%s: %v %s", name, err, strings.TrimSpace(stderr.String()))
	}

	dir := strings.TrimSpace(string(out))
	if dir == "" {
		return "", errors.Wrapf(ErrPackageNotFound, "%s: interpreter returned no location", name)
	}

	if f.cache == nil {
		f.cache = make(map[string]string)
	}
	f.cache[name] = dir
	return dir, nil
}

// Locate resolves every dependency to an absolute path. Entries whose package
// or resource cannot be found are left out of the overlay.
func Locate(ctx context.Context, finder PackageFinder, deps []Dependency) Overlay {
	overlay := make(Overlay, len(deps))

	for _, dep := range deps {
		dir, err := finder.PackageDir(ctx, dep.Package)
		if err != nil {
			continue
		}

		path := filepath.Join(dir, filepath.FromSlash(dep.Resource))
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		overlay[dep.Var] = path
	}

	return overlay
}

// RequirePackages fails with a MissingPrerequisiteError unless every package
// can be found.
func RequirePackages(ctx context.Context, finder PackageFinder, packages []string) error {
	var missing []string
	for _, pkg := range packages {
		if _, err := finder.PackageDir(ctx, pkg); err != nil {
			missing = append(missing, pkg)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return newMissingPrerequisiteError(missing)
}

func locateDependencies(ctx context.Context, config *BuildConfig) Overlay {
	overlay := Locate(ctx, config.Finder, config.Dependencies)
	for _, dep := range config.Dependencies {
		if _, ok := overlay[dep.Var]; !ok {
			config.Logger.Debug("dependency path not resolved", "var", dep.Var, "package", dep.Package, "resource", dep.Resource)
		}
	}
	return overlay
}

func requirePackages(ctx context.Context, config *BuildConfig) error {
	return RequirePackages(ctx, config.Finder, config.Required)
}
