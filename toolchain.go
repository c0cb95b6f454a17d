package angrnative

import (
	"context"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

// DefaultRequires maps optional commands to the Python module that must import
// for the toolchain to offer them.
var DefaultRequires = map[string]string{
	DevelopCommand: "setuptools.command.develop",
}

// ExternalToolchain runs packaging commands through a frontend command line,
// for example "python3 setup.py".
type ExternalToolchain struct {
	Frontend []string          // Program and leading arguments of the frontend
	Dir      string            // Working directory, usually the project root
	Python   string            // Interpreter for import checks, defaults to DefaultPython()
	Requires map[string]string // Optional commands and the module each needs; nil means DefaultRequires
	Stdout   io.Writer
	Stderr   io.Writer
}

// Command returns the frontend command for name. Commands listed in Requires
// are only offered when their module imports.
func (t *ExternalToolchain) Command(ctx context.Context, name string) (Command, bool) {
	requires := t.Requires
	if requires == nil {
		requires = DefaultRequires
	}
	if module, ok := requires[name]; ok && !t.canImport(ctx, module) {
		return nil, false
	}
	return &frontendCommand{toolchain: t, name: name}, true
}

func (t *ExternalToolchain) canImport(ctx context.Context, module string) bool {
	python := t.Python
	if python == "" {
		python = DefaultPython()
	}
	cmd := execCommandContext(ctx, python, "-c", "import "+module)
	cmd.Dir = t.Dir
	return cmd.Run() == nil
}

// frontendCommand runs "<frontend> <name> <args>".
type frontendCommand struct {
	toolchain *ExternalToolchain
	name      string
}

func (c *frontendCommand) Name() string {
	return c.name
}

func (c *frontendCommand) Run(ctx context.Context, args []string) error {
	frontend := c.toolchain.Frontend
	if len(frontend) == 0 {
		return errors.New("no packaging frontend configured")
	}

	argv := append(append(append([]string{}, frontend[1:]...), c.name), args...)
	cmd := execCommandContext(ctx, frontend[0], argv...)
	cmd.Dir = c.toolchain.Dir
	cmd.Stdout = writerOr(c.toolchain.Stdout, os.Stdout)
	cmd.Stderr = writerOr(c.toolchain.Stderr, os.Stderr)

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "%s %s", frontend[0], c.name)
	}
	return nil
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}
