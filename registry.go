package angrnative

import (
	"context"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/angr/angr-native-go/internal/logging"
)

// Lifecycle commands with special handling.
const (
	BuildCommand   = "build"
	DevelopCommand = "develop"
)

// BuildingCommands are the commands that run build internally and therefore
// need the native library in place first. build itself is required of the
// toolchain; the others are hooked when the toolchain offers them.
var BuildingCommands = []string{
	BuildCommand, DevelopCommand, "install",
	"bdist", "bdist_wheel", "bdist_egg", "bdist_dumb", "bdist_rpm",
}

// ErrUnknownCommand is returned for a command neither registered nor offered by the toolchain.
var ErrUnknownCommand = errors.New("unknown command")

// StandardCommands lists the setuptools command names recognized when
// splitting a command line into commands.
var StandardCommands = []string{
	"alias", "bdist", "bdist_dumb", "bdist_egg", "bdist_rpm", "bdist_wheel",
	"build", "build_clib", "build_ext", "build_py", "build_scripts",
	"check", "clean", "develop", "dist_info", "easy_install", "editable_wheel",
	"egg_info", "install", "install_data", "install_egg_info", "install_headers",
	"install_lib", "install_scripts", "register", "rotate", "saveopts",
	"sdist", "setopt", "test", "upload", "upload_docs",
}

// Toolchain exposes the packaging framework's own commands.
//
// Command is a capability check: it reports false when the toolchain does not
// provide the named command.
type Toolchain interface {
	Command(ctx context.Context, name string) (Command, bool)
}

// Registry maps command names to the commands that run them, in the manner
// of setuptools' cmdclass.
//
// Lookups prefer registered commands and fall back to the toolchain.
// Registry is not safe for concurrent registration.
type Registry struct {
	commands  map[string]Command
	toolchain Toolchain
}

// NewRegistry creates an empty registry backed by toolchain. toolchain may be nil.
func NewRegistry(toolchain Toolchain) *Registry {
	return &Registry{
		commands:  make(map[string]Command),
		toolchain: toolchain,
	}
}

// Register adds cmd, replacing any command registered under the same name.
func (r *Registry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
}

// Registered reports whether name has a registered command.
func (r *Registry) Registered(name string) bool {
	_, ok := r.commands[name]
	return ok
}

// Names returns the registered command names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the command for name.
func (r *Registry) Lookup(ctx context.Context, name string) (Command, error) {
	if cmd, ok := r.commands[name]; ok {
		return cmd, nil
	}
	if r.toolchain != nil {
		if cmd, ok := r.toolchain.Command(ctx, name); ok {
			return cmd, nil
		}
	}
	return nil, errors.Wrapf(ErrUnknownCommand, "%q", name)
}

// InjectHooks registers every command in BuildingCommands that the toolchain
// offers as a command that runs pre before the toolchain's original command.
// Within one Registry.Run, pre runs at most once however many hooked commands
// are given.
//
// It fails only when the toolchain has no build command; other missing
// commands are skipped.
func InjectHooks(ctx context.Context, r *Registry, toolchain Toolchain, pre PreStep, logger *log.Logger) error {
	if logger == nil {
		logger = logging.Discard()
	}

	build, ok := toolchain.Command(ctx, BuildCommand)
	if !ok {
		return errors.Newf("toolchain has no %q command", BuildCommand)
	}

	step := &onceStep{pre: pre, logger: logger}
	r.Register(Hook(build, step.run, "", logger))

	for _, name := range BuildingCommands {
		if name == BuildCommand {
			continue
		}
		cmd, ok := toolchain.Command(ctx, name)
		if !ok {
			logger.Debug("toolchain does not offer command, skipping hook", "command", name)
			continue
		}
		r.Register(Hook(cmd, step.run, "", logger))
	}

	return nil
}

type runStateKey struct{}

// runState records the pre-steps already run by one Registry.Run.
type runState struct {
	done map[*onceStep]error
}

// onceStep runs pre once per Registry.Run and replays its result afterwards.
// Outside Run it runs pre on every call.
type onceStep struct {
	pre    PreStep
	logger *log.Logger
}

func (s *onceStep) run(ctx context.Context) error {
	state, _ := ctx.Value(runStateKey{}).(*runState)
	if state != nil {
		if err, ok := state.done[s]; ok {
			return err
		}
	}

	s.logger.Info("Building angr_native")
	err := s.pre(ctx)
	if state != nil {
		state.done[s] = err
	}
	return err
}

// Invocation is one command and the options that followed it.
type Invocation struct {
	Name string
	Args []string
}

// Split breaks argv into invocations. A token starts a new invocation when it
// names a registered or standard command; every other token is an option of
// the current invocation.
func (r *Registry) Split(argv []string) ([]Invocation, error) {
	var invocations []Invocation

	for _, arg := range argv {
		if r.isCommand(arg) {
			invocations = append(invocations, Invocation{Name: arg})
			continue
		}
		if len(invocations) == 0 {
			if strings.HasPrefix(arg, "-") {
				return nil, errors.Newf("option %s given before any command", arg)
			}
			return nil, errors.Wrapf(ErrUnknownCommand, "%q", arg)
		}
		last := &invocations[len(invocations)-1]
		last.Args = append(last.Args, arg)
	}

	if len(invocations) == 0 {
		return nil, errors.New("no commands supplied")
	}
	return invocations, nil
}

// Run splits argv and runs each command in order, stopping at the first failure.
func (r *Registry) Run(ctx context.Context, argv []string) error {
	invocations, err := r.Split(argv)
	if err != nil {
		return err
	}

	// Resolve everything first so an unknown command fails before anything runs.
	commands := make([]Command, len(invocations))
	for i, inv := range invocations {
		cmd, err := r.Lookup(ctx, inv.Name)
		if err != nil {
			return err
		}
		commands[i] = cmd
	}

	ctx = context.WithValue(ctx, runStateKey{}, &runState{done: make(map[*onceStep]error)})
	for i, cmd := range commands {
		if err := cmd.Run(ctx, invocations[i].Args); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) isCommand(arg string) bool {
	if r.Registered(arg) {
		return true
	}
	for _, name := range StandardCommands {
		if name == arg {
			return true
		}
	}
	return false
}
