package angrnative

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/angr/angr-native-go/internal/logging"
)

// Command is a packaging lifecycle command such as "build" or "develop".
//
// # Example Implementation
//
//	type egg struct{}
//
//	func (egg) Name() string { return "egg_info" }
//
//	func (egg) Run(ctx context.Context, args []string) error {
//	    // run the step
//	    return nil
//	}
type Command interface {
	// Name returns the command name as given on the command line.
	Name() string

	// Run executes the command with the options that followed its name.
	Run(ctx context.Context, args []string) error
}

// CommandFunc adapts a function to the Command interface.
type CommandFunc struct {
	CommandName string
	Fn          func(ctx context.Context, args []string) error
}

// Name returns the command name.
func (c CommandFunc) Name() string {
	return c.CommandName
}

// Run calls Fn.
func (c CommandFunc) Run(ctx context.Context, args []string) error {
	return c.Fn(ctx, args)
}

// PreStep is run by a hooked command before delegating.
type PreStep func(ctx context.Context) error

// HookedCommand runs a mandatory pre-step before the command it wraps.
//
// The wrapped command only runs when the pre-step succeeds; a pre-step error
// is returned as is.
type HookedCommand struct {
	inner  Command
	pre    PreStep
	msg    string
	logger *log.Logger
}

// Hook wraps cmd so that pre runs first. msg is logged before pre starts.
func Hook(cmd Command, pre PreStep, msg string, logger *log.Logger) *HookedCommand {
	if logger == nil {
		logger = logging.Discard()
	}
	return &HookedCommand{inner: cmd, pre: pre, msg: msg, logger: logger}
}

// Name returns the wrapped command's name.
func (h *HookedCommand) Name() string {
	return h.inner.Name()
}

// Unwrap returns the wrapped command.
func (h *HookedCommand) Unwrap() Command {
	return h.inner
}

// Run executes the pre-step, then the wrapped command.
func (h *HookedCommand) Run(ctx context.Context, args []string) error {
	if h.msg != "" {
		h.logger.Info(h.msg, "command", h.Name())
	}
	if err := h.pre(ctx); err != nil {
		return err
	}
	return h.inner.Run(ctx, args)
}

// NativeBuildStep returns a PreStep that builds and installs angr_native.
func NativeBuildStep(config *BuildConfig) PreStep {
	return func(ctx context.Context) error {
		_, err := BuildNative(ctx, config)
		return err
	}
}
