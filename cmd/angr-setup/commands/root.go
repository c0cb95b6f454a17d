// Package commands implements the CLI commands for angr-setup.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	angrnative "github.com/angr/angr-native-go"
	"github.com/angr/angr-native-go/internal/config"
	"github.com/angr/angr-native-go/internal/exitcode"
	"github.com/angr/angr-native-go/internal/logging"
)

const version = "0.1.0"

// Global flags. They must come before the first setup command.
var (
	configFile string
	projectDir string
	verbosity  int
	quiet      bool
	logFormat  string
)

// Loaded in PersistentPreRunE.
var (
	cfg    *config.Config
	logger *log.Logger
)

// injectedTag records the platform tag added before parsing, for logging.
var injectedTag string

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default: ./angr-setup.yaml, then $XDG_CONFIG_HOME/angr-setup/angr-setup.yaml)")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project-dir", "C", "",
		"project root containing native/ and angr/ (default: current directory)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity; build tool output is streamed")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")

	// Everything from the first setup command on belongs to that command.
	rootCmd.Flags().SetInterspersed(false)

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("angr-setup version {{.Version}}\n")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return exitcode.New(err, exitcode.User)
	})

	// Silence errors and usage so we can control error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

var rootCmd = &cobra.Command{
	Use:   "angr-setup [flags] <command> [options] [<command> [options]...]",
	Short: "Build angr_native and run packaging commands",
	Long: `angr-setup runs packaging commands for angr through the configured
frontend (python3 setup.py by default).

The build and develop commands first compile the angr_native shared library
in native/ against the installed unicorn and pyvex packages and install it
into angr/lib. A bdist_wheel without --plat-name gets a platform tag for the
host; Linux hosts are tagged manylinux1_<machine>.`,
	Example: `  # Build the package, compiling angr_native first
  angr-setup build

  # Editable install
  angr-setup develop

  # Build a wheel with the host platform tag
  angr-setup bdist_wheel

  # Only compile and install angr_native
  angr-setup native`,
	Args:              cobra.ArbitraryArgs,
	PersistentPreRunE: loadConfig,
	RunE:              runSetup,
}

// Execute applies the platform tag to argv, runs the CLI and returns the
// process exit code.
func Execute(argv []string) int {
	return execute(context.Background(), argv, os.Stdout, os.Stderr)
}

func execute(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	// The tag is injected before cobra parses anything.
	argv, injectedTag = angrnative.ApplyPlatformTag(argv, earlyHost())

	rootCmd.SetArgs(argv)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		reportError(stderr, err)
	}
	return exitcode.For(err)
}

// earlyHost returns the host used for tagging: the detected host with
// overrides from the project config in the working directory and the
// environment.
func earlyHost() angrnative.Host {
	wd, err := os.Getwd()
	if err != nil {
		return angrnative.DetectHost()
	}
	c, err := config.Load(config.New(wd), "")
	if err != nil {
		return angrnative.DetectHost()
	}
	return c.HostInfo()
}

func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	for _, hint := range exitcode.Hints(err) {
		fmt.Fprintf(w, "Hint: %s\n", hint)
	}
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	if quiet && verbosity > 0 {
		return exitcode.New(fmt.Errorf("cannot use --quiet and --verbose together"), exitcode.User)
	}

	logger = logging.New(logging.Config{
		Level:  logging.LevelFromVerbosity(verbosity, quiet),
		Format: logging.Format(logFormat),
		Output: cmd.ErrOrStderr(),
	})

	dir := projectDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return exitcode.New(err, exitcode.User)
		}
		dir = wd
	}

	v := config.New(dir)
	if projectDir != "" {
		v.Set("project_dir", dir)
	}

	loaded, err := config.Load(v, configFile)
	if err != nil {
		return exitcode.New(err, exitcode.User)
	}
	cfg = loaded

	if injectedTag != "" {
		logger.Debug("added wheel platform tag", "tag", injectedTag)
	}
	return nil
}

// buildConfig returns the native build configuration for the current command.
func buildConfig(cmd *cobra.Command) *angrnative.BuildConfig {
	bc := cfg.BuildConfig()
	bc.Logger = logger
	bc.Verbose = verbosity > 0
	if verbosity > 0 {
		bc.Output = cmd.ErrOrStderr()
	}
	return bc
}

func runSetup(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	ctx := cmd.Context()
	toolchain := cfg.Toolchain()
	toolchain.Stdout = cmd.OutOrStdout()
	toolchain.Stderr = cmd.ErrOrStderr()

	registry := angrnative.NewRegistry(toolchain)
	if err := angrnative.InjectHooks(ctx, registry, toolchain, angrnative.NativeBuildStep(buildConfig(cmd)), logger); err != nil {
		return err
	}

	logger.Debug("running setup commands", "args", args, "hooked", registry.Names())
	return registry.Run(ctx, args)
}
