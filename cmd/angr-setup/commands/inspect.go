package commands

import (
	"fmt"
	"io"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	angrnative "github.com/angr/angr-native-go"
	"github.com/angr/angr-native-go/internal/exitcode"
)

func init() {
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(tagCmd)

	configCmd.Flags().StringVar(&configFormat, "format", "yaml", "output format: yaml, toml")
}

var configFormat string

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Show which build tool candidates are available",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		candidates := cfg.Candidates()
		if candidates == nil {
			candidates = angrnative.DefaultCandidates(cfg.Parallel)
		}
		writeToolReport(cmd.OutOrStdout(), angrnative.CheckCandidates(candidates), angrnative.FirstAvailable(candidates))
		return nil
	},
}

// writeToolReport prints one line per candidate and marks selected, the
// candidate Dispatch would start first.
func writeToolReport(w io.Writer, statuses []angrnative.ToolStatus, selected angrnative.Candidate) {
	ok := color.New(color.FgGreen).SprintFunc()
	missing := color.New(color.FgRed).SprintFunc()

	marked := false
	for _, s := range statuses {
		if !s.Available() {
			fmt.Fprintf(w, "%s %s (%v)\n", missing("✗"), s.Candidate, s.Err)
			continue
		}
		marker := ""
		if !marked && slices.Equal(s.Candidate, selected) {
			marker = " [selected]"
			marked = true
		}
		fmt.Fprintf(w, "%s %s -> %s%s\n", ok("✓"), s.Candidate, s.Path, marker)
	}
	if selected == nil {
		fmt.Fprintln(w, missing("no build tool available"))
	}
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Print the dependency variables passed to the build tool",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		overlay := angrnative.Locate(cmd.Context(), cfg.Finder(), angrnative.DefaultDependencies)
		for _, k := range overlay.Keys() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, overlay[k])
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeConfig(cmd.OutOrStdout(), configFormat)
	},
}

func writeConfig(w io.Writer, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	case "toml":
		return toml.NewEncoder(w).Encode(cfg)
	default:
		return exitcode.New(errors.Newf("unknown config format %q", format), exitcode.User)
	}
}

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Print the wheel platform tag for this host",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), angrnative.PlatformTag(cfg.HostInfo()))
		return nil
	},
}
