package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	angrnative "github.com/angr/angr-native-go"
)

func init() {
	rootCmd.AddCommand(nativeCmd)
	rootCmd.AddCommand(cleanNativeCmd)
}

var nativeCmd = &cobra.Command{
	Use:   "native",
	Short: "Compile angr_native and install it into angr/lib",
	Long: `Compile the angr_native shared library without running any packaging
command. This is the step build and develop run first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		result, err := angrnative.BuildNative(cmd.Context(), buildConfig(cmd))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.Artifact)
		return nil
	},
}

var cleanNativeCmd = &cobra.Command{
	Use:   "clean-native",
	Short: "Run the native clean target and remove angr/lib",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return angrnative.CleanNative(cmd.Context(), buildConfig(cmd))
	},
}
