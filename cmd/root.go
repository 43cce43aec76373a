package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Rana718/sqlir/internal/config"
	"github.com/Rana718/sqlir/internal/utils"
)

var (
	cfgFile string
	quiet   bool
	Version = "0.1.0"
)

var rootCmd = &cobra.Command{
	Use:   "sqlir",
	Short: "Compile annotated SQL into typed queries and generate code from them",
	Long: `
sqlir reads your migrations and annotated SQL queries, resolves every
parameter and result column against a real PostgreSQL database, and hands the
typed queries and schema catalog to a code generator.

The generator is either the built-in Go generator or a WebAssembly module
referenced by local path or URL (pinned with sha256).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		utils.SetQuiet(quiet)
	},
}

// Execute runs the CLI. The caller reports the returned error.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "file", "f", config.DefaultFile, "config file")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print warnings and errors")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}
