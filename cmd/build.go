package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rana718/sqlir/internal/build"
	"github.com/Rana718/sqlir/internal/config"
	"github.com/Rana718/sqlir/internal/utils"
)

var watch bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Resolve queries and run the generator",
	Long: `
Build runs the whole pipeline once:
1. Apply the migrations to the configured (or embedded) database
2. Read the type and schema catalogs back from it
3. Resolve the type of every parameter and column of each @name query
4. Run the generator and write the files it returns

With --watch the build is repeated whenever a query or migration file changes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		if !watch {
			return runBuild(ctx, cfg)
		}
		return watchBuild(ctx, cfg)
	},
}

func init() {
	buildCmd.Flags().BoolVarP(&watch, "watch", "w", false, "rebuild when query or migration files change")
}

func runBuild(ctx context.Context, cfg *config.Config) error {
	printer := utils.Default()
	printer.Info("Building from %s", cfgFile)

	result, err := build.NewBuilder(cfg, printer).Run(ctx)
	if err != nil {
		return err
	}

	for _, file := range result.Files {
		printer.Info("  wrote %s", file)
	}
	printer.Success("Resolved %d queries from %d migrations into %d files in %s",
		result.Queries, result.Migrations, len(result.Files), result.Duration.Round(time.Millisecond))
	return nil
}
