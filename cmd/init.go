package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Rana718/sqlir/internal/config"
	"github.com/Rana718/sqlir/internal/utils"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default sqlir.yaml",
	Long: `Write a default configuration file. The file is never overwritten: if it
already exists, init fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initializeProject(cfgFile)
	},
}

func initializeProject(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !os.IsNotExist(err) {
		return err
	}

	cfg := config.DefaultConfig()
	// Machine-specific defaults stay out of the committed file.
	cfg.CacheDir = ""
	cfg.Database.Embedded = config.Embedded{}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	utils.Default().Success("Created %s", path)
	return nil
}
