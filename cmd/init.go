package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jettary/vueify-through2/internal/config"
)

const configFileName = ".vueify.yml"

var initForce bool

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:     "init",
	Aliases: []string{"i"},
	Short:   "Write a default configuration file",
	Long: `Write a commented default .vueify.yml to the current directory.

The generated file documents the build options (source maps, CSS
extraction, strict external reads), the custom compiler table, and the
watch and dev server settings.

Examples:
  vueify init            # Create .vueify.yml, refusing to overwrite
  vueify init --force    # Overwrite an existing .vueify.yml`,
	RunE: runInitCommand,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")
}

func runInitCommand(cmd *cobra.Command, args []string) error {
	if !initForce {
		if _, err := os.Stat(configFileName); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configFileName)
		}
	}

	data, err := config.DefaultYAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(configFileName, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", configFileName, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configFileName)
	return nil
}
