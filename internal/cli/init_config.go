package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/inhalrisk/internal/config"
)

var (
	initConfigPath  string
	initConfigForce bool
)

func init() {
	initConfigCmd.Flags().StringVar(&initConfigPath, "path", "", "Where to write the config (default ~/.inhalrisk/config.yaml)")
	initConfigCmd.Flags().BoolVar(&initConfigForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initConfigCmd)
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a commented default config file",
	RunE:  runInitConfig,
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	path := initConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	if err := config.WriteDefault(path, initConfigForce); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}
