package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/inhalrisk/internal/client"
	"github.com/ppiankov/inhalrisk/internal/report"
)

var (
	tablesFormat string
	tablesRemote string
)

func init() {
	rootCmd.AddCommand(tablesCmd)
	tablesCmd.Flags().StringVarP(&tablesFormat, "format", "f", "text", "Output format (text|json)")
	tablesCmd.Flags().StringVar(&tablesRemote, "remote", "", "Fetch the tables from a running gRPC server")
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Print the lookup tables used for scoring",
	RunE:  runTables,
}

func runTables(cmd *cobra.Command, args []string) error {
	tables := report.BuildTables()
	if tablesRemote != "" {
		c, err := client.New(tablesRemote)
		if err != nil {
			return err
		}
		defer c.Close()
		if tables, err = c.Tables(context.Background()); err != nil {
			return err
		}
	}

	switch tablesFormat {
	case "json":
		out, err := json.MarshalIndent(tables, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	case "text", "":
		return report.FormatTablesText(cmd.OutOrStdout(), tables)
	default:
		return fmt.Errorf("unknown format %q (want text or json)", tablesFormat)
	}
}
