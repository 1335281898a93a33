package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/inhalrisk/internal/audit"
	"github.com/ppiankov/inhalrisk/internal/config"
)

var (
	auditPath      string
	auditRequestID string
	auditSurface   string
	auditBand      string
	auditSince     time.Duration
	auditFormat    string
)

func init() {
	auditCmd.PersistentFlags().StringVar(&auditPath, "path", "", "Audit log path (default audit.path from config)")
	auditShowCmd.Flags().StringVar(&auditRequestID, "request-id", "", "Only this request id")
	auditShowCmd.Flags().StringVar(&auditSurface, "surface", "", "Only this surface (cli|grpc|http|daemon|mcp)")
	auditShowCmd.Flags().StringVar(&auditBand, "band", "", "Only this band")
	auditShowCmd.Flags().DurationVar(&auditSince, "since", 0, "Only entries newer than this, e.g. 24h")
	auditShowCmd.Flags().StringVarP(&auditFormat, "format", "f", "text", "Output format (text|json)")
	auditCmd.AddCommand(auditVerifyCmd, auditShowCmd)
	rootCmd.AddCommand(auditCmd)
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the hash-chained assessment log",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the audit log hash chain",
	Long:  "Walks the audit log and reports the first entry whose prev_hash does not\nmatch the line before it. Exit code 1 when the chain is broken.",
	RunE:  runAuditVerify,
}

var auditShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List recorded assessments",
	RunE:  runAuditShow,
}

func resolveAuditPath() (string, error) {
	if auditPath != "" {
		return auditPath, nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	if cfg.Audit.Path == "" {
		return "", errors.New("no audit log: set audit.path in the config or pass --path")
	}
	return cfg.Audit.Path, nil
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	path, err := resolveAuditPath()
	if err != nil {
		return err
	}
	r := audit.Verify(path)
	if !r.Valid {
		if r.ErrorLine > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "BROKEN at line %d: %s\n", r.ErrorLine, r.Error)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "BROKEN: %s\n", r.Error)
		}
		return exitError{code: 1}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "OK: %d entries, chain intact\n", r.Lines)
	return nil
}

func runAuditShow(cmd *cobra.Command, args []string) error {
	path, err := resolveAuditPath()
	if err != nil {
		return err
	}
	f := audit.Filter{
		RequestID: auditRequestID,
		Surface:   auditSurface,
		Band:      auditBand,
	}
	if auditSince > 0 {
		f.From = time.Now().UTC().Add(-auditSince)
	}

	r, err := audit.Query(path, f)
	if err != nil {
		return err
	}
	if auditFormat == "json" {
		out, err := audit.FormatJSON(r)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), audit.FormatTimeline(r))
	return nil
}
