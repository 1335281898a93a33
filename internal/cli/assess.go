package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/inhalrisk/internal/assess"
	"github.com/ppiankov/inhalrisk/internal/client"
	"github.com/ppiankov/inhalrisk/internal/ntp937"
	"github.com/ppiankov/inhalrisk/internal/report"
	"github.com/ppiankov/inhalrisk/internal/sds"
)

var (
	assessPhrases    []string
	assessLimits     []float64
	assessQuantity   float64
	assessFrequency  int
	assessVolatility int
	assessProcedure  int
	assessProtection int
	assessInput      string
	assessSDS        string
	assessRemote     string
	assessFormat     string
	assessStrict     bool
	assessFailOn     string
)

func init() {
	assessCmd.RunE = runAssess
	rootCmd.AddCommand(assessCmd)
	f := assessCmd.Flags()
	f.StringSliceVarP(&assessPhrases, "phrase", "p", nil, "Hazard phrase code (repeatable or comma-separated), e.g. H350")
	f.Float64SliceVar(&assessLimits, "limit", nil, "Exposure limit in mg/m3 (repeatable)")
	f.Float64VarP(&assessQuantity, "quantity", "q", 0, "Quantity handled per day in grams")
	f.IntVar(&assessFrequency, "frequency", 0, "Frequency class 0-4 (default 0)")
	f.IntVar(&assessVolatility, "volatility", 0, "Volatility class 1-3 (default 1)")
	f.IntVar(&assessProcedure, "procedure", 0, "Procedure class 1-4 (default 4)")
	f.IntVar(&assessProtection, "protection", 0, "Collective protection class 1-5 (default 4)")
	f.StringVarP(&assessInput, "input", "i", "", "Request file (YAML or JSON, - for stdin); flags override its values")
	f.StringVar(&assessSDS, "sds", "", "Safety data sheet summary (quimicos_datos) to merge into the request")
	f.StringVar(&assessRemote, "remote", "", "Assess on a running gRPC server at this address instead of locally")
	f.StringVarP(&assessFormat, "format", "f", "text", "Output format (text|json)")
	f.BoolVar(&assessStrict, "strict", false, "Reject out-of-range classes instead of applying fallbacks")
	f.StringVar(&assessFailOn, "fail-on", "", "Exit 2 when the band is at or above this one (LOW|MODERATE|HIGH)")
}

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Score one task",
	Long: "Scores the inhalation risk of one task.\n\n" +
		"Inputs come from flags, a request file (--input) and/or a safety data sheet\n" +
		"summary (--sds). Omitted classes take the method's defaults and any table\n" +
		"fallback applied is listed in the report.",
	Example: "  inhalrisk assess -p H350 -q 50000 --frequency 4 --volatility 3 --procedure 1 --protection 1\n" +
		"  inhalrisk assess --input task.yaml --sds enrichment.json -f json",
}

func runAssess(cmd *cobra.Command, args []string) error {
	req, err := buildRequest(cmd.InOrStdin(), assessCmd.Flags().Changed)
	if err != nil {
		return err
	}

	var failOn ntp937.Band
	if assessFailOn != "" {
		if failOn, err = ntp937.ParseBand(strings.ToUpper(assessFailOn)); err != nil {
			return fmt.Errorf("--fail-on: %w", err)
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	resp, err := assessOnce(assess.WithRequestID(ctx, ""), cmd.ErrOrStderr(), req)
	if err != nil {
		return err
	}

	if err := report.Format(cmd.OutOrStdout(), assessFormat, resp); err != nil {
		return err
	}
	if failOn != "" && bandRank(ntp937.Band(resp.Band)) >= bandRank(failOn) {
		return exitError{code: 2}
	}
	return nil
}

func assessOnce(ctx context.Context, logOut io.Writer, req *report.AssessRequest) (report.AssessResponse, error) {
	if assessRemote != "" {
		c, err := client.New(assessRemote)
		if err != nil {
			return report.AssessResponse{}, err
		}
		defer c.Close()
		return c.Assess(ctx, req)
	}

	e, err := newEnv(logOut)
	if err != nil {
		return report.AssessResponse{}, err
	}
	defer e.close()
	if assessStrict {
		opts := e.svc.Options()
		opts.Strict = true
		e.svc.SetOptions(opts, e.hash)
	}
	return e.svc.Assess(ctx, assess.SurfaceCLI, req)
}

// buildRequest layers the request file, the flags and the SDS summary.
// given reports whether a flag was set on the command line; only those
// override the request file.
func buildRequest(stdin io.Reader, given func(name string) bool) (*report.AssessRequest, error) {
	req := &report.AssessRequest{}
	if assessInput != "" {
		var (
			data   []byte
			err    error
			format = report.FormatForPath(assessInput)
		)
		if assessInput == "-" {
			data, err = io.ReadAll(stdin)
			format = "yaml"
		} else {
			data, err = os.ReadFile(assessInput)
		}
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		if req, err = report.DecodeRequest(data, format); err != nil {
			return nil, err
		}
	}

	req.HazardPhrases = append(req.HazardPhrases, assessPhrases...)
	req.ExposureLimits = append(req.ExposureLimits, assessLimits...)
	if given("quantity") {
		req.QuantityGramsPerDay = assessQuantity
	}
	for _, c := range []struct {
		flag string
		dst  **int
		v    int
	}{
		{"frequency", &req.FrequencyClass, assessFrequency},
		{"volatility", &req.VolatilityClass, assessVolatility},
		{"procedure", &req.ProcedureClass, assessProcedure},
		{"protection", &req.ProtectionClass, assessProtection},
	} {
		if given(c.flag) {
			*c.dst = report.IntPtr(c.v)
		}
	}

	if assessSDS != "" {
		payload, err := sds.ParseFile(assessSDS)
		if err != nil {
			return nil, err
		}
		payload.Apply(req)
	}
	return req, nil
}

func bandRank(b ntp937.Band) int {
	switch b {
	case ntp937.BandLow:
		return 1
	case ntp937.BandModerate:
		return 2
	case ntp937.BandHigh:
		return 3
	default:
		return 0
	}
}
