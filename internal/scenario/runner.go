// Package scenario runs YAML files of assessment cases against the engine
// and reports which expectations held.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/inhalrisk/internal/ntp937"
)

// rejectedBand is reported as the actual outcome of a refused input.
const rejectedBand = "REJECTED"

// Run evaluates all cases in a scenario. The scenario's strict flag
// overrides opts. Cases are independent.
func Run(s *Scenario, opts ntp937.Options) *RunResult {
	if s.Strict {
		opts.Strict = true
	}
	engine := ntp937.NewEngine(opts)

	result := &RunResult{
		Name:  s.Name,
		Total: len(s.Cases),
	}

	for i, c := range s.Cases {
		cr := runCase(engine, c)
		cr.Index = i + 1
		if cr.Passed {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Cases = append(result.Cases, cr)
	}

	return result
}

func runCase(engine *ntp937.Engine, c Case) CaseResult {
	cr := CaseResult{
		Name:     c.Name,
		Expected: expectedLabel(c.Expect),
	}

	if err := c.Input.Validate(); err != nil {
		cr.Actual = rejectedBand
		if !c.Expect.Rejected {
			cr.Failures = append(cr.Failures, err.Error())
		}
		cr.Passed = c.Expect.Rejected
		return cr
	}

	res, err := engine.Assess(c.Input.Input())
	if err != nil {
		cr.Actual = rejectedBand
		if !c.Expect.Rejected {
			cr.Failures = append(cr.Failures, err.Error())
		}
		cr.Passed = c.Expect.Rejected && errors.Is(err, ntp937.ErrContractViolation)
		return cr
	}

	cr.Actual = string(res.Band)
	cr.Score = res.Score.String()

	if c.Expect.Rejected {
		cr.Failures = append(cr.Failures, "expected rejection, input was accepted")
	}
	if c.Expect.Band != "" && !strings.EqualFold(c.Expect.Band, string(res.Band)) {
		cr.Failures = append(cr.Failures, fmt.Sprintf("band: expected %s, got %s", strings.ToUpper(c.Expect.Band), res.Band))
	}
	if c.Expect.Score != "" {
		want, err := decimal.NewFromString(c.Expect.Score)
		switch {
		case err != nil:
			cr.Failures = append(cr.Failures, fmt.Sprintf("score: bad expectation %q", c.Expect.Score))
		case !want.Equal(res.Score):
			cr.Failures = append(cr.Failures, fmt.Sprintf("score: expected %s, got %s", want, res.Score))
		}
	}
	if c.Expect.HazardClass != 0 && c.Expect.HazardClass != int(res.Breakdown.HazardClass) {
		cr.Failures = append(cr.Failures, fmt.Sprintf("hazard class: expected %d, got %d", c.Expect.HazardClass, res.Breakdown.HazardClass))
	}
	if c.Expect.Fallbacks != nil && *c.Expect.Fallbacks != len(res.Breakdown.Fallbacks) {
		cr.Failures = append(cr.Failures, fmt.Sprintf("fallbacks: expected %d, got %d", *c.Expect.Fallbacks, len(res.Breakdown.Fallbacks)))
	}

	cr.Passed = len(cr.Failures) == 0
	return cr
}

func expectedLabel(e Expect) string {
	if e.Rejected {
		return rejectedBand
	}
	return strings.ToUpper(e.Band)
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	for i, c := range s.Cases {
		if c.Expect.Rejected {
			continue
		}
		if c.Expect.Band == "" {
			return nil, fmt.Errorf("scenario %s: case %d has no expected band", path, i+1)
		}
		if _, err := ntp937.ParseBand(strings.ToUpper(c.Expect.Band)); err != nil {
			return nil, fmt.Errorf("scenario %s: case %d: %w", path, i+1, err)
		}
	}
	if s.Name == "" {
		s.Name = path
	}
	return &s, nil
}

// LoadAndRun loads a scenario YAML file and runs it.
func LoadAndRun(path string, opts ntp937.Options) (*RunResult, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	result := Run(s, opts)
	result.File = path
	return result, nil
}
