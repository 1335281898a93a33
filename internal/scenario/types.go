package scenario

import "github.com/ppiankov/inhalrisk/internal/report"

// Expect is what a case asserts. Band is always checked; the other fields
// only when set. Rejected expects the engine to refuse the input.
type Expect struct {
	Band        string `yaml:"band,omitempty"`
	Score       string `yaml:"score,omitempty"`
	HazardClass int    `yaml:"hazard_class,omitempty"`
	Fallbacks   *int   `yaml:"fallbacks,omitempty"`
	Rejected    bool   `yaml:"rejected,omitempty"`
}

// Case is one test case within a scenario.
type Case struct {
	Name   string               `yaml:"name,omitempty"`
	Input  report.AssessRequest `yaml:"input"`
	Expect Expect               `yaml:"expect"`
}

// Scenario is a named collection of assessment test cases.
type Scenario struct {
	Name   string `yaml:"name"`
	Strict bool   `yaml:"strict,omitempty"`
	Cases  []Case `yaml:"cases"`
}

// CaseResult is the outcome of evaluating one test case.
type CaseResult struct {
	Index    int      `json:"index"`
	Name     string   `json:"name,omitempty"`
	Passed   bool     `json:"passed"`
	Expected string   `json:"expected"`
	Actual   string   `json:"actual"`
	Score    string   `json:"score,omitempty"`
	Failures []string `json:"failures,omitempty"`
}

// RunResult is the outcome of running all cases in one scenario file.
type RunResult struct {
	File   string       `json:"file"`
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Cases  []CaseResult `json:"cases"`
}
