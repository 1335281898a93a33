// Package mcp exposes the assessment engine as Model Context Protocol tools
// over stdio.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/inhalrisk/internal/assess"
)

// Tool names.
const (
	ToolAssess = "ntp937_assess"
	ToolTables = "ntp937_tables"
)

// Server wraps the MCP SDK server around an assessment service.
type Server struct {
	mcpServer *mcpsdk.Server
	svc       *assess.Service
}

// New creates an MCP server with the assessment tools registered.
func New(svc *assess.Service, version string) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{svc: svc}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "inhalrisk",
			Version: version,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.RunTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunTransport serves a single session on t.
func (s *Server) RunTransport(ctx context.Context, t mcpsdk.Transport) error {
	return s.mcpServer.Run(ctx, t)
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name: ToolAssess,
		Description: "Score the inhalation risk of a chemical task with the INRS/NTP-937 simplified method. " +
			"Give hazard phrases and/or exposure limits, the daily quantity and the task classes. " +
			"Returns a score, a band (NONE, LOW, MODERATE, HIGH) and the full breakdown.",
	}, s.handleAssess)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        ToolTables,
		Description: "Return the lookup tables the assessment uses: hazard phrase classes, thresholds, matrices and factors.",
	}, s.handleTables)
}
