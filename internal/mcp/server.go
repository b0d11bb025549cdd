package mcp

import (
	"context"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"chemkpi/internal/dashboard"
)

// Options tunes the MCP server.
type Options struct {
	Version             string
	EnableMermaidCharts bool
}

// Server exposes the KPI engine as MCP tools.
type Server struct {
	engine *dashboard.Engine
	opts   Options
}

// NewServer creates a new MCP server.
func NewServer(engine *dashboard.Engine, opts Options) *Server {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	return &Server{engine: engine, opts: opts}
}

// MCP builds the protocol server with every tool registered.
func (s *Server) MCP() *gomcp.Server {
	srv := gomcp.NewServer(&gomcp.Implementation{Name: "chemkpi", Version: s.opts.Version}, nil)
	s.registerTools(srv)
	return srv
}

// Serve runs the server over stdio until the client disconnects or ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	log.Info().Str("version", s.opts.Version).Bool("charts", s.opts.EnableMermaidCharts).Msg("Starting MCP server on stdio")
	return s.MCP().Run(ctx, &gomcp.StdioTransport{})
}

// tool registers a handler whose result is returned as structured JSON.
// Handler errors become tool errors visible to the model.
func tool[In any](srv *gomcp.Server, name, description string, h func(context.Context, In) (any, error)) {
	gomcp.AddTool(srv, &gomcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *gomcp.CallToolRequest, in In) (*gomcp.CallToolResult, any, error) {
			log.Debug().Str("tool", name).Msg("Tool call")
			out, err := h(ctx, in)
			if err != nil {
				log.Warn().Err(err).Str("tool", name).Msg("Tool call failed")
				return nil, nil, err
			}
			return nil, out, nil
		})
}

// requireKPI rejects blank identifiers before they silently create a new series.
func requireKPI(departmentID, kpiID string) error {
	var missing []string
	if strings.TrimSpace(departmentID) == "" {
		missing = append(missing, "department_id")
	}
	if strings.TrimSpace(kpiID) == "" {
		missing = append(missing, "kpi_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s is required", strings.Join(missing, " and "))
	}
	return nil
}
