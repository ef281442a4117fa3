package mcp

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/nfextract-mcp/internal/compare"
	"github.com/usestring/nfextract-mcp/internal/decode"
	"github.com/usestring/nfextract-mcp/internal/mcp/prompts"
	"github.com/usestring/nfextract-mcp/internal/mcp/tools"
	"github.com/usestring/nfextract-mcp/internal/query"
	"github.com/usestring/nfextract-mcp/pkg/fiscal"
	"github.com/usestring/nfextract-mcp/pkg/textquery"
)

// Version is reported to clients in the server implementation info.
const Version = "1.0.0"

// Server wraps the MCP server with nfextract-specific components.
type Server struct {
	mcpServer *sdkmcp.Server
	deps      *tools.Deps

	// Extension toggles
	enableBuiltinTools   bool
	enableBuiltinPrompts bool

	// Custom extension registration callbacks
	customRegistrations []func(*sdkmcp.Server)
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithBuiltinTools enables the builtin extraction tools and resources.
func WithBuiltinTools() ServerOption {
	return func(s *Server) {
		s.enableBuiltinTools = true
	}
}

// WithBuiltinPrompts enables the builtin prompts.
func WithBuiltinPrompts() ServerOption {
	return func(s *Server) {
		s.enableBuiltinPrompts = true
	}
}

// WithCustomRegistration adds a custom registration callback.
// The callback receives the underlying MCP server and can register
// tools, prompts, or resources directly.
func WithCustomRegistration(fn func(*sdkmcp.Server)) ServerOption {
	return func(s *Server) {
		s.customRegistrations = append(s.customRegistrations, fn)
	}
}

// NewServer creates a new MCP server with the provided dependencies and options.
func NewServer(deps *tools.Deps, opts ...ServerOption) (*Server, error) {
	if deps == nil || deps.Service == nil {
		return nil, fmt.Errorf("deps with an extraction service is required")
	}
	if deps.Query == nil {
		deps.Query = query.NewEngine()
	}
	if deps.Probe == nil {
		maxBytes := 0
		if deps.Config != nil {
			maxBytes = deps.Config.MaxDocumentBytes
		}
		deps.Probe = textquery.NewEngine(deps.Query, decode.New(maxBytes))
	}
	if deps.Diff == nil {
		deps.Diff = compare.NewDiffEngine(deps.Service)
	}

	s := &Server{deps: deps}

	for _, opt := range opts {
		opt(s)
	}

	s.mcpServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{
			Name:    "nfextract-mcp",
			Version: Version,
		},
		nil,
	)

	s.mcpServer.AddReceivingMiddleware(LoggingMiddleware())

	promptCfg := &prompts.Config{
		MaxBatchDocuments: deps.Service.MaxBatch(),
		Lookup: func(digest string) (*fiscal.Record, string, bool) {
			res, ok := deps.Service.Lookup(digest)
			if !ok {
				return nil, "", false
			}
			return res.Record, string(res.Source), true
		},
	}
	if deps.Config != nil {
		promptCfg.MaxDocumentBytes = deps.Config.MaxDocumentBytes
		promptCfg.CustomRules = deps.Config.RulesFile != ""
	}

	if s.enableBuiltinTools {
		tools.Register(s.mcpServer, deps)
		s.registerResources()
	}
	if s.enableBuiltinPrompts {
		prompts.Register(s.mcpServer, promptCfg)
	}

	for _, fn := range s.customRegistrations {
		fn(s.mcpServer)
	}

	return s, nil
}

// Run starts the MCP server with stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &sdkmcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server for testing.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.mcpServer
}
