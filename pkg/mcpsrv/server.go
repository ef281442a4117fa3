package mcpsrv

import (
	"context"
	"fmt"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/nfextract-mcp/internal/cache"
	"github.com/usestring/nfextract-mcp/internal/compare"
	"github.com/usestring/nfextract-mcp/internal/config"
	"github.com/usestring/nfextract-mcp/internal/decode"
	"github.com/usestring/nfextract-mcp/internal/extract"
	"github.com/usestring/nfextract-mcp/internal/logging"
	"github.com/usestring/nfextract-mcp/internal/mcp"
	"github.com/usestring/nfextract-mcp/internal/mcp/tools"
	"github.com/usestring/nfextract-mcp/internal/query"
	"github.com/usestring/nfextract-mcp/pkg/textquery"
)

// Server is the nfextract MCP server.
// It wraps the internal implementation and provides extension points.
type Server struct {
	internal   *mcp.Server
	deps       *Deps
	logCleanup func() error
}

// NewServer creates a new MCP server with the builtin extraction tools.
//
// Configuration is loaded from the environment (see internal/config); use
// functional options to override logging and rules, or to add custom tools.
func NewServer(opts ...Option) (*Server, error) {
	cfg := &serverConfig{
		config: config.Load(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.rulesFile != "" {
		cfg.config.RulesFile = cfg.rulesFile
	}

	logCfg := logging.Config{
		Level:      cfg.config.LogLevel,
		Format:     cfg.config.LogFormat,
		FilePath:   cfg.config.LogFile,
		MaxSizeMB:  cfg.config.LogMaxSizeMB,
		MaxBackups: cfg.config.LogMaxBackups,
		MaxAgeDays: cfg.config.LogMaxAgeDays,
		Compress:   cfg.config.LogCompress,
	}
	if cfg.logLevel != "" {
		logCfg.Level = cfg.logLevel
	}
	if cfg.logFile != "" {
		logCfg.FilePath = cfg.logFile
	}
	if cfg.logFormat != "" {
		logCfg.Format = cfg.logFormat
	}
	logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	catalog, err := extract.LoadCatalog(cfg.config.RulesFile, cfg.config.FreightWindowChars)
	if err != nil {
		_ = logCleanup()
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	if cfg.config.RulesFile != "" {
		slog.Info("loaded rule overrides", slog.String("file", cfg.config.RulesFile))
	}

	recordCache, err := cache.NewRecordCache(cfg.config.RecordCacheMaxItems)
	if err != nil {
		_ = logCleanup()
		return nil, fmt.Errorf("failed to create record cache: %w", err)
	}

	service := extract.New(cfg.config, catalog, recordCache)
	queryEngine := query.NewEngine()
	probe := textquery.NewEngine(queryEngine, decode.New(cfg.config.MaxDocumentBytes))
	diff := compare.NewDiffEngine(service)

	toolDeps := &tools.Deps{
		Service: service,
		Cache:   recordCache,
		Config:  cfg.config,
		Query:   queryEngine,
		Probe:   probe,
		Diff:    diff,
	}

	// Same values, public type
	deps := &Deps{
		Service: service,
		Cache:   recordCache,
		Config:  cfg.config,
		Query:   queryEngine,
		Probe:   probe,
		Diff:    diff,
		Catalog: catalog,
	}

	var internalOpts []mcp.ServerOption
	if !cfg.disableBuiltinTools {
		internalOpts = append(internalOpts, mcp.WithBuiltinTools())
	}
	if !cfg.disableBuiltinPrompts {
		internalOpts = append(internalOpts, mcp.WithBuiltinPrompts())
	}

	for _, fn := range cfg.toolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.promptRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.resourceRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.deferredToolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(func(srv *sdkmcp.Server) {
			fn(srv, deps)
		}))
	}

	internal, err := mcp.NewServer(toolDeps, internalOpts...)
	if err != nil {
		_ = logCleanup()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &Server{
		internal:   internal,
		deps:       deps,
		logCleanup: logCleanup,
	}, nil
}

// Run starts the MCP server with stdio transport.
// The server runs until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.internal.Run(ctx)
}

// Close cleans up server resources.
func (s *Server) Close() error {
	if s.logCleanup != nil {
		return s.logCleanup()
	}
	return nil
}

// Deps returns the dependencies for building custom tools.
func (s *Server) Deps() *Deps {
	return s.deps
}

// MCPServer returns the underlying MCP server, e.g. to serve it over a
// transport other than stdio.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.internal.MCPServer()
}
