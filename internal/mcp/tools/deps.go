package tools

import (
	"github.com/usestring/nfextract-mcp/internal/cache"
	"github.com/usestring/nfextract-mcp/internal/compare"
	"github.com/usestring/nfextract-mcp/internal/config"
	"github.com/usestring/nfextract-mcp/internal/extract"
	"github.com/usestring/nfextract-mcp/internal/query"
	"github.com/usestring/nfextract-mcp/pkg/fiscal"
	"github.com/usestring/nfextract-mcp/pkg/textquery"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Service *extract.Service
	Cache   *cache.RecordCache
	Config  *config.Config
	Query   *query.Engine
	Probe   *textquery.Engine
	Diff    *compare.DiffEngine
}

// Catalog returns the rule catalog the extraction service evaluates.
func (d *Deps) Catalog() *fiscal.Catalog {
	return d.Service.Catalog()
}
