package mcpsrv

import (
	"github.com/usestring/nfextract-mcp/internal/cache"
	"github.com/usestring/nfextract-mcp/internal/compare"
	"github.com/usestring/nfextract-mcp/internal/config"
	"github.com/usestring/nfextract-mcp/internal/extract"
	"github.com/usestring/nfextract-mcp/internal/query"
	"github.com/usestring/nfextract-mcp/pkg/fiscal"
	"github.com/usestring/nfextract-mcp/pkg/textquery"
)

// Deps contains all dependencies available to custom tools.
// This gives custom tools access to the same infrastructure as builtin tools.
type Deps struct {
	Service *extract.Service
	Cache   *cache.RecordCache
	Config  *config.Config
	Query   *query.Engine
	Probe   *textquery.Engine
	Diff    *compare.DiffEngine
	Catalog *fiscal.Catalog
}
