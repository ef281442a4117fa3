// Package prompts contains MCP prompt implementations for nfextract.
package prompts

import "github.com/usestring/nfextract-mcp/pkg/fiscal"

// Config holds configuration needed by prompts.
type Config struct {
	MaxDocumentBytes  int
	MaxBatchDocuments int
	CustomRules       bool

	// Lookup returns a cached record and its source by digest. Nil disables
	// record embedding.
	Lookup func(digest string) (*fiscal.Record, string, bool)
}
