package prompts

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all prompts with the MCP server.
func Register(srv *sdkmcp.Server, cfg *Config) {
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "review_extraction",
		Description: "RECOMMENDED: Extract and review the fiscal record of NF-e documents. Explains which tool fits each input, what the sentinel values mean and how to double-check heuristic text results.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "source",
				Description: "What you have: text (DANFE text layer), xml (NF-e XML), document (uploaded file) or batch",
				Required:    false,
			},
			{
				Name:        "digest",
				Description: "Digest of an already extracted record to review",
				Required:    false,
			},
		},
	}, HandleReviewExtraction(cfg))

	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "extraction_guide",
		Description: "Short reference of the nfextract tools, limits and resources.",
	}, HandleExtractionGuide(cfg))
}
