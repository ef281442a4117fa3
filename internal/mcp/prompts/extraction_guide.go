package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleExtractionGuide serves the tool reference.
func HandleExtractionGuide(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		var sb strings.Builder

		sb.WriteString("# nfextract Tool Reference\n\n")
		sb.WriteString("| Input | Tool | Notes |\n")
		sb.WriteString("|-------|------|-------|\n")
		sb.WriteString("| NF-e XML | `nfe_extract_xml` | 11 fields, exact |\n")
		sb.WriteString("| DANFE text | `nfe_extract_text` | 9 fields, pattern based |\n")
		sb.WriteString("| File (XML, text, HTML, pdf2json) | `nfe_extract_document` | base64 body, type sniffed when missing |\n")
		fmt.Fprintf(&sb, "| Many files | `nfe_extract_batch` | max %d per call, optional jq `filter` |\n", cfg.MaxBatchDocuments)
		sb.WriteString("| A record | `nfe_validate_record` | schema check plus `not_found` list |\n")
		sb.WriteString("| Field list | `nfe_list_fields` | labels, sources, sentinels |\n")
		sb.WriteString("| Two records | `nfe_compare_records` | XML against text cross-check, key and noisy diffs |\n")
		sb.WriteString("| Rule drafting | `nfe_probe_document` | regex, xpath, css or jq against what the extractors read |\n\n")

		sb.WriteString("## Resources\n\n")
		sb.WriteString("- `nfextract://record/{digest}`: a cached record, by the digest every extract tool returns\n")
		sb.WriteString("- `nfextract://records`: digests of cached records, oldest first\n")
		sb.WriteString("- `nfextract://catalog`: the rule catalog (text patterns, XML paths, freight tables)\n\n")

		sb.WriteString("## Batch Filters\n\n")
		sb.WriteString("The filter runs once over the array of batch items; records live under `.record`. `$sentinel` holds the not-found marker:\n")
		sb.WriteString("```\n")
		sb.WriteString(".[] | select(.record.chave_acesso != $sentinel) | {key: .record.chave_acesso, total: .record.valor_nota}\n")
		sb.WriteString("```\n")

		return &sdkmcp.GetPromptResult{
			Description: "Reference of nfextract tools and resources",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
