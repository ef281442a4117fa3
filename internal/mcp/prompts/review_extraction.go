package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/nfextract-mcp/pkg/fiscal"
)

// HandleReviewExtraction implements the extraction review workflow.
func HandleReviewExtraction(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		var source, digest string
		if req != nil && req.Params != nil && req.Params.Arguments != nil {
			source = strings.ToLower(strings.TrimSpace(req.Params.Arguments["source"]))
			digest = strings.TrimSpace(req.Params.Arguments["digest"])
		}

		var sb strings.Builder

		sb.WriteString("# Review an NF-e Extraction\n\n")
		sb.WriteString("You are reviewing fiscal data extracted from Brazilian electronic invoices (NF-e) and their printed form (DANFE). ")
		sb.WriteString("Your goal is a record the user can trust, with every missing or doubtful field called out.\n\n")

		// Sentinels
		sb.WriteString("## Reading a Record\n\n")
		sb.WriteString("Every field is always present (the XML terminal fields only when found). A value is either the extracted value or a sentinel:\n")
		fmt.Fprintf(&sb, "- `%s`: no rule matched. This is data, not an error; report it, do not guess a value\n", fiscal.NotFound)
		fmt.Fprintf(&sb, "- `%s`: only on `cnpj_pagador_frete`; the freight modality names no paying party (third party, own transport, no freight)\n\n", fiscal.Unspecified)
		sb.WriteString("Tax IDs are digits only, amounts use a dot as decimal separator, `numero_nota` has no leading zeros and `chave_acesso` has 44 digits.\n\n")

		// Workflow
		sb.WriteString("## Workflow Steps\n\n")
		sb.WriteString("1. **Extract** with the tool that matches the input\n")
		switch source {
		case "xml":
			sb.WriteString("   - `nfe_extract_xml(xml=...)`: exact; fields come from tagged elements\n")
		case "text":
			sb.WriteString("   - `nfe_extract_text(content=..., include_fields=true)`: heuristic; fields come from label patterns\n")
		case "document":
			sb.WriteString("   - `nfe_extract_document(body=<base64>, content_type=...)`: picks the pipeline from the content type\n")
		case "batch":
			fmt.Fprintf(&sb, "   - `nfe_extract_batch(documents=[...])`: up to %d documents per call, failures reported per item\n", cfg.MaxBatchDocuments)
		default:
			sb.WriteString("   - NF-e XML: `nfe_extract_xml` (preferred whenever the XML exists)\n")
			sb.WriteString("   - DANFE text: `nfe_extract_text`\n")
			sb.WriteString("   - A file of unknown type: `nfe_extract_document`\n")
			sb.WriteString("   - Many files: `nfe_extract_batch`\n")
		}
		sb.WriteString("2. **Validate** with `nfe_validate_record(digest=...)` and read `not_found`\n")
		sb.WriteString("3. **Cross-check** text results before reporting them:\n")
		sb.WriteString("   - `cnpj_remetente` and `cnpj_destinatario` are the first and second CNPJ in the text. A carrier or issuer printed first will shift them\n")
		sb.WriteString("   - `cnpj_pagador_frete` is inferred from words such as CIF/FOB or \"por conta do remetente\"; confirm against the freight box\n")
		sb.WriteString("   - `quantidade` is kept as printed, in Brazilian notation\n")
		sb.WriteString("   - When the XML of the same NF-e is available, extract it too and run `nfe_compare_records(baseline_digest=<xml>, candidate_digest=<text>)`; entries under `important_diffs` with `key=true` need attention\n")
		sb.WriteString("4. **Report** the record and a list of fields to verify manually\n\n")

		if digest != "" {
			writeRecordSection(&sb, cfg, digest)
		}

		// Error recovery
		sb.WriteString("## If Things Go Wrong\n\n")
		sb.WriteString("- **UNSUPPORTED_CONTENT?** PDFs and images are not decoded. Ask for the text layer or the XML instead\n")
		sb.WriteString("- **DECODE_FAILED?** The XML or page JSON is malformed; ask for a fresh export\n")
		if cfg.MaxDocumentBytes > 0 {
			fmt.Fprintf(&sb, "- **INVALID_INPUT on size?** Documents are limited to %d bytes\n", cfg.MaxDocumentBytes)
		}
		sb.WriteString("- **Most fields not found?** The layout differs from the built-in rules. Read `nfextract://catalog` to see which patterns were tried, then test a replacement pattern with `nfe_probe_document`")
		if cfg.CustomRules {
			sb.WriteString(" (custom rules are loaded on this server)")
		}
		sb.WriteString("\n\n")

		// Constraints
		sb.WriteString("## Constraints\n\n")
		sb.WriteString("- Never replace a sentinel with a guessed value\n")
		sb.WriteString("- Prefer the XML result when both XML and text of the same invoice are available\n")
		sb.WriteString("- Do not re-extract a document to refresh it; identical inputs return the cached record\n")

		return &sdkmcp.GetPromptResult{
			Description: "Guide for extracting and reviewing NF-e fiscal records",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}

// writeRecordSection embeds a cached record as a review table.
func writeRecordSection(sb *strings.Builder, cfg *Config, digest string) {
	sb.WriteString("## Record Under Review\n\n")
	if cfg.Lookup == nil {
		fmt.Fprintf(sb, "Read `nfextract://record/%s` to load the record.\n\n", digest)
		return
	}
	rec, source, ok := cfg.Lookup(digest)
	if !ok {
		fmt.Fprintf(sb, "No cached record has digest `%s`. Extract the document again to review it.\n\n", digest)
		return
	}

	fmt.Fprintf(sb, "Source: %s, %d of %d fields found.\n\n", source, rec.FoundCount(), rec.Len())
	sb.WriteString("| Field | Label | Value |\n")
	sb.WriteString("|-------|-------|-------|\n")
	for _, f := range rec.Fields() {
		value := f.Value
		if !f.Found() {
			value = "**" + value + "**"
		}
		fmt.Fprintf(sb, "| `%s` | %s | %s |\n", f.Name, f.Name.Label(), value)
	}
	sb.WriteString("\n")
}
