package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	AddTool(srv, &sdkmcp.Tool{
		Name:        "nfe_extract_text",
		Description: "Extract the fiscal record from the text layer of a DANFE (PDF text, OCR output or copied page text). Returns {digest, source, category, cached, record, found_count, hint}; record maps each of the 9 text fields to its value or \"Não encontrado\". Tax IDs are assigned by position: the first CNPJ is the sender, the second the recipient. Set include_fields=true for labelled rows. Use nfe_extract_xml instead when the NF-e XML is available: it is exact where text extraction is heuristic.",
	}, ToolExtractText(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "nfe_extract_xml",
		Description: "Extract the fiscal record from an NF-e XML document (nfeProc or bare NFe, any namespace). Returns the same shape as nfe_extract_text with 11 fields; the terminal fields (cnpj_terminal_coleta, cnpj_terminal_entrega) appear only when present. cnpj_pagador_frete is resolved from modFrete: 0/4 sender, 1 recipient, anything else \"Não especificado\".",
	}, ToolExtractXML(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "nfe_extract_document",
		Description: "Extract the fiscal record from an uploaded document. body is base64 by default. The pipeline is picked from content_type, or sniffed from the body when it is empty or application/octet-stream: XML runs the structured extractor; plain text, HTML and pdf2json page JSON run the text extractor. PDFs and images are rejected with UNSUPPORTED_CONTENT since no OCR is performed. Set source to force a pipeline.",
	}, ToolExtractDocument(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "nfe_extract_batch",
		Description: "Extract many documents in parallel. Returns {items: [{index, digest, source, cached, record, found_count, error_code, error}], summary: {total, succeeded, failed, cached}, filter, hint}. A failing document is reported on its item and never fails the batch. Optional filter is a jq expression applied to the items array with $sentinel bound to \"Não encontrado\", e.g. `.[] | select(.record.cnpj_pagador_frete != $sentinel) | .record.chave_acesso`.",
	}, ToolExtractBatch(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "nfe_validate_record",
		Description: "Validate a record against the JSON Schema of its source: required keys, no unknown keys, and value shapes (digits-only tax IDs, 44-digit access key, amounts of digits and dots, or a sentinel). Pass digest to check a previously extracted record, or record plus source to check one produced elsewhere. Returns {valid, source, errors, not_found}.",
	}, ToolValidateRecord(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "nfe_list_fields",
		Description: "List record fields in output order with their Portuguese labels, the sources that produce them and whether they are optional, plus the sentinel values \"Não encontrado\" and \"Não especificado\".",
	}, ToolListFields(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "nfe_probe_document",
		Description: "Run a regex, xpath, css or jq expression against a document as the extractors see it, to check what a rule override would match before writing it. body is base64 by default. mode defaults from the detected category: xml→xpath, html→css, pdf2json page json→jq, text→regex. regex runs over the normalized text the text extractor reads (raw markup for XML) and returns the first capture group when there is one. local-name() matches regardless of namespace prefix: //*[local-name()='emit']/*[local-name()='CNPJ']. A trailing /@name returns attribute values.",
	}, ToolProbeDocument(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "nfe_compare_records",
		Description: "Compare two cached records by digest, typically the XML and DANFE text extractions of the same NF-e. Returns {equal, important_diffs: {changed, found_in_baseline_only, found_in_candidate_only}, noisy_diffs: {format_only, only_in_baseline, only_in_candidate, ignored}}. Values that differ only in punctuation, zero padding or decimal notation are noisy; changes to key fields (access key, series, number, tax IDs) carry key=true.",
	}, ToolCompareRecords(d))
}
