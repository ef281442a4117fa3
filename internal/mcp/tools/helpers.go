// Package tools contains MCP tool implementations for nfextract.
package tools

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/nfextract-mcp/internal/extract"
	"github.com/usestring/nfextract-mcp/pkg/contenttype"
	"github.com/usestring/nfextract-mcp/pkg/fiscal"
	"github.com/usestring/nfextract-mcp/pkg/types"
)

// MIME type constant.
const MimeJSON = "application/json"

// ExtractionOutput is the output shared by the single-document extract tools.
type ExtractionOutput struct {
	Digest     string              `json:"digest"`
	Source     string              `json:"source"`
	Category   string              `json:"category"`
	Cached     bool                `json:"cached"`
	Record     *fiscal.Record      `json:"record,omitempty"`
	Fields     []types.FieldResult `json:"fields,omitzero"`
	FoundCount int                 `json:"found_count"`
	Hint       string              `json:"hint,omitempty"`
}

// toExtractionOutput flattens a service result for clients.
func toExtractionOutput(res *extract.Result, includeFields bool) ExtractionOutput {
	out := ExtractionOutput{
		Digest:     res.Digest,
		Source:     string(res.Source),
		Category:   string(res.Category),
		Cached:     res.Cached,
		Record:     res.Record,
		FoundCount: res.Record.FoundCount(),
	}
	if includeFields {
		out.Fields = types.FieldResults(res.Record)
	}
	out.Hint = extractionHint(res.Record)
	return out
}

// orderedResult carries the JSON of out as text content. The SDK rebuilds
// structured content from a map, so only the text keeps record field order.
func orderedResult(out any) *sdkmcp.CallToolResult {
	data, err := json.Marshal(out)
	if err != nil {
		return nil
	}
	return &sdkmcp.CallToolResult{Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}}}
}

// extractionHint suggests a next step when the record is mostly empty.
func extractionHint(rec *fiscal.Record) string {
	switch found := rec.FoundCount(); {
	case found == 0:
		return fmt.Sprintf("no field was found; every value is %q. Check that the document is a DANFE or NF-e and that its text layer is not empty", fiscal.NotFound)
	case found < rec.Len()/2:
		return fmt.Sprintf("only %d of %d fields were found; the layout may differ from the built-in rules (see nfextract://catalog)", found, rec.Len())
	default:
		return ""
	}
}

// parseSource maps a tool argument to an extraction source. Empty means
// auto-detect.
func parseSource(s string) (contenttype.Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return contenttype.SourceNone, nil
	case "text":
		return contenttype.SourceText, nil
	case "xml":
		return contenttype.SourceXML, nil
	default:
		return contenttype.SourceNone, ErrInvalidInput("source must be 'text', 'xml', or 'auto'")
	}
}

// decodeBody returns the raw document bytes of a tool argument.
func decodeBody(body string, isBase64 bool) ([]byte, error) {
	if !isBase64 {
		return []byte(body), nil
	}
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(body))
	if err != nil {
		return nil, ErrInvalidInput("body is not valid base64: " + err.Error())
	}
	return b, nil
}
