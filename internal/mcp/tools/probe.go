package tools

import (
	"context"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/nfextract-mcp/pkg/textquery"
)

// ProbeDocumentInput is the input for nfe_probe_document.
type ProbeDocumentInput struct {
	Body        string `json:"body" jsonschema:"Document body, base64 encoded unless base64 is false"`
	Base64      *bool  `json:"base64,omitempty" jsonschema:"Whether body is base64 encoded (default: true)"`
	ContentType string `json:"content_type,omitempty" jsonschema:"Declared content type; sniffed from the body when empty"`
	Expression  string `json:"expression" jsonschema:"Expression to evaluate in the chosen mode"`
	Mode        string `json:"mode,omitempty" jsonschema:"One of regex, xpath, css, jq (default: derived from the document category)"`
	MaxResults  int    `json:"max_results,omitempty" jsonschema:"Maximum values to return (default: 50)"`
}

// ProbeDocumentOutput is the output for nfe_probe_document.
type ProbeDocumentOutput struct {
	Mode     string   `json:"mode"`
	Category string   `json:"category"`
	Values   []any    `json:"values,omitzero"`
	Count    int      `json:"count"`
	Errors   []string `json:"errors,omitempty"`
	Hint     string   `json:"hint,omitempty"`
}

const defaultProbeResults = 50

// ToolProbeDocument creates the nfe_probe_document tool handler.
func ToolProbeDocument(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ProbeDocumentInput) (*sdkmcp.CallToolResult, ProbeDocumentOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ProbeDocumentInput) (*sdkmcp.CallToolResult, ProbeDocumentOutput, error) {
		body, err := decodeBody(input.Body, input.Base64 == nil || *input.Base64)
		if err != nil {
			return nil, ProbeDocumentOutput{}, err
		}

		maxResults := input.MaxResults
		if maxResults <= 0 {
			maxResults = defaultProbeResults
		}

		res, err := d.Probe.Query(body, input.ContentType, input.Expression, input.Mode, maxResults)
		if err != nil {
			if errors.Is(err, textquery.ErrInvalidQuery) {
				return nil, ProbeDocumentOutput{}, ErrInvalidInput(err.Error())
			}
			return nil, ProbeDocumentOutput{}, WrapExtractError(err)
		}

		out := ProbeDocumentOutput{
			Mode:     res.Mode,
			Category: res.Category,
			Values:   res.Values,
			Count:    res.Count,
			Errors:   res.Errors,
		}
		switch {
		case res.Count == 0:
			out.Hint = probeMissHint(res.Mode)
		case res.Count >= maxResults:
			out.Hint = fmt.Sprintf("output capped at %d values; raise max_results to see more", maxResults)
		}
		return nil, out, nil
	}
}

func probeMissHint(mode string) string {
	switch mode {
	case textquery.ModeRegex:
		return "no match; the text is normalized first (whitespace collapsed, accents composed), so match single spaces and composed characters"
	case textquery.ModeXPath:
		return "no match; element names are case sensitive, and local-name() matches regardless of namespace prefix, e.g. //*[local-name()='CNPJ']"
	default:
		return "no match"
	}
}
