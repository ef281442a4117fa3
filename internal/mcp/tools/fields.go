package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/nfextract-mcp/pkg/contenttype"
	"github.com/usestring/nfextract-mcp/pkg/fiscal"
	"github.com/usestring/nfextract-mcp/pkg/types"
)

// ListFieldsInput is the input for nfe_list_fields.
type ListFieldsInput struct {
	Source string `json:"source,omitempty" jsonschema:"Only list fields produced by this source: text or xml"`
}

// ListFieldsOutput is the output for nfe_list_fields.
type ListFieldsOutput struct {
	Fields      []types.FieldInfo `json:"fields,omitzero"`
	NotFound    string            `json:"not_found"`
	Unspecified string            `json:"unspecified"`
}

// ToolListFields describes the record fields and the sentinel values.
func ToolListFields(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ListFieldsInput) (*sdkmcp.CallToolResult, ListFieldsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ListFieldsInput) (*sdkmcp.CallToolResult, ListFieldsOutput, error) {
		source, err := parseSource(input.Source)
		if err != nil {
			return nil, ListFieldsOutput{}, err
		}
		return nil, ListFieldsOutput{
			Fields:      FieldInfos(source),
			NotFound:    fiscal.NotFound,
			Unspecified: fiscal.Unspecified,
		}, nil
	}
}

// FieldInfos lists every field in record order, restricted to source unless
// it is SourceNone.
func FieldInfos(source contenttype.Source) []types.FieldInfo {
	inText := make(map[fiscal.FieldName]bool, len(fiscal.TextFields))
	for _, f := range fiscal.TextFields {
		inText[f] = true
	}
	inTree := make(map[fiscal.FieldName]bool, len(fiscal.TreeFields))
	for _, f := range fiscal.TreeFields {
		inTree[f] = true
	}

	all := append([]fiscal.FieldName{}, fiscal.TreeFields...)
	for _, f := range fiscal.TextFields {
		if !inTree[f] {
			all = append(all, f)
		}
	}

	out := make([]types.FieldInfo, 0, len(all))
	for _, f := range all {
		var sources []string
		if inText[f] {
			sources = append(sources, string(contenttype.SourceText))
		}
		if inTree[f] {
			sources = append(sources, string(contenttype.SourceXML))
		}
		switch source {
		case contenttype.SourceText:
			if !inText[f] {
				continue
			}
		case contenttype.SourceXML:
			if !inTree[f] {
				continue
			}
		}
		out = append(out, types.FieldInfo{
			Name:     string(f),
			Label:    f.Label(),
			Sources:  sources,
			Optional: f.Optional(),
		})
	}
	return out
}
