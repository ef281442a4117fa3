package tools

import (
	"context"
	"encoding/json"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/nfextract-mcp/internal/schema"
	"github.com/usestring/nfextract-mcp/pkg/contenttype"
	"github.com/usestring/nfextract-mcp/pkg/fiscal"
	"github.com/usestring/nfextract-mcp/pkg/types"
)

// ValidateRecordInput is the input for nfe_validate_record.
type ValidateRecordInput struct {
	Digest        string            `json:"digest,omitempty" jsonschema:"Validate a previously extracted record by digest"`
	Record        map[string]string `json:"record,omitempty" jsonschema:"Validate this record (field name to value)"`
	Source        string            `json:"source,omitempty" jsonschema:"Schema to validate record against: text or xml (default: text; ignored with digest)"`
	IncludeSchema bool              `json:"include_schema,omitempty" jsonschema:"Return the JSON Schema used for validation"`
}

// ValidateRecordOutput is the output for nfe_validate_record.
type ValidateRecordOutput struct {
	Valid    bool     `json:"valid"`
	Source   string   `json:"source"`
	Errors   []string `json:"errors,omitempty"`
	NotFound []string `json:"not_found,omitempty"`
	Schema   any      `json:"schema,omitempty"`
}

// ToolValidateRecord checks a record against the record schema of its source.
func ToolValidateRecord(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ValidateRecordInput) (*sdkmcp.CallToolResult, ValidateRecordOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ValidateRecordInput) (*sdkmcp.CallToolResult, ValidateRecordOutput, error) {
		if (input.Digest == "") == (input.Record == nil) {
			return nil, ValidateRecordOutput{}, ErrInvalidInput("exactly one of digest or record is required")
		}

		var (
			source contenttype.Source
			result *types.ValidationResult
			values map[string]string
		)

		if input.Digest != "" {
			res, ok := d.Service.Lookup(input.Digest)
			if !ok {
				return nil, ValidateRecordOutput{}, ErrNotFound("record", input.Digest)
			}
			source = res.Source
			values = res.Record.Map()
			vr, err := schema.ValidateRecord(res.Record, source)
			if err != nil {
				return nil, ValidateRecordOutput{}, WrapExtractError(err)
			}
			result = vr
		} else {
			src, err := parseSource(input.Source)
			if err != nil {
				return nil, ValidateRecordOutput{}, err
			}
			if src == contenttype.SourceNone {
				src = contenttype.SourceText
			}
			source = src
			values = input.Record

			v, err := schema.ForSource(source)
			if err != nil {
				return nil, ValidateRecordOutput{}, WrapExtractError(err)
			}
			data, err := json.Marshal(input.Record)
			if err != nil {
				return nil, ValidateRecordOutput{}, ErrInvalidInput("record is not serializable: " + err.Error())
			}
			result = v.Validate(data)
		}

		output := ValidateRecordOutput{
			Valid:    result.Valid,
			Source:   string(source),
			Errors:   result.Errors,
			NotFound: notFoundFields(source, values),
		}

		if input.IncludeSchema {
			s, err := types.ToAny(schema.RecordSchema(source))
			if err != nil {
				return nil, ValidateRecordOutput{}, WrapExtractError(err)
			}
			output.Schema = s
		}

		return nil, output, nil
	}
}

// notFoundFields lists, in record order, the fields holding the not-found
// sentinel.
func notFoundFields(source contenttype.Source, values map[string]string) []string {
	fields := fiscal.TextFields
	if source == contenttype.SourceXML {
		fields = fiscal.TreeFields
	}
	var out []string
	for _, f := range fields {
		if values[string(f)] == fiscal.NotFound {
			out = append(out, string(f))
		}
	}
	return out
}
