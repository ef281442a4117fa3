package tools

import (
	"context"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/nfextract-mcp/internal/compare"
	"github.com/usestring/nfextract-mcp/pkg/fiscal"
	"github.com/usestring/nfextract-mcp/pkg/types"
)

// CompareRecordsInput is the input for nfe_compare_records.
type CompareRecordsInput struct {
	BaselineDigest  string   `json:"baseline_digest" jsonschema:"Digest of the reference record, usually the XML extraction"`
	CandidateDigest string   `json:"candidate_digest" jsonschema:"Digest of the record to check, usually the DANFE text extraction"`
	IgnoreFields    []string `json:"ignore_fields,omitempty" jsonschema:"Fields to leave out of the comparison"`
	KeyFields       []string `json:"key_fields,omitempty" jsonschema:"Fields flagged as key on a change (default: access key, series, number and the tax IDs)"`
}

// CompareRecordsOutput is the output for nfe_compare_records.
type CompareRecordsOutput struct {
	BaselineDigest  string               `json:"baseline_digest"`
	CandidateDigest string               `json:"candidate_digest"`
	BaselineSource  string               `json:"baseline_source"`
	CandidateSource string               `json:"candidate_source"`
	Equal           bool                 `json:"equal"`
	ImportantDiffs  types.ImportantDiffs `json:"important_diffs"`
	NoisyDiffs      types.NoisyDiffs     `json:"noisy_diffs"`
	Hint            string               `json:"hint,omitempty"`
}

// ToolCompareRecords creates the nfe_compare_records tool handler.
func ToolCompareRecords(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input CompareRecordsInput) (*sdkmcp.CallToolResult, CompareRecordsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input CompareRecordsInput) (*sdkmcp.CallToolResult, CompareRecordsOutput, error) {
		if input.BaselineDigest == "" || input.CandidateDigest == "" {
			return nil, CompareRecordsOutput{}, ErrInvalidInput("baseline_digest and candidate_digest are required")
		}
		for _, names := range [][]string{input.IgnoreFields, input.KeyFields} {
			for _, name := range names {
				if !fiscal.IsField(name) {
					return nil, CompareRecordsOutput{}, ErrInvalidInput(fmt.Sprintf("unknown field %q (see nfe_list_fields)", name))
				}
			}
		}

		diff, err := d.Diff.Diff(ctx, &types.DiffRequest{
			BaselineDigest:  input.BaselineDigest,
			CandidateDigest: input.CandidateDigest,
			Options: &types.DiffOptions{
				IgnoreFields: input.IgnoreFields,
				KeyFields:    input.KeyFields,
			},
		})
		if err != nil {
			if errors.Is(err, compare.ErrRecordNotFound) {
				return nil, CompareRecordsOutput{}, &CodedError{Code: ErrCodeNotFound, Message: "no cached record for digest", Cause: err}
			}
			return nil, CompareRecordsOutput{}, WrapExtractError(err)
		}

		out := CompareRecordsOutput{
			BaselineDigest:  diff.BaselineDigest,
			CandidateDigest: diff.CandidateDigest,
			BaselineSource:  diff.BaselineSource,
			CandidateSource: diff.CandidateSource,
			Equal:           diff.Equal,
			ImportantDiffs:  diff.ImportantDiffs,
			NoisyDiffs:      diff.NoisyDiffs,
		}
		if !diff.Equal && diff.BaselineSource != diff.CandidateSource {
			out.Hint = "text extraction is positional and pattern based; where the XML record has a value, prefer it"
		}
		return nil, out, nil
	}
}
