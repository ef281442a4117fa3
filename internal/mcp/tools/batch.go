package tools

import (
	"context"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/nfextract-mcp/internal/extract"
	"github.com/usestring/nfextract-mcp/pkg/fiscal"
	"github.com/usestring/nfextract-mcp/pkg/types"
)

// BatchDocument is one document of an nfe_extract_batch call.
type BatchDocument struct {
	Body        string `json:"body" jsonschema:"required,Document body, base64 encoded unless base64 is false"`
	Base64      *bool  `json:"base64,omitempty" jsonschema:"Whether body is base64 encoded (default: true)"`
	ContentType string `json:"content_type,omitempty" jsonschema:"Content-Type of the document; sniffed from the body when empty"`
	Source      string `json:"source,omitempty" jsonschema:"Force the pipeline: text, xml, or auto (default: auto)"`
}

// ExtractBatchInput is the input for nfe_extract_batch.
type ExtractBatchInput struct {
	Documents   []BatchDocument `json:"documents" jsonschema:"required,Documents to extract; each is processed independently"`
	Filter      string          `json:"filter,omitempty" jsonschema:"Optional jq expression applied to the array of results; $sentinel is bound to the not-found marker"`
	Deduplicate bool            `json:"deduplicate,omitempty" jsonschema:"Drop duplicate filter values"`
	MaxResults  int             `json:"max_results,omitempty" jsonschema:"Max filter values returned (default: 100)"`
}

// BatchItemOutput is the outcome of one batch document.
type BatchItemOutput struct {
	Index      int               `json:"index"`
	Digest     string            `json:"digest,omitempty"`
	Source     string            `json:"source,omitempty"`
	Cached     bool              `json:"cached,omitempty"`
	Record     *fiscal.Record `json:"record,omitempty"`
	FoundCount int            `json:"found_count"`
	ErrorCode  string         `json:"error_code,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// BatchSummary counts batch outcomes.
type BatchSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Cached    int `json:"cached"`
}

// BatchFilterOutput holds the values a filter produced.
type BatchFilterOutput struct {
	Values   []any    `json:"values,omitzero"`
	Errors   []string `json:"errors,omitempty"`
	RawCount int      `json:"raw_count"`
}

// ExtractBatchOutput is the output for nfe_extract_batch.
type ExtractBatchOutput struct {
	Items   []BatchItemOutput  `json:"items,omitzero"`
	Summary BatchSummary       `json:"summary"`
	Filter  *BatchFilterOutput `json:"filter,omitempty"`
	Hint    string             `json:"hint,omitempty"`
}

const defaultFilterResults = 100

// ToolExtractBatch extracts many documents on the service worker pool and
// optionally projects the results through a jq filter.
func ToolExtractBatch(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ExtractBatchInput) (*sdkmcp.CallToolResult, ExtractBatchOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ExtractBatchInput) (*sdkmcp.CallToolResult, ExtractBatchOutput, error) {
		if len(input.Documents) == 0 {
			return nil, ExtractBatchOutput{}, ErrInvalidInput("documents must not be empty")
		}
		if input.Filter != "" {
			if err := d.Query.ValidateExpression(input.Filter); err != nil {
				return nil, ExtractBatchOutput{}, ErrInvalidInput(err.Error())
			}
		}

		reqs := make([]*extract.Request, len(input.Documents))
		for i, doc := range input.Documents {
			r, err := documentRequest(doc.Body, doc.Base64, doc.ContentType, doc.Source)
			if err != nil {
				return nil, ExtractBatchOutput{}, ErrInvalidInput(fmt.Sprintf("documents[%d]: %v", i, err))
			}
			reqs[i] = r
		}

		if d.Config.BatchTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.Config.BatchTimeout)
			defer cancel()
		}

		items, err := d.Service.ExtractBatch(ctx, reqs)
		if err != nil && !isContextErr(err) {
			return nil, ExtractBatchOutput{}, WrapExtractError(err)
		}

		output := ExtractBatchOutput{
			Items:   make([]BatchItemOutput, 0, len(items)),
			Summary: BatchSummary{Total: len(items)},
		}
		for _, item := range items {
			out := BatchItemOutput{Index: item.Index}
			if item.Err != nil {
				coded := WrapExtractError(item.Err)
				out.ErrorCode = CodeOf(coded)
				out.Error = coded.Error()
				output.Summary.Failed++
			} else {
				out.Digest = item.Result.Digest
				out.Source = string(item.Result.Source)
				out.Cached = item.Result.Cached
				out.Record = item.Result.Record
				out.FoundCount = item.Result.Record.FoundCount()
				output.Summary.Succeeded++
				if out.Cached {
					output.Summary.Cached++
				}
			}
			output.Items = append(output.Items, out)
		}

		if err != nil {
			output.Hint = fmt.Sprintf("batch stopped early (%v); unprocessed documents carry error_code %s", err, ErrCodeTimeout)
		}

		if input.Filter != "" {
			filtered, ferr := filterItems(d, output.Items, input)
			if ferr != nil {
				return nil, ExtractBatchOutput{}, ErrInvalidInput(ferr.Error())
			}
			output.Filter = filtered
		}

		return orderedResult(output), output, nil
	}
}

// filterItems runs the batch filter over the item array as clients see it.
func filterItems(d *Deps, items []BatchItemOutput, input ExtractBatchInput) (*BatchFilterOutput, error) {
	data, err := types.ToAny(items)
	if err != nil {
		return nil, err
	}

	maxResults := input.MaxResults
	if maxResults <= 0 {
		maxResults = defaultFilterResults
	}

	res, err := d.Query.Filter(data, input.Filter, fiscal.NotFound, input.Deduplicate, maxResults)
	if err != nil {
		return nil, err
	}
	return &BatchFilterOutput{Values: res.Values, Errors: res.Errors, RawCount: res.RawCount}, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
